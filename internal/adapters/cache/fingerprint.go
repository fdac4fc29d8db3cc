package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Shape separates results that share a URL, e.g. a fixed resource and the id
// listing of the same path
type Shape uint8

const (
	ShapeItem Shape = iota + 1
	ShapeIDs
)

func (s Shape) String() string {
	switch s {
	case ShapeItem:
		return "item"
	case ShapeIDs:
		return "ids"
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

type Fingerprint uint64

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// NewFingerprint hashes the identity of a request.
//
// locale should be empty for resources that are not localized.
func NewFingerprint(resourceType string, shape Shape, id string, locale string) Fingerprint {
	digest := xxhash.New()
	// Separate the fields so ("ab", "c") and ("a", "bc") don't collide
	for _, part := range []string{resourceType, shape.String(), id, locale} {
		_, _ = digest.WriteString(part)
		_, _ = digest.Write([]byte{0})
	}
	return Fingerprint(digest.Sum64())
}
