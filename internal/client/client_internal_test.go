package client

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestCacheControlDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header   string
		expected time.Duration
	}{
		{"", 300 * time.Second},
		{"max-age=60", 60 * time.Second},
		{"public, max-age=30", 30 * time.Second},
		{"120", 120 * time.Second},
		{"max-age=0", 0},
		{"no-cache", 300 * time.Second},
		{"max-age=-5", 300 * time.Second},
		{"max-age=abc", 300 * time.Second},
	}
	for _, c := range cases {
		t.Run(c.header, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, c.expected, cacheControlDuration(c.header))
		})
	}
}

func TestJoinIDs(t *testing.T) {
	t.Parallel()

	require.Empty(t, joinIDs([]int{}))
	require.Equal(t, "1,2,3", joinIDs([]int{1, 2, 3}))
	require.Equal(t, "Guardian,Warrior", joinIDs([]domain.ProfessionID{"Guardian", "Warrior"}))

	t.Run("query syntax in ids is escaped", func(t *testing.T) {
		t.Parallel()

		joined := joinIDs([]domain.ProfessionID{"Guardian&lang=de", "a,b", "Some Thing"})
		require.Equal(t, "Guardian%26lang%3Dde,a%2Cb,Some+Thing", joined)
		require.Len(t, strings.Split(joined, ","), 3)
	})
}

func TestChunkIDs(t *testing.T) {
	t.Parallel()

	require.Empty(t, chunkIDs([]int{}))

	ids := make([]int, 401)
	for i := range ids {
		ids[i] = i
	}
	chunks := chunkIDs(ids)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 200)
	require.Len(t, chunks[1], 200)
	require.Equal(t, []int{400}, chunks[2])
}

func TestUniqueIDs(t *testing.T) {
	t.Parallel()

	require.Equal(t, []int{9, 1, 2}, uniqueIDs([]int{9, 1, 9, 2, 1}))
	require.Empty(t, uniqueIDs([]int(nil)))
}

func TestCastValue(t *testing.T) {
	t.Parallel()

	t.Run("typed", func(t *testing.T) {
		t.Parallel()

		value, ok := castValue[domain.Build](domain.Build{ID: 1})
		require.True(t, ok)
		require.Equal(t, domain.Build{ID: 1}, value)
	})

	t.Run("raw json from a persistent cache", func(t *testing.T) {
		t.Parallel()

		value, ok := castValue[domain.Build](json.RawMessage(`{"id":2}`))
		require.True(t, ok)
		require.Equal(t, domain.Build{ID: 2}, value)

		ids, ok := castValue[[]domain.SkillID](json.RawMessage(`[1,2]`))
		require.True(t, ok)
		require.Equal(t, []domain.SkillID{1, 2}, ids)
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()

		_, ok := castValue[domain.Build]("not a build")
		require.False(t, ok)

		_, ok = castValue[domain.Build](json.RawMessage(`[1,2]`))
		require.False(t, ok)
	})
}

func TestResourceType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "github.com/Amund211/gw2lib/internal/domain.Skill", resourceType[domain.Skill]())
	require.NotEqual(t, resourceType[domain.Skill](), resourceType[domain.Item]())
}
