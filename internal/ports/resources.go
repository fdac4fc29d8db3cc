package ports

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Amund211/gw2lib/internal/client"
	"github.com/Amund211/gw2lib/internal/domain"
)

var errInvalidID = errors.New("invalid id")

// resourceRoute serves one id-addressable resource type
type resourceRoute interface {
	ids(ctx context.Context, r client.Requester) (any, error)
	many(ctx context.Context, r client.Requester, rawIDs []string) (any, error)
	all(ctx context.Context, r client.Requester) (any, error)
	single(ctx context.Context, r client.Requester, rawID string) (any, error)
	page(ctx context.Context, r client.Requester, page int, pageSize int) (any, int, error)
}

type idRoute[T domain.IDEndpoint[I], I comparable] struct {
	parseID func(raw string) (I, error)
}

func (route idRoute[T, I]) ids(ctx context.Context, r client.Requester) (any, error) {
	return client.IDs[T, I](ctx, r)
}

func (route idRoute[T, I]) many(ctx context.Context, r client.Requester, rawIDs []string) (any, error) {
	ids := make([]I, 0, len(rawIDs))
	for _, rawID := range rawIDs {
		id, err := route.parseID(rawID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return client.Many[T, I](ctx, r, ids)
}

func (route idRoute[T, I]) all(ctx context.Context, r client.Requester) (any, error) {
	return client.All[T, I](ctx, r)
}

func (route idRoute[T, I]) single(ctx context.Context, r client.Requester, rawID string) (any, error) {
	id, err := route.parseID(rawID)
	if err != nil {
		return nil, err
	}
	return client.Single[T, I](ctx, r, id)
}

func (route idRoute[T, I]) page(ctx context.Context, r client.Requester, page int, pageSize int) (any, int, error) {
	return client.Page[T](ctx, r, page, pageSize)
}

func parseNumericID[I ~uint16 | ~uint32](raw string) (I, error) {
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errInvalidID, raw)
	}
	id := I(value)
	if uint64(id) != value {
		return 0, fmt.Errorf("%w: %s out of range", errInvalidID, raw)
	}
	return id, nil
}

func parseStringID[I ~string](raw string) (I, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", errInvalidID)
	}
	return I(raw), nil
}

// resourceRoutes maps the last path element of each endpoint to its route
func resourceRoutes() map[string]resourceRoute {
	return map[string]resourceRoute{
		"itemstats":       idRoute[domain.ItemStats, domain.StatsID]{parseID: parseNumericID[domain.StatsID]},
		"specializations": idRoute[domain.Specialization, domain.SpecializationID]{parseID: parseNumericID[domain.SpecializationID]},
		"professions":     idRoute[domain.Profession, domain.ProfessionID]{parseID: parseStringID[domain.ProfessionID]},
		"skills":          idRoute[domain.Skill, domain.SkillID]{parseID: parseNumericID[domain.SkillID]},
		"items":           idRoute[domain.Item, domain.ItemID]{parseID: parseNumericID[domain.ItemID]},
	}
}
