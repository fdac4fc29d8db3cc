package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
	"github.com/Amund211/gw2lib/internal/client"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/ratelimiting"
)

const usage = `usage: fetch <resource> [all | id ...]

resources: build, account, itemstats, specializations, professions, skills, items
Without ids the id listing of the resource is printed.
GW2_API_KEY is required for account, GW2_LANGUAGE selects the language.`

func parseUint32[I ~uint16 | ~uint32](raw string) (I, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	id := I(value)
	if uint64(id) != value {
		return 0, fmt.Errorf("%s is out of range", raw)
	}
	return id, nil
}

func fetchByIDs[T domain.IDEndpoint[I], I comparable](ctx context.Context, r client.Requester, args []string, parse func(string) (I, error)) (any, error) {
	if len(args) == 0 {
		return client.IDs[T, I](ctx, r)
	}
	if len(args) == 1 && args[0] == "all" {
		return client.All[T, I](ctx, r)
	}

	ids := make([]I, 0, len(args))
	for _, arg := range args {
		for raw := range strings.SplitSeq(arg, ",") {
			id, err := parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 1 {
		return client.Single[T, I](ctx, r, ids[0])
	}
	return client.Many[T, I](ctx, r, ids)
}

func fetch(ctx context.Context, r client.Requester, resource string, args []string) (any, error) {
	switch resource {
	case "build":
		return client.Get[domain.Build](ctx, r)
	case "account":
		return client.Get[domain.Account](ctx, r)
	case "itemstats":
		return fetchByIDs[domain.ItemStats](ctx, r, args, parseUint32[domain.StatsID])
	case "specializations":
		return fetchByIDs[domain.Specialization](ctx, r, args, parseUint32[domain.SpecializationID])
	case "professions":
		return fetchByIDs[domain.Profession](ctx, r, args, func(raw string) (domain.ProfessionID, error) {
			return domain.ProfessionID(raw), nil
		})
	case "skills":
		return fetchByIDs[domain.Skill](ctx, r, args, parseUint32[domain.SkillID])
	case "items":
		return fetchByIDs[domain.Item](ctx, r, args, parseUint32[domain.ItemID])
	}
	return nil, fmt.Errorf("unknown resource %q", resource)
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	opts := []client.Option{client.WithAPIKey(os.Getenv("GW2_API_KEY"))}
	if rawLanguage := os.Getenv("GW2_LANGUAGE"); rawLanguage != "" {
		language, err := domain.ParseLanguage(rawLanguage)
		if err != nil {
			log.Fatalf("Invalid GW2_LANGUAGE: %v", err)
		}
		opts = append(opts, client.WithLanguage(language))
	}

	memoryCache, stop := cache.NewTTLCache(time.Now)
	defer stop()

	c, err := client.New(
		&http.Client{Timeout: 30 * time.Second},
		memoryCache,
		ratelimiting.NewTokenBucketAPILimiter(600, 300, time.Now),
		time.Now,
		time.After,
		opts...,
	)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	value, err := fetch(context.Background(), c.Requester(), os.Args[1], os.Args[2:])
	if err != nil {
		log.Fatalf("Failed to fetch %s: %v", os.Args[1], err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
