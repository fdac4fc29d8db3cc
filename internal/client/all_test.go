package client_test

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/Amund211/gw2lib/internal/client"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/stretchr/testify/require"
)

func itemsBody(ids ...string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = `{"id":` + id + `,"name":"item ` + id + `","type":"Trophy","rarity":"Basic","flags":[]}`
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestAll(t *testing.T) {
	t.Parallel()

	t.Run("ids=all when supported", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, func(req *http.Request) (*http.Response, error) {
			return respond(200, statsBody("1", "2", "3"), http.Header{"X-Result-Total": {"3"}}), nil
		})

		stats, err := client.All[domain.ItemStats, domain.StatsID](t.Context(), s.client.Requester())
		require.NoError(t, err)
		require.Equal(t, []domain.StatsID{1, 2, 3}, statsIDs(stats))
		require.Equal(t, []string{host + "/v2/itemstats?lang=en&ids=all"}, s.httpClient.requestedURLs())

		// Every entity was cached
		for _, id := range []domain.StatsID{1, 2, 3} {
			_, ok := client.TryGet[domain.ItemStats](t.Context(), s.client.Requester(), id)
			require.True(t, ok)
		}
	})

	t.Run("id listing then many when ids=all is unsupported", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/v2/items", req.URL.Path)
			ids := req.URL.Query().Get("ids")
			if ids == "" {
				return respond(200, `[10,20,30]`, nil), nil
			}
			return respond(200, itemsBody(strings.Split(ids, ",")...), nil), nil
		})

		items, err := client.All[domain.Item, domain.ItemID](t.Context(), s.client.Requester())
		require.NoError(t, err)
		require.Len(t, items, 3)
		require.Equal(
			t,
			[]string{
				host + "/v2/items?lang=en",
				host + "/v2/items?lang=en&ids=10,20,30",
			},
			s.httpClient.requestedURLs(),
		)

		// Second time everything is cached
		items, err = client.All[domain.Item, domain.ItemID](t.Context(), s.client.Requester())
		require.NoError(t, err)
		require.Len(t, items, 3)
		require.Len(t, s.httpClient.requestedURLs(), 2)
	})

	t.Run("ids=all on unsupported endpoint", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, func(req *http.Request) (*http.Response, error) {
			t.Fatal("no request should be sent")
			return nil, nil
		})

		_, err := client.AllByIDsAll[domain.Item, domain.ItemID](t.Context(), s.client.Requester())
		require.ErrorIs(t, err, domain.ErrUnsupportedEndpointQuery)
	})

	t.Run("requesting ids explicitly", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, func(req *http.Request) (*http.Response, error) {
			ids := req.URL.Query().Get("ids")
			if ids == "" {
				return respond(200, `[1,2]`, nil), nil
			}
			return respond(200, statsBody(strings.Split(ids, ",")...), nil), nil
		})

		stats, err := client.AllByRequestingIDs[domain.ItemStats, domain.StatsID](t.Context(), s.client.Requester())
		require.NoError(t, err)
		require.Equal(t, []domain.StatsID{1, 2}, statsIDs(stats))
		require.Equal(
			t,
			[]string{
				host + "/v2/itemstats?lang=en",
				host + "/v2/itemstats?lang=en&ids=1,2",
			},
			s.httpClient.requestedURLs(),
		)
	})
}

func TestPaging(t *testing.T) {
	t.Parallel()

	pagedHandler := func(total int) func(req *http.Request) (*http.Response, error) {
		return func(req *http.Request) (*http.Response, error) {
			page, err := strconv.Atoi(req.URL.Query().Get("page"))
			if err != nil {
				return respond(400, "bad page", nil), nil
			}
			pageSize, err := strconv.Atoi(req.URL.Query().Get("page_size"))
			if err != nil {
				return respond(400, "bad page size", nil), nil
			}

			var ids []string
			for id := page*pageSize + 1; id <= min(total, (page+1)*pageSize); id++ {
				ids = append(ids, strconv.Itoa(id))
			}
			return respond(200, statsBody(ids...), http.Header{"X-Result-Total": {strconv.Itoa(total)}}), nil
		}
	}

	t.Run("single page", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, pagedHandler(450))

		stats, total, err := client.Page[domain.ItemStats](t.Context(), s.client.Requester(), 2, 200)
		require.NoError(t, err)
		require.Equal(t, 450, total)
		require.Len(t, stats, 50)
		require.Equal(t, []string{host + "/v2/itemstats?lang=en&page=2&page_size=200"}, s.httpClient.requestedURLs())
	})

	t.Run("all pages", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, pagedHandler(450))

		stats, err := client.AllByPaging[domain.ItemStats](t.Context(), s.client.Requester())
		require.NoError(t, err)
		require.Equal(t, idRange(1, 450), statsIDs(stats))
		require.Equal(
			t,
			[]string{
				host + "/v2/itemstats?lang=en&page=0&page_size=200",
				host + "/v2/itemstats?lang=en&page=1&page_size=200",
				host + "/v2/itemstats?lang=en&page=2&page_size=200",
			},
			s.httpClient.requestedURLs(),
		)

		// Pages bypass the cache
		_, ok := client.TryGet[domain.ItemStats](t.Context(), s.client.Requester(), domain.StatsID(1))
		require.False(t, ok)
	})

	t.Run("fewer items than a page", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, pagedHandler(20))

		stats, err := client.AllByPaging[domain.ItemStats](t.Context(), s.client.Requester())
		require.NoError(t, err)
		require.Len(t, stats, 20)
		require.Len(t, s.httpClient.requestedURLs(), 1)
	})

	t.Run("unpaged endpoint", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, pagedHandler(0))

		_, _, err := client.Page[domain.Profession](t.Context(), s.client.Requester(), 0, 200)
		require.ErrorIs(t, err, domain.ErrUnsupportedEndpointQuery)
		require.Empty(t, s.httpClient.requestedURLs())
	})

	t.Run("page size out of range", func(t *testing.T) {
		t.Parallel()

		s := newTestSetup(t, pagedHandler(0))

		_, _, err := client.Page[domain.ItemStats](t.Context(), s.client.Requester(), 0, 201)
		require.ErrorIs(t, err, domain.ErrUnsupportedEndpointQuery)
	})
}
