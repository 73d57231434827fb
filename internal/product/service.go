// Package product implements the remote product store: fetch and search
// against the internal backend and the Open Food Facts catalog, with the
// cached read path on top.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/api"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/cache"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/model"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/obs"
)

// Service exposes the read path. All remote operations are idempotent GETs.
type Service struct {
	api      *api.Client
	cache    *cache.Cache
	extBase  string
	freshFor time.Duration
}

// New builds a Service. extBase is the third-party catalog base URL; freshFor
// is the freshness window of cached product snapshots.
func New(client *api.Client, c *cache.Cache, extBase string, freshFor time.Duration) *Service {
	return &Service{api: client, cache: c, extBase: extBase, freshFor: freshFor}
}

// productResponse is the backend envelope for one product. The catalog record
// is nested under body; upvote state sits at the top level.
type productResponse struct {
	EAN       string `json:"ean"`
	UpVotes   int64  `json:"upVotes"`
	DownVotes int64  `json:"downVotes"`
	Vote      *bool  `json:"vote"`
	Body      struct {
		Product model.Props `json:"product"`
	} `json:"body"`
}

// FetchProduct GETs one product from the internal backend. The nested catalog
// record is lifted to Product.Product, nil when the backend has none, and the
// result always carries the requested ean even if the response omits it.
func (s *Service) FetchProduct(ctx context.Context, ean string) (model.Product, error) {
	var resp productResponse
	if err := s.api.GetJSON(ctx, "/product/"+url.PathEscape(ean), &resp); err != nil {
		return model.Product{}, err
	}
	return model.Product{
		EAN:       ean,
		Product:   resp.Body.Product,
		UpVotes:   resp.UpVotes,
		DownVotes: resp.DownVotes,
		Vote:      resp.Vote,
	}, nil
}

// FetchExternalProduct GETs one record from the third-party catalog. The
// schema is owned by the third party, so the body stays untyped.
func (s *Service) FetchExternalProduct(ctx context.Context, ean string) (map[string]any, error) {
	var out map[string]any
	path := s.extBase + "/api/v2/product/" + url.PathEscape(ean)
	if err := s.api.GetJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProducts runs a search on the internal backend and returns the raw
// result list.
func (s *Service) SearchProducts(ctx context.Context, query string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := s.api.GetJSON(ctx, "/product/search/"+url.PathEscape(query), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchExternalProducts runs a search on the third-party catalog. Always hits
// the network; external search results are never considered fresh.
func (s *Service) SearchExternalProducts(ctx context.Context, query string) (map[string]any, error) {
	q := url.Values{}
	q.Set("search_terms", query)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	var out map[string]any
	if err := s.api.GetJSON(ctx, s.extBase+"/cgi/search.pl?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchProducts fetches every ean concurrently and fails fast: any single
// failure fails the batch with no partial result.
func (s *Service) FetchProducts(ctx context.Context, eans []string) ([]model.Product, error) {
	g, gctx := errgroup.WithContext(ctx)
	out := make([]model.Product, len(eans))
	for i, ean := range eans {
		i, ean := i, ean
		g.Go(func() error {
			p, err := s.FetchProduct(gctx, ean)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchExternalProducts is the batch variant of FetchExternalProduct, with the
// same fail-fast contract as FetchProducts.
func (s *Service) FetchExternalProducts(ctx context.Context, eans []string) ([]map[string]any, error) {
	g, gctx := errgroup.WithContext(ctx)
	out := make([]map[string]any, len(eans))
	for i, ean := range eans {
		i, ean := i, ean
		g.Go(func() error {
			rec, err := s.FetchExternalProduct(gctx, ean)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct is the cached read path. A snapshot younger than the freshness
// window is served as-is; otherwise the product is refetched and the cache
// overwritten. The refresh is registered with the cache so a vote mutation can
// cancel it; a cancelled refresh falls back to the snapshot the mutation wrote.
func (s *Service) GetProduct(ctx context.Context, ean string) (model.Product, error) {
	k := cache.ProductKey(ean)
	if s.cache.Fresh(k, s.freshFor) {
		if v, ok := s.cache.Get(k); ok {
			if p, ok := v.(model.Product); ok {
				return p, nil
			}
		}
	}
	rctx, cancel := context.WithCancel(ctx)
	s.cache.TrackPending(k, cancel)
	defer s.cache.DonePending(k)
	defer cancel()

	p, err := s.FetchProduct(rctx, ean)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			// A mutation pre-empted this refresh; its prediction is the
			// freshest snapshot we have.
			if v, ok := s.cache.Get(k); ok {
				if prev, ok := v.(model.Product); ok {
					obs.Logger.Info("refresh_superseded", "ean", ean)
					return prev, nil
				}
			}
		}
		return model.Product{}, err
	}
	s.cache.Set(k, p)
	return p, nil
}

// GetExternalProduct is the cached read path for third-party records, sharing
// the product freshness window.
func (s *Service) GetExternalProduct(ctx context.Context, ean string) (map[string]any, error) {
	k := cache.ExternalProductKey(ean)
	if s.cache.Fresh(k, s.freshFor) {
		if v, ok := s.cache.Get(k); ok {
			if rec, ok := v.(map[string]any); ok {
				return rec, nil
			}
		}
	}
	rec, err := s.FetchExternalProduct(ctx, ean)
	if err != nil {
		return nil, err
	}
	s.cache.Set(k, rec)
	return rec, nil
}
