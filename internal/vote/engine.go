// Package vote implements the optimistic vote mutation engine. Each mutation
// runs four phases: predict, send, reconcile, resynchronize.
package vote

import (
	"context"
	"net/url"

	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/api"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/cache"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/model"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/notify"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/obs"
)

// Engine applies client-side vote predictions to the shared cache, sends the
// mutation, rolls the cache back on failure, and always invalidates afterward
// so the next read refetches authoritative state.
type Engine struct {
	api    *api.Client
	cache  *cache.Cache
	notify *notify.Center
}

func NewEngine(client *api.Client, c *cache.Cache, n *notify.Center) *Engine {
	return &Engine{api: client, cache: c, notify: n}
}

// snapshot reads the current product snapshot for key, if one is cached.
func (e *Engine) snapshot(k cache.Key) (model.Product, bool) {
	v, ok := e.cache.Get(k)
	if !ok {
		return model.Product{}, false
	}
	p, ok := v.(model.Product)
	return p, ok
}

// predictSet computes the counters after voting like on prev.
func predictSet(prev model.Product, like bool) model.Product {
	next := prev
	if like {
		next.UpVotes = prev.UpVotes + 1
	} else if prev.Vote != nil && *prev.Vote {
		next.UpVotes = prev.UpVotes - 1
	}
	if !like {
		next.DownVotes = prev.DownVotes + 1
	} else if prev.Vote != nil && !*prev.Vote {
		next.DownVotes = prev.DownVotes - 1
	}
	next.Vote = model.Bool(like)
	return next
}

// predictDelete computes the counters after withdrawing the current vote.
func predictDelete(prev model.Product) model.Product {
	next := prev
	if prev.Vote != nil {
		if *prev.Vote {
			next.UpVotes = prev.UpVotes - 1
		} else {
			next.DownVotes = prev.DownVotes - 1
		}
	}
	next.Vote = nil
	return next
}

// SetVote records an up or down vote for ean.
//
// Predict: cancel any in-flight refresh for the key so a stale refetch cannot
// overwrite the prediction, then write the predicted snapshot, keeping the
// previous one as rollback context. An uncached key skips the prediction but
// still sends and still resynchronizes.
//
// Reconcile: on failure the entire previous snapshot is restored, not just
// the counters, so concurrent unrelated updates between predict and failure
// are clobbered. Known, accepted race; resynchronization repairs any drift.
func (e *Engine) SetVote(ctx context.Context, ean string, like bool) error {
	k := cache.ProductKey(ean)
	e.cache.CancelPending(k)
	prev, had := e.snapshot(k)
	if had {
		e.cache.Set(k, predictSet(prev, like))
	}

	err := e.api.Post(ctx, "/product/vote/"+url.PathEscape(ean), model.VoteRequest{Vote: like})
	if err != nil {
		if had {
			e.cache.Set(k, prev)
		}
		e.notify.Error(err)
		obs.Logger.Warn("vote_failed", "ean", ean, "like", like, "error", err)
	}
	e.cache.Invalidate(k)
	return err
}

// DeleteVote withdraws the current user's vote for ean. Same phases and same
// rollback and resynchronize rules as SetVote.
func (e *Engine) DeleteVote(ctx context.Context, ean string) error {
	k := cache.ProductKey(ean)
	e.cache.CancelPending(k)
	prev, had := e.snapshot(k)
	if had {
		e.cache.Set(k, predictDelete(prev))
	}

	err := e.api.Delete(ctx, "/product/vote/"+url.PathEscape(ean))
	if err != nil {
		if had {
			e.cache.Set(k, prev)
		}
		e.notify.Error(err)
		obs.Logger.Warn("unvote_failed", "ean", ean, "error", err)
	}
	e.cache.Invalidate(k)
	return err
}
