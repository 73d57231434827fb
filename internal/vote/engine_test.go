package vote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/api"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/cache"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/model"
	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/notify"
)

func okBackend(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Write([]byte(`{}`))
	}))
}

func failBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "vote rejected", http.StatusInternalServerError)
	}))
}

func newEngine(t *testing.T, base string) (*Engine, *cache.Cache, *notify.Center) {
	t.Helper()
	c := cache.New()
	n := notify.New(4, 0)
	e := NewEngine(api.New(base, 2*time.Second, nil), c, n)
	return e, c, n
}

func cached(t *testing.T, c *cache.Cache, ean string) model.Product {
	t.Helper()
	v, ok := c.Get(cache.ProductKey(ean))
	if !ok {
		t.Fatalf("expected cache entry for %s", ean)
	}
	p, ok := v.(model.Product)
	if !ok {
		t.Fatalf("unexpected cache value %T", v)
	}
	return p
}

func TestUpvotePrediction(t *testing.T) {
	srv := okBackend(t, nil)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)
	c.Set(cache.ProductKey("1"), model.Product{EAN: "1", UpVotes: 5, DownVotes: 2})

	if err := e.SetVote(context.Background(), "1", true); err != nil {
		t.Fatalf("setvote: %v", err)
	}
	p := cached(t, c, "1")
	if p.UpVotes != 6 || p.DownVotes != 2 {
		t.Fatalf("expected 6/2, got %d/%d", p.UpVotes, p.DownVotes)
	}
	if p.Vote == nil || !*p.Vote {
		t.Fatalf("expected vote=true, got %v", p.Vote)
	}
}

func TestVoteFlipPrediction(t *testing.T) {
	srv := okBackend(t, nil)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)
	c.Set(cache.ProductKey("1"), model.Product{EAN: "1", UpVotes: 5, DownVotes: 2, Vote: model.Bool(true)})

	if err := e.SetVote(context.Background(), "1", false); err != nil {
		t.Fatalf("setvote: %v", err)
	}
	p := cached(t, c, "1")
	if p.UpVotes != 4 || p.DownVotes != 3 {
		t.Fatalf("expected 4/3, got %d/%d", p.UpVotes, p.DownVotes)
	}
	if p.Vote == nil || *p.Vote {
		t.Fatalf("expected vote=false, got %v", p.Vote)
	}
}

func TestRollbackOnFailure(t *testing.T) {
	srv := failBackend(t)
	defer srv.Close()
	e, c, n := newEngine(t, srv.URL)
	prev := model.Product{EAN: "1", Product: model.Props{"name": "Oats"}, UpVotes: 5, DownVotes: 2}
	c.Set(cache.ProductKey("1"), prev)

	if err := e.SetVote(context.Background(), "1", true); err == nil {
		t.Fatalf("expected error")
	}
	p := cached(t, c, "1")
	if p.UpVotes != 5 || p.DownVotes != 2 || p.Vote != nil {
		t.Fatalf("expected full rollback, got %+v", p)
	}
	if p.Product["name"] != "Oats" {
		t.Fatalf("rollback must restore the entire snapshot")
	}
	select {
	case toast := <-n.C():
		if toast.Title != "Error" || toast.Position != notify.PositionBottom {
			t.Fatalf("unexpected toast: %+v", toast)
		}
		if toast.Visibility != 8*time.Second {
			t.Fatalf("expected 8s toast, got %v", toast.Visibility)
		}
	default:
		t.Fatalf("expected an error toast")
	}
}

func TestDeleteVoteArithmetic(t *testing.T) {
	srv := okBackend(t, nil)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)

	c.Set(cache.ProductKey("up"), model.Product{EAN: "up", UpVotes: 5, DownVotes: 2, Vote: model.Bool(true)})
	if err := e.DeleteVote(context.Background(), "up"); err != nil {
		t.Fatalf("deletevote: %v", err)
	}
	p := cached(t, c, "up")
	if p.UpVotes != 4 || p.DownVotes != 2 || p.Vote != nil {
		t.Fatalf("expected 4/2/nil, got %+v", p)
	}

	c.Set(cache.ProductKey("down"), model.Product{EAN: "down", UpVotes: 5, DownVotes: 2, Vote: model.Bool(false)})
	if err := e.DeleteVote(context.Background(), "down"); err != nil {
		t.Fatalf("deletevote: %v", err)
	}
	p = cached(t, c, "down")
	if p.UpVotes != 5 || p.DownVotes != 1 || p.Vote != nil {
		t.Fatalf("expected 5/1/nil, got %+v", p)
	}
}

func TestDeleteVoteWithoutPriorVote(t *testing.T) {
	srv := okBackend(t, nil)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)
	c.Set(cache.ProductKey("1"), model.Product{EAN: "1", UpVotes: 5, DownVotes: 2})
	if err := e.DeleteVote(context.Background(), "1"); err != nil {
		t.Fatalf("deletevote: %v", err)
	}
	p := cached(t, c, "1")
	if p.UpVotes != 5 || p.DownVotes != 2 || p.Vote != nil {
		t.Fatalf("counters must be unchanged, got %+v", p)
	}
}

func TestUncachedKeySkipsPredictionButSends(t *testing.T) {
	var calls atomic.Int64
	srv := okBackend(t, &calls)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)

	if err := e.SetVote(context.Background(), "ghost", true); err != nil {
		t.Fatalf("setvote: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one network call, got %d", calls.Load())
	}
	if _, ok := c.Get(cache.ProductKey("ghost")); ok {
		t.Fatalf("no prediction must be written for an uncached key")
	}
	if c.Fresh(cache.ProductKey("ghost"), time.Hour) {
		t.Fatalf("key must not be fresh after mutation")
	}
}

func TestMutationInvalidatesOnSuccess(t *testing.T) {
	srv := okBackend(t, nil)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)
	k := cache.ProductKey("1")
	c.Set(k, model.Product{EAN: "1", UpVotes: 1})
	if err := e.SetVote(context.Background(), "1", true); err != nil {
		t.Fatalf("setvote: %v", err)
	}
	if c.Fresh(k, time.Hour) {
		t.Fatalf("expected key invalidated after settlement")
	}
}

func TestMutationInvalidatesOnFailure(t *testing.T) {
	srv := failBackend(t)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)
	k := cache.ProductKey("1")
	c.Set(k, model.Product{EAN: "1", UpVotes: 1})
	_ = e.SetVote(context.Background(), "1", true)
	if c.Fresh(k, time.Hour) {
		t.Fatalf("expected key invalidated even on failure")
	}
}

func TestPredictCancelsInFlightRefresh(t *testing.T) {
	srv := okBackend(t, nil)
	defer srv.Close()
	e, c, _ := newEngine(t, srv.URL)
	k := cache.ProductKey("1")
	c.Set(k, model.Product{EAN: "1", UpVotes: 1})

	rctx, cancel := context.WithCancel(context.Background())
	c.TrackPending(k, cancel)
	if err := e.SetVote(context.Background(), "1", true); err != nil {
		t.Fatalf("setvote: %v", err)
	}
	select {
	case <-rctx.Done():
	default:
		t.Fatalf("expected in-flight refresh cancelled by predict phase")
	}
}

func TestPredictSetTable(t *testing.T) {
	cases := []struct {
		name     string
		prev     model.Product
		like     bool
		up, down int64
	}{
		{"fresh upvote", model.Product{UpVotes: 5, DownVotes: 2}, true, 6, 2},
		{"fresh downvote", model.Product{UpVotes: 5, DownVotes: 2}, false, 5, 3},
		{"repeat upvote", model.Product{UpVotes: 5, DownVotes: 2, Vote: model.Bool(true)}, true, 6, 2},
		{"flip up to down", model.Product{UpVotes: 5, DownVotes: 2, Vote: model.Bool(true)}, false, 4, 3},
		{"flip down to up", model.Product{UpVotes: 5, DownVotes: 2, Vote: model.Bool(false)}, true, 6, 1},
	}
	for _, tc := range cases {
		got := predictSet(tc.prev, tc.like)
		if got.UpVotes != tc.up || got.DownVotes != tc.down {
			t.Fatalf("%s: expected %d/%d, got %d/%d", tc.name, tc.up, tc.down, got.UpVotes, got.DownVotes)
		}
		if got.Vote == nil || *got.Vote != tc.like {
			t.Fatalf("%s: expected vote=%v", tc.name, tc.like)
		}
	}
}
