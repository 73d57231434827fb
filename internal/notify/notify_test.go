package notify

import (
	"errors"
	"testing"
	"time"
)

func TestErrorToastShape(t *testing.T) {
	c := New(1, 0)
	c.Error(errors.New("boom"))
	select {
	case n := <-c.C():
		if n.Title != "Error" || n.Message != "boom" {
			t.Fatalf("unexpected toast: %+v", n)
		}
		if n.Position != PositionBottom || n.Type != TypeToast {
			t.Fatalf("unexpected anchor/type: %+v", n)
		}
		if n.Visibility != 8*time.Second {
			t.Fatalf("expected 8s visibility, got %v", n.Visibility)
		}
	default:
		t.Fatalf("expected a notification")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	c := New(1, time.Second)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			c.Error(errors.New("overflow"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on full buffer")
	}
}

func TestVisibilityOverride(t *testing.T) {
	c := New(1, 100*time.Millisecond)
	c.Error(errors.New("x"))
	n := <-c.C()
	if n.Visibility != 100*time.Millisecond {
		t.Fatalf("expected configured visibility, got %v", n.Visibility)
	}
}
