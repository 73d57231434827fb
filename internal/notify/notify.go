// Package notify carries transient user-visible notifications from the data
// layer to whatever renders them.
package notify

import (
	"time"

	"github.com/NutriCheck-Fiicode-malloc-team/NutriCheck-Mobile/internal/obs"
)

// Positions and types understood by the rendering layer.
const (
	PositionBottom = "bottom"
	TypeToast      = "customToast"
)

// DefaultVisibility is how long an error toast stays on screen.
const DefaultVisibility = 8 * time.Second

// Notification is one transient message.
type Notification struct {
	Type       string
	Title      string
	Message    string
	Position   string
	Visibility time.Duration
}

// Center fans notifications out over a buffered channel. Publishing never
// blocks the mutation path; when no consumer keeps up the message is dropped
// and logged instead.
type Center struct {
	ch         chan Notification
	visibility time.Duration
}

// New returns a Center with the given channel buffer. visibility <= 0 falls
// back to DefaultVisibility.
func New(buffer int, visibility time.Duration) *Center {
	if buffer <= 0 {
		buffer = 16
	}
	if visibility <= 0 {
		visibility = DefaultVisibility
	}
	return &Center{ch: make(chan Notification, buffer), visibility: visibility}
}

// C is the consumer side of the center.
func (c *Center) C() <-chan Notification { return c.ch }

// Publish enqueues n without blocking.
func (c *Center) Publish(n Notification) {
	select {
	case c.ch <- n:
	default:
		obs.Logger.Warn("notification_dropped", "title", n.Title, "message", n.Message)
	}
}

// Error publishes the standard failure toast: bottom-anchored, titled
// "Error", showing the underlying error message.
func (c *Center) Error(err error) {
	c.Publish(Notification{
		Type:       TypeToast,
		Title:      "Error",
		Message:    err.Error(),
		Position:   PositionBottom,
		Visibility: c.visibility,
	})
}
