// Package browser owns the headless Chrome process and hands out one isolated
// browsing context per acquisition.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout means a navigation or element wait exceeded its bound.
	ErrTimeout = errors.New("browser operation timed out")
	// ErrUnavailable means the browser engine could not be started or reached.
	ErrUnavailable = errors.New("browser engine unavailable")
	// ErrClosed is returned by Acquire after the engine was shut down.
	ErrClosed = errors.New("browser engine is closed")
)

// DefaultNavigationTimeout bounds every navigation and element wait.
const DefaultNavigationTimeout = 90 * time.Second

// ResourceType names a class of sub-resource the filter can block. Values
// match the Chrome DevTools resource types.
type ResourceType string

const (
	Document   ResourceType = "Document"
	Stylesheet ResourceType = "Stylesheet"
	Image      ResourceType = "Image"
	Media      ResourceType = "Media"
	Font       ResourceType = "Font"
	Script     ResourceType = "Script"
)

// Profile is the identity and filter applied to one session.
type Profile struct {
	UserAgent         string
	NavigationTimeout time.Duration
	Blocked           []ResourceType
}

// DefaultProfile blocks stylesheets, fonts and images and waits up to 90s.
func DefaultProfile() Profile {
	return Profile{
		NavigationTimeout: DefaultNavigationTimeout,
		Blocked:           []ResourceType{Stylesheet, Font, Image},
	}
}

// Page is what adapters drive. Every call is bounded by the session's
// navigation timeout; exceeding it yields an error wrapping ErrTimeout.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// Exists reports whether selector matches now, without waiting.
	Exists(ctx context.Context, selector string) (bool, error)
	// WaitFor waits until selector matches, at most timeout (zero means the
	// session's navigation timeout).
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// OuterHTML returns the outer HTML of the first element matching selector.
	OuterHTML(ctx context.Context, selector string) (string, error)
	// Fill sets the value of an input.
	Fill(ctx context.Context, selector, value string) error
	// Click clicks an element without waiting for a navigation.
	Click(ctx context.Context, selector string) error
	// Submit clicks an element and waits for the navigation it triggers.
	Submit(ctx context.Context, selector string) error
	// Location returns the current URL.
	Location(ctx context.Context) (string, error)
}

// Session is a Page backed by one isolated browsing context.
type Session interface {
	Page
	// Close disposes of the browsing context. It is idempotent.
	Close() error
}

// Provider hands out sessions. Every acquired session must be released on
// every exit path.
type Provider interface {
	Acquire(ctx context.Context, p Profile) (Session, error)
	Release(s Session)
}
