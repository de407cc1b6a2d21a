// Package window provides the test window the live engine drives: a
// separate top-level browser window, and a probe telling whether its current
// page can still be inspected.
package window

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Access is the result of probing a window.
type Access int

const (
	// Accessible means the page is same-origin and the DOM can be driven.
	Accessible Access = iota
	// CrossOrigin means the window is open but its page is off-limits.
	CrossOrigin
	// Closed means the window is gone.
	Closed
)

func (a Access) String() string {
	switch a {
	case Accessible:
		return "accessible"
	case CrossOrigin:
		return "cross-origin"
	case Closed:
		return "closed"
	}
	return "unknown"
}

var (
	ErrClosed          = errors.New("test window closed")
	ErrElementNotFound = errors.New("element not found")
)

// Window is one spawned test window. All DOM methods assume the caller has
// probed Accessible first.
type Window interface {
	// Placeholder replaces the window content with static html.
	Placeholder(ctx context.Context, html string) error
	// Navigate starts loading url and returns once the request is issued.
	Navigate(ctx context.Context, url string) error
	Probe(ctx context.Context) Access
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Visible(ctx context.Context, selector string) (bool, error)
	// Done is closed when the user closes the window.
	Done() <-chan struct{}
	Close() error
}

// Opener acquires a new test window.
type Opener interface {
	Open(ctx context.Context) (Window, error)
}

// Origin returns scheme://host[:port] of raw, or "" when raw has no host.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// SameOrigin reports whether page may be inspected by a host running on
// hostOrigin. Blank pages inherit the host origin; an empty hostOrigin
// allows everything.
func SameOrigin(hostOrigin, page string) bool {
	if hostOrigin == "" {
		return true
	}
	if page == "" || strings.HasPrefix(page, "about:") {
		return true
	}
	host := Origin(hostOrigin)
	if host == "" {
		host = strings.ToLower(strings.TrimRight(hostOrigin, "/"))
	}
	return Origin(page) == host
}
