// Package retry implements the bounded retry policy for an already-chosen
// logo URL that fails to render: cache-bust the same URL, then fall back to
// a favicon-by-domain service, then give up and show a placeholder. The
// transition function is pure so consumers can drive it from any rendering
// environment.
package retry

import (
	"fmt"
	"net/url"
	"time"
)

// State of one rendered image instance.
type State int

const (
	Initial State = iota
	CacheBust
	ExternalFallback
	GivenUp
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case CacheBust:
		return "cache-bust"
	case ExternalFallback:
		return "external-fallback"
	case GivenUp:
		return "given-up"
	default:
		return "unknown"
	}
}

// Event observed by the consumer.
type Event int

const (
	// EventLoadError fires when the current URL fails to render.
	EventLoadError Event = iota
	// EventLoadOK fires when the current URL renders successfully.
	EventLoadOK
)

// Action tells the consumer what to do after a transition.
type Action int

const (
	// ActionNone: keep the current URL.
	ActionNone Action = iota
	// ActionCacheBust: retry the same URL with a cache-busting query parameter.
	ActionCacheBust
	// ActionExternalFallback: switch to a favicon-by-domain service URL.
	ActionExternalFallback
	// ActionPlaceholder: show the generated placeholder instead of an image.
	ActionPlaceholder
)

// Next is the pure transition function. Only load errors advance the
// machine; GivenUp is terminal and idempotent, so a consumer can never
// trigger a fourth network load.
func Next(s State, e Event) (State, Action) {
	if e != EventLoadError {
		return s, ActionNone
	}

	switch s {
	case Initial:
		return CacheBust, ActionCacheBust
	case CacheBust:
		return ExternalFallback, ActionExternalFallback
	case ExternalFallback:
		return GivenUp, ActionPlaceholder
	default:
		return GivenUp, ActionPlaceholder
	}
}

// CacheBustURL appends a cache-busting query parameter to rawURL, defeating
// a transiently broken CDN cache. Returns rawURL unchanged if it is not a
// valid URL.
func CacheBustURL(rawURL string, now time.Time) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("cb", fmt.Sprintf("%d", now.UnixMilli()))
	u.RawQuery = q.Encode()
	return u.String()
}

// FallbackURL returns the generic favicon-by-domain service URL used by the
// ExternalFallback state.
func FallbackURL(domain string) string {
	return "https://www.google.com/s2/favicons?sz=128&domain=" + url.QueryEscape(domain)
}

// Plan is the serializable retry plan handed to API consumers alongside a
// resolved URL, so thin clients follow the same 3-attempt policy.
type Plan struct {
	CacheBustURL string `json:"cache_bust_url"`
	FallbackURL  string `json:"fallback_url"`
}

// PlanFor builds the retry plan for a resolved URL and its entity domain.
func PlanFor(rawURL, domain string, now time.Time) Plan {
	return Plan{
		CacheBustURL: CacheBustURL(rawURL, now),
		FallbackURL:  FallbackURL(domain),
	}
}
