package resolver

import (
	"context"
	"time"

	"github.com/dubinc/dub-sub007/internal/models"
)

type Action int

const (
	ActionRedirect    Action = iota // 302 to Target
	ActionHome                      // 302 to the service home page
	ActionPage                      // render the internal page named by Page
	ActionProxy                     // serve Target in place of the short link
	ActionRateLimited               // 429 text response
)

// Decision is the single terminal outcome of a resolved request.
type Decision struct {
	Action      Action
	Target      string // destination URL for redirect/proxy, deep link for the bounce page
	Page        string // template name for ActionPage
	RecordClick bool
	Rule        string // name of the matched rule, for logging
}

// Device is the user-agent classification consumed by the routing rules.
type Device struct {
	OS      string // "ios", "android", or the raw OS family
	Browser string
	Bot     bool
}

// Input carries everything the decision engine needs; it is a pure value so
// the rule ordering can be tested without HTTP plumbing.
type Input struct {
	Domain     string
	Key        string
	Link       *models.LinkRecord // nil when resolution came up empty
	Inspect    bool
	PasswordOK bool // pw param or session unlock already verified
	NoTrack    bool
	Device     Device
	Country    string // ISO 3166-1 alpha-2, may be empty
	IP         string
	Referrer   string
	Now        time.Time
}

// Guard is consulted for the small allowlist of canonical demo links.
type Guard interface {
	Protected(domain, key string) bool
	Allow(ctx context.Context, ip, domain, key, referrer string) bool
}

// Engine evaluates an ordered list of predicate/action rules; the first rule
// whose predicate holds produces the terminal decision. Compliance checks
// (abuse, password, ban, expiry) come before any click-eligible routing, so a
// denied request is never counted and never leaks its destination.
type Engine struct {
	guard    Guard // nil disables the abuse rule
	deepLink func(string) string
	rules    []rule
}

type rule struct {
	name  string
	match func(ctx context.Context, in Input) bool
	apply func(in Input) Decision
}

func NewEngine(guard Guard) *Engine {
	e := &Engine{guard: guard, deepLink: DeepLink}
	e.rules = []rule{
		{
			name: "abuse-guard",
			match: func(ctx context.Context, in Input) bool {
				return e.guard != nil && e.guard.Protected(in.Domain, in.Key) &&
					!e.guard.Allow(ctx, in.IP, in.Domain, in.Key, in.Referrer)
			},
			apply: func(in Input) Decision {
				return Decision{Action: ActionRateLimited}
			},
		},
		{
			name: "not-found",
			match: func(_ context.Context, in Input) bool {
				return in.Link == nil
			},
			apply: func(in Input) Decision {
				return Decision{Action: ActionHome}
			},
		},
		{
			name: "inspect",
			match: func(_ context.Context, in Input) bool {
				return in.Inspect && in.Link.Password == ""
			},
			apply: func(in Input) Decision {
				return Decision{Action: ActionPage, Page: "inspect.html"}
			},
		},
		{
			name: "password",
			match: func(_ context.Context, in Input) bool {
				return in.Link.Password != "" && !in.PasswordOK
			},
			apply: func(in Input) Decision {
				return Decision{Action: ActionPage, Page: "password.html"}
			},
		},
		{
			name: "banned",
			match: func(_ context.Context, in Input) bool {
				return in.Link.Banned()
			},
			apply: func(in Input) Decision {
				return Decision{Action: ActionPage, Page: "banned.html"}
			},
		},
		{
			name: "expired",
			match: func(_ context.Context, in Input) bool {
				return in.Link.Expired(in.Now)
			},
			apply: func(in Input) Decision {
				return Decision{Action: ActionPage, Page: "expired.html"}
			},
		},
		// Everything below is a normal delivery and counts as a click unless
		// the request carries the no-track signal.
		{
			name: "cloak",
			match: func(_ context.Context, in Input) bool {
				return in.Device.Bot && in.Link.Proxy
			},
			apply: func(in Input) Decision {
				return clicked(in, Decision{Action: ActionPage, Page: "cloak.html"})
			},
		},
		{
			name: "rewrite",
			match: func(_ context.Context, in Input) bool {
				return in.Link.Rewrite
			},
			apply: func(in Input) Decision {
				if in.Link.Iframeable {
					return clicked(in, Decision{Action: ActionPage, Page: "rewrite.html", Target: in.Link.URL})
				}
				return clicked(in, Decision{Action: ActionProxy, Target: in.Link.URL})
			},
		},
		{
			name: "ios",
			match: func(_ context.Context, in Input) bool {
				return in.Device.OS == "ios" && (in.Link.IOS != "" || e.deepLink(in.Link.URL) != in.Link.URL)
			},
			apply: func(in Input) Decision {
				if in.Link.IOS != "" {
					return clicked(in, Decision{Action: ActionRedirect, Target: in.Link.IOS})
				}
				// Mobile browsers block raw custom-scheme redirects from
				// server responses; the bounce page triggers the handoff
				// from client-side script instead.
				return clicked(in, Decision{Action: ActionPage, Page: "deeplink.html", Target: e.deepLink(in.Link.URL)})
			},
		},
		{
			name: "android",
			match: func(_ context.Context, in Input) bool {
				return in.Device.OS == "android" && (in.Link.Android != "" || e.deepLink(in.Link.URL) != in.Link.URL)
			},
			apply: func(in Input) Decision {
				if in.Link.Android != "" {
					return clicked(in, Decision{Action: ActionRedirect, Target: in.Link.Android})
				}
				return clicked(in, Decision{Action: ActionPage, Page: "deeplink.html", Target: e.deepLink(in.Link.URL)})
			},
		},
		{
			name: "geo",
			match: func(_ context.Context, in Input) bool {
				_, ok := in.Link.Geo[in.Country]
				return in.Country != "" && ok
			},
			apply: func(in Input) Decision {
				return clicked(in, Decision{Action: ActionRedirect, Target: in.Link.Geo[in.Country]})
			},
		},
		{
			name: "default",
			match: func(_ context.Context, in Input) bool {
				return true
			},
			apply: func(in Input) Decision {
				return clicked(in, Decision{Action: ActionRedirect, Target: in.Link.URL})
			},
		},
	}
	return e
}

// Decide evaluates the rules in priority order and returns the decision of
// the first match. The trailing catch-all guarantees a terminal action.
func (e *Engine) Decide(ctx context.Context, in Input) Decision {
	for _, r := range e.rules {
		if r.match(ctx, in) {
			d := r.apply(in)
			d.Rule = r.name
			return d
		}
	}
	// Unreachable: the default rule always matches.
	return Decision{Action: ActionHome, Rule: "default"}
}

func clicked(in Input, d Decision) Decision {
	d.RecordClick = !in.NoTrack
	return d
}
