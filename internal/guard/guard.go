// Package guard decides what happens when the user navigates to a view.
package guard

import (
	"context"
	"log"

	"portfolio-client/internal/policy/engine"
	"portfolio-client/internal/session/domain"
	"portfolio-client/internal/session/service"
	userdomain "portfolio-client/internal/user/domain"
)

// Action is the outcome of a navigation attempt.
type Action int

const (
	// Block renders nothing until the session manager is initialized.
	Block Action = iota
	// Redirect sends the user to Location.
	Redirect
	// Render shows the requested view.
	Render
)

func (a Action) String() string {
	switch a {
	case Block:
		return "block"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is what the guard decided for one path.
type Decision struct {
	Action Action
	// Path is the cleaned requested path.
	Path string
	// Location is the redirect target.
	Location string
	// From is the attempted path remembered on a redirect to login.
	From string
	// Route is the matched view; NotFound is set when nothing matched.
	Route    Route
	Params   map[string]string
	NotFound bool
}

// Navigation returns the navigation that carries out a redirect decision.
func (d Decision) Navigation() service.Navigation {
	return service.Navigation{To: d.Location, Replace: true, From: d.From}
}

// Session is the read-only view of the session manager the guard needs.
type Session interface {
	State() domain.State
	CurrentUser() *userdomain.User
}

// Guard evaluates navigation attempts against the session state and the route policy.
// It holds no state of its own.
type Guard struct {
	session Session
	policy  engine.Evaluator
}

// New returns a Guard. A nil policy uses the built-in rule.
func New(session Session, policy engine.Evaluator) *Guard {
	return &Guard{session: session, policy: policy}
}

// Evaluate decides what to do with a navigation to path.
func (g *Guard) Evaluate(ctx context.Context, path string) Decision {
	path = engine.CleanPath(path)
	d := Decision{Path: path}
	if r, params, ok := Match(path); ok {
		d.Route, d.Params = r, params
	} else {
		d.NotFound = true
	}

	state := g.session.State()
	in := engine.RouteInput{
		Path:          path,
		Authenticated: state == domain.StateAuthenticated,
		User:          g.session.CurrentUser(),
	}
	res := engine.DefaultRoute(in)
	if g.policy != nil {
		r, err := g.policy.EvaluateRoute(ctx, in)
		if err != nil {
			log.Printf("guard: route policy for %s: %v", path, err)
		} else {
			res = r
		}
	}

	if !res.Privileged {
		d.Action = Render
		return d
	}
	switch state {
	case domain.StateUninitialized:
		d.Action = Block
	case domain.StateAuthenticated:
		if res.Allow {
			d.Action = Render
			return d
		}
		d.redirectToLogin()
	default:
		d.redirectToLogin()
	}
	return d
}

func (d *Decision) redirectToLogin() {
	d.Action = Redirect
	d.Location = service.LoginPath
	d.From = d.Path
}
