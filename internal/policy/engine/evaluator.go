package engine

import (
	"context"
	"path"
	"strings"

	userdomain "portfolio-client/internal/user/domain"
)

// RouteInput is what a route policy sees.
type RouteInput struct {
	Path          string
	Authenticated bool
	User          *userdomain.User
}

// RouteResult is a route policy decision.
type RouteResult struct {
	// Privileged routes require a session; the rest always render.
	Privileged bool
	// Allow is whether the (authenticated) caller may see the route.
	Allow bool
}

// Evaluator evaluates route-access policies using OPA or other engines.
type Evaluator interface {
	EvaluateRoute(ctx context.Context, in RouteInput) (RouteResult, error)
}

// CleanPath normalizes a view path: query and fragment dropped, leading slash
// ensured, duplicate and trailing slashes removed.
func CleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsPrivileged reports whether p is the admin area or below it.
func IsPrivileged(p string) bool {
	p = CleanPath(p)
	return p == "/admin" || strings.HasPrefix(p, "/admin/")
}

// DefaultRoute is the built-in rule, used when policy evaluation fails: the admin
// area needs an authenticated administrator, everything else is public.
func DefaultRoute(in RouteInput) RouteResult {
	if !IsPrivileged(in.Path) {
		return RouteResult{Privileged: false, Allow: true}
	}
	return RouteResult{
		Privileged: true,
		Allow:      in.Authenticated && in.User != nil && in.User.IsAdmin,
	}
}
