package guard

import "strings"

// Route is a view the console knows how to render.
type Route struct {
	Pattern string
	Name    string
}

// Routes lists the application's views. Segments starting with ':' match any
// single path segment.
var Routes = []Route{
	{Pattern: "/", Name: "home"},
	{Pattern: "/project/:id", Name: "project"},
	{Pattern: "/login", Name: "login"},
	{Pattern: "/register", Name: "register"},
	{Pattern: "/admin", Name: "admin"},
	{Pattern: "/admin/add-project", Name: "add-project"},
	{Pattern: "/admin/edit-project/:id", Name: "edit-project"},
	{Pattern: "/admin/users", Name: "users"},
}

// Match returns the route for a clean path and the values of its parameters.
func Match(path string) (Route, map[string]string, bool) {
	segs := splitPath(path)
	for _, r := range Routes {
		pattern := splitPath(r.Pattern)
		if len(pattern) != len(segs) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i, p := range pattern {
			if strings.HasPrefix(p, ":") {
				if segs[i] == "" {
					ok = false
					break
				}
				params[p[1:]] = segs[i]
				continue
			}
			if p != segs[i] {
				ok = false
				break
			}
		}
		if ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
