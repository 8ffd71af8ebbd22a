package domain

// Policy is one Rego module deciding route access. Modules must declare
// package portfolio.routes.
type Policy struct {
	ID      string
	Rules   string
	Enabled bool
	// Source is where the module was loaded from (a file path, or "builtin").
	Source string
}
