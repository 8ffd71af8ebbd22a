package service

// View paths the manager navigates to.
const (
	LoginPath = "/login"
	AdminPath = "/admin"
	HomePath  = "/"
)

// Navigation is a request to change the current view.
type Navigation struct {
	To string
	// Replace replaces the current history entry instead of pushing a new one.
	Replace bool
	// From is the path the user attempted, remembered so login can return there.
	From string
}

// Navigator performs navigations.
type Navigator interface {
	Navigate(n Navigation)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(n Navigation)

// Navigate calls f(n).
func (f NavigatorFunc) Navigate(n Navigation) { f(n) }

// LandingPath returns where a freshly signed-in user goes.
func LandingPath(isAdmin bool) string {
	if isAdmin {
		return AdminPath
	}
	return HomePath
}
