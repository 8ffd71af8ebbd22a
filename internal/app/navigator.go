package app

import (
	"fmt"
	"io"
	"sync"

	"portfolio-client/internal/session/service"
)

// ConsoleNavigator stands in for the browser router: it prints every navigation
// and remembers the current location.
type ConsoleNavigator struct {
	mu      sync.Mutex
	w       io.Writer
	current string
}

// NewConsoleNavigator returns a navigator writing to w, starting at "/".
func NewConsoleNavigator(w io.Writer) *ConsoleNavigator {
	return &ConsoleNavigator{w: w, current: service.HomePath}
}

// Navigate implements service.Navigator.
func (n *ConsoleNavigator) Navigate(nav service.Navigation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nav.To
	if n.w == nil {
		return
	}
	mode := "push"
	if nav.Replace {
		mode = "replace"
	}
	if nav.From != "" {
		fmt.Fprintf(n.w, "-> %s (%s, from %s)\n", nav.To, mode, nav.From)
		return
	}
	fmt.Fprintf(n.w, "-> %s (%s)\n", nav.To, mode)
}

// Current returns the last location navigated to.
func (n *ConsoleNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
