// Package routes declares HTTP routes as data and registers them on a ServeMux.
package routes

import (
	"net/http"

	"github.com/JaimeStill/tickler/pkg/middleware"
)

type Middleware = func(http.Handler) http.Handler

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix. Middleware applies to the
// group's routes and to every child group, outermost first.
type Group struct {
	Prefix     string
	Middleware []Middleware
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux and returns the
// registered patterns in registration order.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		walk("", nil, group, func(pattern string, h http.Handler) {
			mux.Handle(pattern, h)
			patterns = append(patterns, pattern)
		})
	}
	return patterns
}

func walk(prefix string, parent []Middleware, group Group, visit func(string, http.Handler)) {
	prefix += group.Prefix
	mws := append(append([]Middleware{}, parent...), group.Middleware...)

	for _, route := range group.Routes {
		visit(route.Method+" "+prefix+route.Pattern, middleware.Chain(route.Handler, mws...))
	}
	for _, child := range group.Children {
		walk(prefix, mws, child, visit)
	}
}
