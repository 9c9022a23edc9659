// Package guard decides where a navigation should end up given whether the
// session is authenticated.
//
// Decide is the one predicate. The edge middleware (before rendering, from
// the request cookie) and Client (after rendering, from in-memory session
// state) both call it, so the two layers cannot disagree about which paths
// are public.
package guard

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrRedirectLoop marks a route table under which the two rules could
	// bounce a navigation back and forth.
	ErrRedirectLoop  = errors.New("guard: redirect loop")
	ErrInvalidRoutes = errors.New("guard: invalid routes")
)

// Routes is the route table the guard works against.
type Routes struct {
	// LoginPath is the only public page.
	LoginPath string
	// LandingPath is where authenticated users visiting LoginPath are sent.
	LandingPath string
	// Skip lists paths the guard never touches (assets, the API proxy,
	// health checks). An entry ending in "/" is a prefix and also matches
	// the bare directory path; any other entry matches only itself.
	Skip []string
}

// DefaultRoutes mirrors the original route table and edge matcher.
func DefaultRoutes() Routes {
	return Routes{
		LoginPath:   "/login",
		LandingPath: "/",
		Skip:        []string{"/api/", "/static/", "/favicon.ico", "/healthz", "/ws/"},
	}
}

// Validate rejects route tables that could loop. The landing page must be a
// page rule A guards and rule B never fires on.
func (r Routes) Validate() error {
	if !strings.HasPrefix(r.LoginPath, "/") {
		return fmt.Errorf("%w: login path %q must be absolute", ErrInvalidRoutes, r.LoginPath)
	}
	if !strings.HasPrefix(r.LandingPath, "/") {
		return fmt.Errorf("%w: landing path %q must be absolute", ErrInvalidRoutes, r.LandingPath)
	}
	if clean(r.LoginPath) == clean(r.LandingPath) {
		return fmt.Errorf("%w: landing path equals login path %q", ErrRedirectLoop, r.LoginPath)
	}
	if r.Skipped(r.LoginPath) {
		return fmt.Errorf("%w: login path %q is excluded from guarding", ErrRedirectLoop, r.LoginPath)
	}
	if r.Skipped(r.LandingPath) {
		return fmt.Errorf("%w: landing path %q is excluded from guarding", ErrRedirectLoop, r.LandingPath)
	}
	return nil
}

// Skipped reports whether p is outside the guard's jurisdiction.
func (r Routes) Skipped(p string) bool {
	for _, entry := range r.Skip {
		if entry == "" {
			continue
		}
		if dir, ok := strings.CutSuffix(entry, "/"); ok {
			if strings.HasPrefix(p, entry) || p == dir {
				return true
			}
			continue
		}
		if p == entry {
			return true
		}
	}
	return false
}

// IsLogin reports whether p is the login page.
func (r Routes) IsLogin(p string) bool {
	return clean(p) == clean(r.LoginPath)
}

// Decide applies the guard rules to one navigation:
//
//	A: not authenticated and not on the login page -> login page
//	B: authenticated and on the login page         -> landing page
//
// Anything else, including skipped paths, stays put. For a valid Routes the
// result is a fixed point: deciding again on the target never redirects.
func Decide(authenticated bool, p string, r Routes) (target string, redirect bool) {
	if r.Skipped(p) {
		return "", false
	}
	atLogin := r.IsLogin(p)
	switch {
	case !authenticated && !atLogin:
		return r.LoginPath, true
	case authenticated && atLogin:
		return r.LandingPath, true
	}
	return "", false
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean(p)
}
