package auth

import (
	"net/url"
	"strings"
)

// RoutePolicy knows which SPA routes tolerate anonymous visitors. Patterns
// are exact paths, or a prefix followed by "/*".
type RoutePolicy struct {
	exact    map[string]bool
	prefixes []string
	authPath string
}

func NewRoutePolicy(public []string, authPath string) *RoutePolicy {
	p := &RoutePolicy{exact: map[string]bool{}, authPath: normalizeRoute(authPath)}
	for _, pattern := range public {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.HasSuffix(pattern, "/*") {
			prefix := normalizeRoute(strings.TrimSuffix(pattern, "/*"))
			p.exact[prefix] = true
			p.prefixes = append(p.prefixes, strings.TrimSuffix(prefix, "/")+"/")
			continue
		}
		p.exact[normalizeRoute(pattern)] = true
	}
	p.exact[p.authPath] = true
	return p
}

func (p *RoutePolicy) IsPublic(route string) bool {
	route = normalizeRoute(route)
	if p.exact[route] {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(route, prefix) {
			return true
		}
	}
	return false
}

// LoginRedirect is the auth screen URL that brings the user back to route
// once they are verified.
func (p *RoutePolicy) LoginRedirect(route string) string {
	route = SafeReturnTo(route)
	if route == "/" || normalizeRoute(route) == p.authPath {
		return p.authPath
	}
	return p.authPath + "?redirect=" + url.QueryEscape(route)
}

func (p *RoutePolicy) AuthPath() string { return p.authPath }

// SafeReturnTo keeps only same-origin absolute paths.
func SafeReturnTo(route string) string {
	route = strings.TrimSpace(route)
	if !strings.HasPrefix(route, "/") || strings.HasPrefix(route, "//") || strings.Contains(route, `\`) {
		return "/"
	}
	return route
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if u, err := url.Parse(route); err == nil {
		route = u.Path
	}
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	return strings.ToLower(route)
}
