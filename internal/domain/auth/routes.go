package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Access classifies a route for the authentication pipeline.
type Access string

const (
	// AccessPublic routes skip identity resolution entirely.
	AccessPublic Access = "public"
	// AccessProtected routes require an authenticated security context.
	AccessProtected Access = "protected"
)

// Valid reports whether a is a known access class.
func (a Access) Valid() bool { return a == AccessPublic || a == AccessProtected }

// RouteRule classifies requests whose path matches Pattern and, when set, whose method equals Method.
type RouteRule struct {
	Method  string
	Pattern string
	Access  Access
}

// String renders the rule in the ROUTE_RULES syntax.
func (r RouteRule) String() string {
	if r.Method == "" {
		return r.Pattern + "=" + string(r.Access)
	}
	return r.Method + " " + r.Pattern + "=" + string(r.Access)
}

// RouteRules is an ordered rule list; the first matching rule wins.
type RouteRules []RouteRule

var errEmptyRule = errors.New("empty route rule")

// UnmarshalText parses "[METHOD ]PATTERN=ACCESS" entries separated by ';'.
// Blank entries are ignored.
func (rr *RouteRules) UnmarshalText(text []byte) error {
	parsed, err := ParseRouteRules(string(text))
	if err != nil {
		return err
	}
	*rr = parsed
	return nil
}

// ParseRouteRules parses the ROUTE_RULES syntax, e.g. "/healthz=public;GET /api/v1/**=protected".
func ParseRouteRules(s string) (RouteRules, error) {
	var out RouteRules
	for i, raw := range strings.Split(s, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		rule, err := parseRouteRule(raw)
		if err != nil {
			return nil, fmt.Errorf("route rule %d (%q): %w", i+1, raw, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func parseRouteRule(raw string) (RouteRule, error) {
	lhs, access, ok := strings.Cut(raw, "=")
	if !ok {
		return RouteRule{}, errors.New("missing '=' separator")
	}
	rule := RouteRule{Access: Access(strings.ToLower(strings.TrimSpace(access)))}
	if !rule.Access.Valid() {
		return RouteRule{}, fmt.Errorf("unknown access %q", access)
	}

	lhs = strings.TrimSpace(lhs)
	if method, pattern, found := strings.Cut(lhs, " "); found {
		rule.Method = strings.ToUpper(strings.TrimSpace(method))
		lhs = strings.TrimSpace(pattern)
		if !validMethod(rule.Method) {
			return RouteRule{}, fmt.Errorf("unknown method %q", method)
		}
	}
	if lhs == "" {
		return RouteRule{}, errEmptyRule
	}
	if !strings.HasPrefix(lhs, "/") {
		return RouteRule{}, fmt.Errorf("pattern %q must start with '/'", lhs)
	}
	rule.Pattern = lhs
	return rule, nil
}

func validMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodOptions, http.MethodConnect, http.MethodTrace:
		return true
	default:
		return false
	}
}
