package domain

// RouteDecision is the outcome of evaluating a Session against an
// owner-only view.
type RouteDecision int

const (
	// Allow renders the protected view.
	Allow RouteDecision = iota
	// RedirectToLogin sends the visitor to the login page.
	RedirectToLogin
	// ShowLoading defers the decision until the session is initialised.
	ShowLoading
)

func (d RouteDecision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case ShowLoading:
		return "show_loading"
	}
	return "unknown"
}

// ResolveRoute decides whether a protected view may render for the given
// session. Stateless; callers recompute it on every session change. This is
// a UX convenience, not a security boundary: real authorization is enforced
// by the store.
func ResolveRoute(s Session) RouteDecision {
	if s.IsLoading {
		return ShowLoading
	}
	if !s.IsLoggedIn {
		return RedirectToLogin
	}
	return Allow
}
