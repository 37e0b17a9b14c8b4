package auth

import "slices"

// Token abilities. A token carrying ScopeAll may do everything.
const (
	ScopeAll                = "*"
	ScopeOfficeCreate       = "office.create"
	ScopeOfficeUpdate       = "office.update"
	ScopeOfficeDelete       = "office.delete"
	ScopeReservationsShow   = "reservations.show"
	ScopeReservationsMake   = "reservations.make"
	ScopeReservationsCancel = "reservations.cancel"
)

// KnownScopes lists every ability a client may request at login.
var KnownScopes = []string{
	ScopeOfficeCreate,
	ScopeOfficeUpdate,
	ScopeOfficeDelete,
	ScopeReservationsShow,
	ScopeReservationsMake,
	ScopeReservationsCancel,
}

// HasScope reports whether granted covers the required ability.
func HasScope(granted []string, required string) bool {
	return slices.Contains(granted, ScopeAll) || slices.Contains(granted, required)
}

// NormalizeScopes keeps only known abilities. An empty request yields full access.
func NormalizeScopes(requested []string) []string {
	if len(requested) == 0 {
		return []string{ScopeAll}
	}
	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if s == ScopeAll {
			return []string{ScopeAll}
		}
		if slices.Contains(KnownScopes, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
