package authz

import (
	"context"
	"strings"
)

// Authorizer decides whether an authenticated email may use admin surfaces.
type Authorizer interface {
	IsAdmin(ctx context.Context, email string) bool
}

// AllowlistAuthorizer grants admin access to a fixed set of emails. An
// empty allowlist denies everyone.
type AllowlistAuthorizer struct {
	emails map[string]struct{}
}

// NewAllowlistAuthorizer builds an authorizer from the configured emails.
func NewAllowlistAuthorizer(emails []string) *AllowlistAuthorizer {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return &AllowlistAuthorizer{emails: set}
}

func (a *AllowlistAuthorizer) IsAdmin(_ context.Context, email string) bool {
	if a == nil || len(a.emails) == 0 {
		return false
	}
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
