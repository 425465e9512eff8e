package auth

import "context"

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller. It is passed explicitly into
// service operations rather than read from ambient state.
type Principal struct {
	UserID       string
	Roles        []Role
	DepartmentID *string

	caps CapabilitySet
}

func NewPrincipal(userID string, roles []Role, departmentID *string) *Principal {
	return &Principal{
		UserID:       userID,
		Roles:        roles,
		DepartmentID: departmentID,
		caps:         Resolve(roles),
	}
}

func (p *Principal) Can(c Capability) bool {
	if p == nil {
		return false
	}
	if p.caps == nil {
		p.caps = Resolve(p.Roles)
	}
	return p.caps.Has(c)
}

func (p *Principal) HasRole(r Role) bool {
	if p == nil {
		return false
	}
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// ID returns the user id or "" for a nil principal.
func (p *Principal) ID() string {
	if p == nil {
		return ""
	}
	return p.UserID
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
