package privacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/syssam/sqlkit"
)

// Viewer represents the authenticated user making a request.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetTenantID returns the viewer's tenant identifier, or "".
	GetTenantID() string
}

type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string { return v.UserID }

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string { return v.Roles }

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string { return v.TenantID }

// DenyIfNoViewer returns a rule that denies every statement executed
// without a viewer in the context.
func DenyIfNoViewer() Rule {
	return ContextRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("sqlkit/privacy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows the statement if the viewer has role.
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows the statement if the viewer has
// any of roles.
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		for _, role := range viewer.GetRoles() {
			if slices.Contains(roles, role) {
				return Allow
			}
		}
		return Skip
	})
}

// IsOwner returns a rule that allows the statement when its param
// parameter holds the viewer's ID.
//
//	privacy.OnOperation(privacy.IsOwner("OwnerId"), sql.OpUpdate)
func IsOwner(param string) Rule {
	return RuleFunc(func(ctx context.Context, ev sqlkit.Event) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		if v, ok := ev.Map()[param]; ok && format(v) == viewer.GetID() {
			return Allow
		}
		return Skip
	})
}

// TenantRule returns a rule that denies statements whose param parameter
// holds a tenant other than the viewer's. Statements without the
// parameter, and viewers without a tenant, are skipped.
func TenantRule(param string) Rule {
	return RuleFunc(func(ctx context.Context, ev sqlkit.Event) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil || viewer.GetTenantID() == "" {
			return Skip
		}
		v, ok := ev.Map()[param]
		if !ok {
			return Skip
		}
		if format(v) != viewer.GetTenantID() {
			return Denyf("sqlkit/privacy: tenant mismatch")
		}
		return Allow
	})
}

func format(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
