package sqlkit

import (
	"context"

	"github.com/syssam/sqlkit/dialect/sql"
)

// Event describes a statement about to be executed.
type Event struct {
	// Token is the correlation value attached with WithToken, or the
	// client ID when none was attached.
	Token any
	// Op is the statement kind. Count queries report sql.OpCount.
	Op sql.Op
	// Entity is the Go type name of the primary entity.
	Entity string
	// Table is the table identifier of the primary entity.
	Table string
	// SQL is the statement text as sent to the executor.
	SQL    string
	Params []sql.Param
}

// Map returns the event parameters keyed by name.
func (e Event) Map() map[string]any {
	return sql.Statement{SQL: e.SQL, Params: e.Params}.Map()
}

// Hook observes an event. Hooks run synchronously on the calling goroutine.
type Hook func(context.Context, Event)

// Hooks subscribes to execution events by statement kind. Nil fields are
// skipped.
type Hooks struct {
	BeforeSelect Hook
	BeforeInsert Hook
	BeforeUpdate Hook
	BeforeDelete Hook
}

func (h Hooks) fire(ctx context.Context, ev Event) {
	var hook Hook
	switch ev.Op {
	case sql.OpSelect, sql.OpCount:
		hook = h.BeforeSelect
	case sql.OpInsert:
		hook = h.BeforeInsert
	case sql.OpUpdate:
		hook = h.BeforeUpdate
	case sql.OpDelete:
		hook = h.BeforeDelete
	}
	if hook != nil {
		hook(ctx, ev)
	}
}

// Policy decides whether a statement may be executed. A non-nil error
// rejects the statement and is returned to the caller unchanged. See
// package privacy for rule-based policies.
type Policy interface {
	EvalStatement(context.Context, Event) error
}

// PolicyFunc adapts an ordinary function to a Policy.
type PolicyFunc func(context.Context, Event) error

// EvalStatement returns f(ctx, ev).
func (f PolicyFunc) EvalStatement(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

type tokenCtxKey struct{}

// WithToken returns a context that tags the events of statements executed
// with it. Shared hooks use the token to pick out their own statements.
func WithToken(ctx context.Context, token any) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext returns the token attached with WithToken.
func TokenFromContext(ctx context.Context) (any, bool) {
	token := ctx.Value(tokenCtxKey{})
	return token, token != nil
}
