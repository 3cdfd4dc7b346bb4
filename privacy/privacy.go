package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect/sql"
)

// Policy decision sentinel errors.
//
// Rules return these values, possibly wrapped, to steer evaluation. Use
// errors.Is to check for them:
//
//	if errors.Is(err, privacy.Deny) { ... }
var (
	// Allow terminates evaluation and lets the statement run.
	Allow = errors.New("sqlkit/privacy: allow rule")

	// Deny terminates evaluation and rejects the statement.
	Deny = errors.New("sqlkit/privacy: deny rule")

	// Skip abstains and passes evaluation to the next rule.
	Skip = errors.New("sqlkit/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
// The returned error wraps Deny and can be checked with errors.Is(err, Deny).
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Rule decides about a single statement. It returns Allow, Deny, Skip or
// nil, which counts as Skip. Any other error rejects the statement.
type Rule interface {
	EvalStatement(context.Context, sqlkit.Event) error
}

// RuleFunc type is an adapter which allows the use of ordinary functions
// as rules.
type RuleFunc func(context.Context, sqlkit.Event) error

// EvalStatement returns f(ctx, ev).
func (f RuleFunc) EvalStatement(ctx context.Context, ev sqlkit.Event) error {
	return f(ctx, ev)
}

// Policy evaluates rules in order until one of them decides. It implements
// sqlkit.Policy:
//
//	client, err := sqlkit.New(exec, sqlkit.WithPolicy(privacy.Policy{
//		privacy.DenyIfNoViewer(),
//		privacy.OnOperation(privacy.HasRole("admin"), sql.OpDelete),
//		privacy.DenyOperationRule(sql.OpDelete),
//	}))
//
// A statement no rule decides about is allowed. A decision attached with
// DecisionContext overrides the rules.
type Policy []Rule

// EvalStatement evaluates the policy. Allow is reported as nil.
func (p Policy) EvalStatement(ctx context.Context, ev sqlkit.Event) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range p {
		switch decision := rule.EvalStatement(ctx, ev); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

var _ sqlkit.Policy = Policy(nil)

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a context evaluation function.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ sqlkit.Event) error {
		return eval(ctx)
	})
}

// OnOperation evaluates rule only for statements of the given kinds and
// skips the rest. Selecting also covers counting.
func OnOperation(rule Rule, ops ...sql.Op) Rule {
	return RuleFunc(func(ctx context.Context, ev sqlkit.Event) error {
		op := ev.Op
		if op == sql.OpCount {
			op = sql.OpSelect
		}
		if slices.Contains(ops, op) {
			return rule.EvalStatement(ctx, ev)
		}
		return Skip
	})
}

// OnTable evaluates rule only for statements on the given tables.
func OnTable(rule Rule, tables ...string) Rule {
	return RuleFunc(func(ctx context.Context, ev sqlkit.Event) error {
		if slices.Contains(tables, ev.Table) {
			return rule.EvalStatement(ctx, ev)
		}
		return Skip
	})
}

// DenyOperationRule returns a rule denying the given statement kinds.
func DenyOperationRule(ops ...sql.Op) Rule {
	rule := RuleFunc(func(_ context.Context, ev sqlkit.Event) error {
		return Denyf("sqlkit/privacy: operation %s is not allowed", ev.Op)
	})
	return OnOperation(rule, ops...)
}

// AllowOperationRule returns a rule allowing the given statement kinds.
func AllowOperationRule(ops ...sql.Op) Rule {
	return OnOperation(AlwaysAllowRule(), ops...)
}

// ReadOnly returns a rule denying every INSERT, UPDATE and DELETE.
func ReadOnly() Rule {
	return DenyOperationRule(sql.OpInsert, sql.OpUpdate, sql.OpDelete)
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalStatement(context.Context, sqlkit.Event) error {
	return f.decision
}
