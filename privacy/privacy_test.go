package privacy_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/privacy"
)

func event(op sql.Op, table string, params ...sql.Param) sqlkit.Event {
	return sqlkit.Event{Token: "t", Op: op, Entity: "Product", Table: table, Params: params}
}

func TestDecisionErrors(t *testing.T) {
	tests := []struct {
		name     string
		decision error
		want     error
	}{
		{name: "allow", decision: privacy.Allowf("admin %s", "bob"), want: privacy.Allow},
		{name: "deny", decision: privacy.Denyf("no %d", 1), want: privacy.Deny},
		{name: "skip", decision: privacy.Skipf("abstain"), want: privacy.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.decision, tt.want))
			for _, other := range []error{privacy.Allow, privacy.Deny, privacy.Skip} {
				if other != tt.want {
					assert.False(t, errors.Is(tt.decision, other))
				}
			}
		})
	}
	assert.Equal(t, "no 1: sqlkit/privacy: deny rule", privacy.Denyf("no %d", 1).Error())
}

func TestPolicy(t *testing.T) {
	ctx := context.Background()
	ev := event(sql.OpSelect, "Products")
	tests := []struct {
		name   string
		policy privacy.Policy
		want   error
	}{
		{name: "empty", policy: nil},
		{name: "skip_only", policy: privacy.Policy{privacy.ContextRule(func(context.Context) error { return nil })}},
		{name: "allow_stops", policy: privacy.Policy{privacy.AlwaysAllowRule(), privacy.AlwaysDenyRule()}},
		{name: "deny_stops", policy: privacy.Policy{privacy.AlwaysDenyRule(), privacy.AlwaysAllowRule()}, want: privacy.Deny},
		{name: "skip_then_deny", policy: privacy.Policy{
			privacy.RuleFunc(func(context.Context, sqlkit.Event) error { return privacy.Skip }),
			privacy.AlwaysDenyRule(),
		}, want: privacy.Deny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.EvalStatement(ctx, ev)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	custom := fmt.Errorf("boom")
	err := privacy.Policy{privacy.ContextRule(func(context.Context) error { return custom })}.EvalStatement(ctx, ev)
	assert.Equal(t, custom, err)
}

func TestDecisionContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, privacy.DecisionContext(ctx, nil))
	assert.Equal(t, ctx, privacy.DecisionContext(ctx, privacy.Skip))

	_, ok := privacy.DecisionFromContext(ctx)
	assert.False(t, ok)

	allowed := privacy.DecisionContext(ctx, privacy.Allow)
	decision, ok := privacy.DecisionFromContext(allowed)
	assert.True(t, ok)
	assert.NoError(t, decision)
	deny := privacy.Policy{privacy.AlwaysDenyRule()}
	assert.NoError(t, deny.EvalStatement(allowed, event(sql.OpDelete, "Products")))

	denied := privacy.DecisionContext(ctx, privacy.Denyf("frozen"))
	assert.ErrorIs(t, privacy.Policy{privacy.AlwaysAllowRule()}.EvalStatement(denied, event(sql.OpSelect, "Products")), privacy.Deny)
}

func TestOnOperation(t *testing.T) {
	ctx := context.Background()
	rule := privacy.OnOperation(privacy.AlwaysDenyRule(), sql.OpSelect, sql.OpUpdate)
	assert.ErrorIs(t, rule.EvalStatement(ctx, event(sql.OpSelect, "Products")), privacy.Deny)
	assert.ErrorIs(t, rule.EvalStatement(ctx, event(sql.OpCount, "Products")), privacy.Deny)
	assert.ErrorIs(t, rule.EvalStatement(ctx, event(sql.OpUpdate, "Products")), privacy.Deny)
	assert.ErrorIs(t, rule.EvalStatement(ctx, event(sql.OpInsert, "Products")), privacy.Skip)
}

func TestDenyOperationRule(t *testing.T) {
	ctx := context.Background()
	rule := privacy.DenyOperationRule(sql.OpDelete)
	err := rule.EvalStatement(ctx, event(sql.OpDelete, "Products"))
	assert.ErrorIs(t, err, privacy.Deny)
	assert.Contains(t, err.Error(), "operation delete is not allowed")
	assert.ErrorIs(t, rule.EvalStatement(ctx, event(sql.OpSelect, "Products")), privacy.Skip)

	assert.ErrorIs(t, privacy.AllowOperationRule(sql.OpSelect).EvalStatement(ctx, event(sql.OpSelect, "Products")), privacy.Allow)
}

func TestReadOnly(t *testing.T) {
	ctx := context.Background()
	p := privacy.Policy{privacy.ReadOnly()}
	assert.NoError(t, p.EvalStatement(ctx, event(sql.OpSelect, "Products")))
	assert.NoError(t, p.EvalStatement(ctx, event(sql.OpCount, "Products")))
	for _, op := range []sql.Op{sql.OpInsert, sql.OpUpdate, sql.OpDelete} {
		assert.ErrorIs(t, p.EvalStatement(ctx, event(op, "Products")), privacy.Deny, op.String())
	}
}

func TestOnTable(t *testing.T) {
	ctx := context.Background()
	rule := privacy.OnTable(privacy.AlwaysDenyRule(), "Audits")
	assert.ErrorIs(t, rule.EvalStatement(ctx, event(sql.OpSelect, "Audits")), privacy.Deny)
	assert.ErrorIs(t, rule.EvalStatement(ctx, event(sql.OpSelect, "Products")), privacy.Skip)
}

func TestPolicyImplementsClientPolicy(t *testing.T) {
	var p sqlkit.Policy = privacy.Policy{privacy.ReadOnly()}
	require.NotNil(t, p)
	assert.ErrorIs(t, p.EvalStatement(context.Background(), event(sql.OpInsert, "Products")), privacy.Deny)
}
