// Package privacy provides rule-based policies deciding whether a statement
// may be executed.
//
// A Policy is a list of rules evaluated in order before the client runs a
// statement and before any hook fires. Each rule returns one of:
//
//   - Allow: the statement runs and evaluation stops
//   - Deny: the statement is rejected and evaluation stops
//   - Skip: the next rule decides
//
// Rules see the statement event: its kind, entity, table, SQL text and
// parameters. A statement no rule decides about is allowed, so policies that
// should fail closed end with AlwaysDenyRule:
//
//	policy := privacy.Policy{
//		privacy.DenyIfNoViewer(),
//		privacy.HasRole("admin"),
//		privacy.OnOperation(privacy.IsOwner("OwnerId"), sql.OpUpdate, sql.OpDelete),
//		privacy.AllowOperationRule(sql.OpSelect),
//		privacy.AlwaysDenyRule(),
//	}
//	client, err := sqlkit.New(exec, sqlkit.WithPolicy(policy))
//
// The viewer is stored in the context:
//
//	ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{UserID: "42", Roles: []string{"user"}})
//
// A rejected statement returns the deny error; check it with
// errors.Is(err, privacy.Deny).
package privacy
