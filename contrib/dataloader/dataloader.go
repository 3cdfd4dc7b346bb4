// Package dataloader batches key lookups against a sqlkit table and
// returns the results in the order a DataLoader expects: one value and one
// error per requested key.
//
//	load := func(ctx context.Context, ids []int64) ([]*Product, []error) {
//	    return dataloader.Load(ctx, sqlkit.For[Product](client), "Id", ids,
//	        func(p *Product) int64 { return p.Id })
//	}
//
// The batch function plugs into loaders such as
// github.com/graph-gophers/dataloader or github.com/vikstrous/dataloadgen.
package dataloader

import (
	"context"
	"fmt"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/expr"
)

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// BatchFunc loads a batch of entities by their keys.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// Load selects the rows of t whose col matches one of keys in a single
// statement, and orders them by keys. Duplicate keys share one
// parameter. Missing rows get a *sqlkit.NotFoundError.
func Load[K comparable, T any](ctx context.Context, t *sqlkit.Table[T], col string, keys []K, keyFn KeyFunc[K, *T]) ([]*T, []error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := t.Select().WhereExpr(anyOf(col, keys)).All(ctx)
	if err != nil {
		return nil, fill(len(keys), err)
	}
	values := make([]*T, len(rows))
	for i := range rows {
		values[i] = &rows[i]
	}
	out, errs := OrderByKeys(keys, values, keyFn)
	label := fmt.Sprintf("%T", *new(T))
	if m, err := t.Metadata(); err == nil {
		label = m.Name()
	}
	for i, err := range errs {
		if err != nil {
			errs[i] = sqlkit.NewNotFoundErrorWithID(label, keys[i])
		}
	}
	return out, errs
}

// LoadGroups selects the rows of t whose col matches one of keys and groups
// them per key, for one-to-many lookups such as the lines of many orders.
func LoadGroups[K comparable, T any](ctx context.Context, t *sqlkit.Table[T], col string, keys []K, keyFn KeyFunc[K, *T]) ([][]*T, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := t.Select().WhereExpr(anyOf(col, keys)).All(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]*T, len(rows))
	for i := range rows {
		values[i] = &rows[i]
	}
	return OrderGroupsByKeys(keys, GroupByKey(values, keyFn)), nil
}

// anyOf returns col = k1 OR col = k2 ... over the distinct keys.
func anyOf[K comparable](col string, keys []K) expr.Expr {
	seen := make(map[K]struct{}, len(keys))
	var e expr.Expr
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		eq := expr.Eq(expr.Col(col), expr.Const(k))
		if e == nil {
			e = eq
		} else {
			e = expr.Or(e, eq)
		}
	}
	return e
}

func fill(n int, err error) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return errs
}

// OrderByKeys reorders values to match keys. The result has one entry per
// key; keys without a value get a nil value and a non-nil error.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = fmt.Errorf("dataloader: no value for key %v", key)
		}
	}
	return result, errs
}

// GroupByKey groups values by keyFn.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys returns groups[keys[i]] at index i.
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}
