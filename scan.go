package sqlkit

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/schema"
)

// scan reads up to limit rows into values of T, matching result columns to
// entity columns by name. A limit below zero reads every row. The rows are
// closed before scan returns.
func scan[T any](rows dialect.Rows, m *schema.Metadata, limit int) (out []T, err error) {
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for (limit < 0 || len(out) < limit) && rows.Next() {
		var v T
		ptrs, err := m.Pointers(&v, cols)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// resultSets is implemented by *sql.Rows.
type resultSets interface {
	NextResultSet() bool
}

// scanValue reads the first column of the first row into dst, moving past
// empty result sets such as the one of an INSERT followed by a key
// trailer. It reports false when no result set has a row.
func scanValue(rows dialect.Rows, dst any) (ok bool, err error) {
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	for !rows.Next() {
		rs, ok := rows.(resultSets)
		if !ok || !rs.NextResultSet() {
			return false, rows.Err()
		}
	}
	if err := rows.Scan(dst); err != nil {
		return false, err
	}
	return true, rows.Err()
}

// setKey stores a generated key into the key field of entity.
func setKey(entity any, col schema.Column, key int64) error {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("sqlkit: entity must be a non-nil pointer, got %T", entity)
	}
	f := rv.Elem().FieldByIndex(col.Index)
	for f.Kind() == reflect.Pointer {
		if f.IsNil() {
			f.Set(reflect.New(f.Type().Elem()))
		}
		f = f.Elem()
	}
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f.SetInt(key)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f.SetUint(uint64(key))
	default:
		return fmt.Errorf("sqlkit: key field %s has non-integer type %s", col.Field, f.Type())
	}
	return nil
}
