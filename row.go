package stratum

import (
	"fmt"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/types"
)

// flattenRow converts a raw nested reply row into the plain
// key→column(→subcolumn)→value shape returned to callers.
//
// Returns nil when the raw row carries no live columns; such rows are
// treated as absent.
func flattenRow(raw gateway.RawRow) *types.Row {
	if len(raw.Columns) == 0 && len(raw.SuperColumns) == 0 {
		return nil
	}

	row := &types.Row{Key: raw.Key}

	if len(raw.SuperColumns) > 0 {
		row.SuperColumns = make(map[string]types.Columns, len(raw.SuperColumns))
		for _, sc := range raw.SuperColumns {
			cols := make(types.Columns, len(sc.Columns))
			for _, c := range sc.Columns {
				cols[c.Name] = c.Value
			}
			row.SuperColumns[sc.Name] = cols
		}

		return row
	}

	row.Columns = make(types.Columns, len(raw.Columns))
	for _, c := range raw.Columns {
		row.Columns[c.Name] = c.Value
	}

	return row
}

// stringifyValue converts any write value to its wire string form.
func stringifyValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}

	return fmt.Sprint(v)
}

// buildColumnMutations turns a flat value object into one column insert per
// property.
func buildColumnMutations(values map[string]any, ts int64, ttl int32) ([]gateway.Mutation, error) {
	muts := make([]gateway.Mutation, 0, len(values))
	for name, v := range values {
		if name == "" {
			return nil, fmt.Errorf("%w: column names cannot be empty", types.ErrInvalidValue)
		}
		muts = append(muts, gateway.Mutation{Column: &gateway.Column{
			Name:      name,
			Value:     stringifyValue(v),
			Timestamp: ts,
			TTL:       ttl,
		}})
	}

	return muts, nil
}

// buildSuperMutations turns a nested value object into one super-column
// insert per top-level property. Each top-level value must itself be a
// column map.
func buildSuperMutations(values map[string]any, ts int64, ttl int32) ([]gateway.Mutation, error) {
	muts := make([]gateway.Mutation, 0, len(values))
	for scName, v := range values {
		if scName == "" {
			return nil, fmt.Errorf("%w: super-column names cannot be empty", types.ErrInvalidValue)
		}

		sub, err := columnMapOf(scName, v)
		if err != nil {
			return nil, err
		}

		sc := gateway.SuperColumn{Name: scName, Columns: make([]gateway.Column, 0, len(sub))}
		for name, sv := range sub {
			if name == "" {
				return nil, fmt.Errorf("%w: subcolumn names cannot be empty", types.ErrInvalidValue)
			}
			sc.Columns = append(sc.Columns, gateway.Column{
				Name:      name,
				Value:     stringifyValue(sv),
				Timestamp: ts,
				TTL:       ttl,
			})
		}
		muts = append(muts, gateway.Mutation{SuperColumn: &sc})
	}

	return muts, nil
}

// columnMapOf coerces a super-column value to a column map, rejecting every
// other shape with a descriptive error.
func columnMapOf(superColumn string, v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}

		return out, nil
	case types.Columns:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}

		return out, nil
	}

	return nil, fmt.Errorf("%w: super column %s requires a column map, got %T",
		types.ErrInvalidValue, superColumn, v)
}
