package stratum

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/types"
)

func TestFlattenRowEmpty(t *testing.T) {
	require.Nil(t, flattenRow(gateway.RawRow{Key: "alice"}))
}

func TestFlattenRowColumns(t *testing.T) {
	row := flattenRow(gateway.RawRow{
		Key: "alice",
		Columns: []gateway.Column{
			{Name: "name", Value: "Alice"},
			{Name: "age", Value: "30"},
		},
	})

	require.NotNil(t, row)
	require.Equal(t, "alice", row.Key)
	require.Equal(t, types.Columns{"name": "Alice", "age": "30"}, row.Columns)
	require.Nil(t, row.SuperColumns)
}

func TestFlattenRowSuperColumns(t *testing.T) {
	row := flattenRow(gateway.RawRow{
		Key: "alice",
		SuperColumns: []gateway.SuperColumn{
			{Name: "day1", Columns: []gateway.Column{{Name: "clicks", Value: "3"}}},
			{Name: "day2", Columns: []gateway.Column{{Name: "clicks", Value: "5"}}},
		},
	})

	require.NotNil(t, row)
	require.Nil(t, row.Columns)
	require.Equal(t, map[string]types.Columns{
		"day1": {"clicks": "3"},
		"day2": {"clicks": "5"},
	}, row.SuperColumns)
}

func TestStringifyValue(t *testing.T) {
	require.Equal(t, "hello", stringifyValue("hello"))
	require.Equal(t, "bytes", stringifyValue([]byte("bytes")))
	require.Equal(t, "42", stringifyValue(42))
	require.Equal(t, "3.5", stringifyValue(3.5))
	require.Equal(t, "true", stringifyValue(true))
}

func TestBuildColumnMutations(t *testing.T) {
	muts, err := buildColumnMutations(map[string]any{"name": "Alice", "age": 30}, 99, 60)
	require.NoError(t, err)
	require.Len(t, muts, 2)
	for _, m := range muts {
		require.NotNil(t, m.Column)
		require.EqualValues(t, 99, m.Column.Timestamp)
		require.EqualValues(t, 60, m.Column.TTL)
	}

	_, err = buildColumnMutations(map[string]any{"": "x"}, 99, 0)
	require.ErrorIs(t, err, types.ErrInvalidValue)
}

func TestBuildSuperMutations(t *testing.T) {
	muts, err := buildSuperMutations(map[string]any{
		"day1": map[string]any{"clicks": 3},
	}, 99, 0)
	require.NoError(t, err)
	require.Len(t, muts, 1)
	require.NotNil(t, muts[0].SuperColumn)
	require.Equal(t, "day1", muts[0].SuperColumn.Name)
	require.Equal(t, "3", muts[0].SuperColumn.Columns[0].Value)

	// A scalar where a column map is required is a shape error.
	_, err = buildSuperMutations(map[string]any{"day1": 3}, 99, 0)
	require.ErrorIs(t, err, types.ErrInvalidValue)

	_, err = buildSuperMutations(map[string]any{"": map[string]any{"a": 1}}, 99, 0)
	require.ErrorIs(t, err, types.ErrInvalidValue)
}
