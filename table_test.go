package stratum

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/types"
)

func TestTableSetGetRoundTrip(t *testing.T) {
	session, _ := newReadySession(t)
	users := session.Table("users")

	// Every value is stringified on write.
	err := users.Set(context.Background(), "alice", map[string]any{
		"name":   "Alice",
		"age":    30,
		"active": true,
		"bio":    []byte("hello"),
	})
	require.NoError(t, err)

	row, err := users.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "alice", row.Key)
	require.Equal(t, types.Columns{
		"name":   "Alice",
		"age":    "30",
		"active": "true",
		"bio":    "hello",
	}, row.Columns)
	require.Nil(t, row.SuperColumns)
}

func TestTableGetMissingRow(t *testing.T) {
	session, _ := newReadySession(t)
	users := session.Table("users")

	row, err := users.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestTableGetMulti(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.SeedRow("users", "alice", map[string]string{"name": "Alice"})
	fake.SeedRow("users", "bob", map[string]string{"name": "Bob"})

	rows, err := users.GetMulti(context.Background(), []string{"alice", "bob", "nobody"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Alice", rows["alice"].Columns["name"])
	require.Equal(t, "Bob", rows["bob"].Columns["name"])
	require.NotContains(t, rows, "nobody")

	_, err = users.GetMulti(context.Background(), nil)
	require.ErrorIs(t, err, types.ErrInvalidQuery)
}

func TestTableGetColumnSelection(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.SeedRow("users", "alice", map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"})

	row, err := users.Get(context.Background(), "alice", WithColumns("a", "c"))
	require.NoError(t, err)
	require.Equal(t, types.Columns{"a": "1", "c": "3"}, row.Columns)

	row, err = users.Get(context.Background(), "alice", WithColumnRange("b", "c"))
	require.NoError(t, err)
	require.Equal(t, types.Columns{"b": "2", "c": "3"}, row.Columns)

	row, err = users.Get(context.Background(), "alice", WithCount(2))
	require.NoError(t, err)
	require.Len(t, row.Columns, 2)
}

func TestTableSuperSetGet(t *testing.T) {
	session, _ := newReadySession(t)
	events := session.Table("events")

	err := events.Set(context.Background(), "alice", map[string]any{
		"2026-01-01": map[string]string{"clicks": "3", "views": "9"},
		"2026-01-02": types.Columns{"clicks": "1"},
	})
	require.NoError(t, err)

	row, err := events.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Nil(t, row.Columns)
	require.Equal(t, map[string]types.Columns{
		"2026-01-01": {"clicks": "3", "views": "9"},
		"2026-01-02": {"clicks": "1"},
	}, row.SuperColumns)

	// Scoping to one super column returns its inner columns flat.
	row, err = events.Get(context.Background(), "alice", WithSuperColumn("2026-01-01"))
	require.NoError(t, err)
	require.Nil(t, row.SuperColumns)
	require.Equal(t, types.Columns{"clicks": "3", "views": "9"}, row.Columns)
}

func TestTableSuperSetRejectsFlatValues(t *testing.T) {
	session, _ := newReadySession(t)
	events := session.Table("events")

	// Nested tables require a column map per top-level property.
	err := events.Set(context.Background(), "alice", map[string]any{"clicks": 3})
	require.ErrorIs(t, err, types.ErrInvalidValue)
}

func TestTableSetEmptyValues(t *testing.T) {
	session, _ := newReadySession(t)
	users := session.Table("users")

	err := users.Set(context.Background(), "alice", map[string]any{})
	require.ErrorIs(t, err, types.ErrInvalidValue)
}

func TestTableSetTimestampLastWriteWins(t *testing.T) {
	var ts int64
	session, _ := newReadySession(t, WithTimestampProvider(func() int64 {
		ts++

		return ts
	}))
	users := session.Table("users")

	require.NoError(t, users.Set(context.Background(), "alice", map[string]any{"name": "old"}))
	require.NoError(t, users.Set(context.Background(), "alice", map[string]any{"name": "new"}))

	row, err := users.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "new", row.Columns["name"])
}

func TestTableCount(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.SeedRow("users", "alice", map[string]string{"a": "1", "b": "2", "c": "3"})

	n, err := users.Count(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = users.Count(context.Background(), "alice", WithColumns("a", "b"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// A cell cap bounds the count.
	n, err = users.Count(context.Background(), "alice", WithCount(2))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// A missing row counts zero.
	n, err = users.Count(context.Background(), "nobody")
	require.NoError(t, err)
	require.Zero(t, n)

	counts, err := users.CountMulti(context.Background(), []string{"alice", "nobody"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"alice": 3, "nobody": 0}, counts)
}

func TestTableRemoveColumns(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.SeedRow("users", "alice", map[string]string{"a": "1", "b": "2", "c": "3"})

	require.NoError(t, users.Remove(context.Background(), "alice", WithColumns("a", "c")))

	row, err := users.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, types.Columns{"b": "2"}, row.Columns)
}

func TestTableRemoveRow(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.SeedRow("users", "alice", map[string]string{"a": "1"})

	require.NoError(t, users.Remove(context.Background(), "alice"))

	row, err := users.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestTableRemoveSuperColumn(t *testing.T) {
	session, fake := newReadySession(t)
	events := session.Table("events")

	fake.SeedSuperRow("events", "alice", map[string]map[string]string{
		"day1": {"clicks": "3"},
		"day2": {"clicks": "5"},
	})

	require.NoError(t, events.Remove(context.Background(), "alice", WithSuperColumn("day1")))

	row, err := events.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, map[string]types.Columns{"day2": {"clicks": "5"}}, row.SuperColumns)
}

func TestTableTruncate(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.SeedRow("users", "alice", map[string]string{"a": "1"})
	fake.SeedRow("users", "bob", map[string]string{"a": "2"})

	require.NoError(t, users.Truncate(context.Background()))

	rows, err := users.GetMulti(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestTableSliceUnsupported(t *testing.T) {
	session, _ := newReadySession(t)
	users := session.Table("users")

	require.ErrorIs(t, users.Slice(context.Background()), types.ErrSliceUnsupported)
}

func TestTableRequestErrorWrapsGatewayFailure(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	gwErr := errors.New("socket closed")
	fake.OnMultiGet = func(context.Context, []string, gateway.SelectorScope, gateway.Predicate, types.Consistency) (map[string]gateway.RawRow, error) {
		return nil, gwErr
	}

	_, err := users.Get(context.Background(), "alice")
	var reqErr *types.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "multiget", reqErr.Op)
	require.Equal(t, "users", reqErr.Table)
	require.ErrorIs(t, err, gwErr)
}

func TestTableConsistencyOverride(t *testing.T) {
	session, fake := newReadySession(t, WithDefaultConsistency(types.ConsistencyPair{
		Read:  types.One,
		Write: types.All,
	}))
	users := session.Table("users")

	var seen []types.Consistency
	fake.OnMultiGet = func(_ context.Context, _ []string, _ gateway.SelectorScope, _ gateway.Predicate, cl types.Consistency) (map[string]gateway.RawRow, error) {
		seen = append(seen, cl)

		return nil, nil
	}
	fake.OnBatchMutate = func(_ context.Context, _ gateway.MutationMap, cl types.Consistency) error {
		seen = append(seen, cl)

		return nil
	}

	_, err := users.Get(context.Background(), "alice")
	require.NoError(t, err)
	_, err = users.Get(context.Background(), "alice", WithConsistency(types.LocalQuorum))
	require.NoError(t, err)
	require.NoError(t, users.Set(context.Background(), "alice", map[string]any{"a": 1}))

	require.Equal(t, []types.Consistency{types.One, types.LocalQuorum, types.All}, seen)
}
