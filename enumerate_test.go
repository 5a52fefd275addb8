package stratum

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/test/testutil"
	"github.com/arloliu/stratum/types"
)

func seedRows(fake *testutil.FakeGateway, n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%03d", i)
		keys[i] = key
		fake.SeedRow("users", key, map[string]string{"seq": fmt.Sprint(i)})
	}

	return keys
}

func TestEnumerateVisitsEveryRowOnce(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	want := seedRows(fake, 25)

	var got []string
	err := users.Enumerate(context.Background(), func(key string, row *types.Row) error {
		require.NotNil(t, row)
		got = append(got, key)

		return nil
	}, WithStride(10))
	require.NoError(t, err)

	// Every row exactly once, in key order, across page boundaries.
	require.Equal(t, want, got)
}

func TestEnumerateExactStrideMultiple(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	// 20 rows with stride 10: the final continuation page is short and ends
	// the scan without an extra delivery.
	want := seedRows(fake, 20)

	var got []string
	err := users.Enumerate(context.Background(), func(key string, _ *types.Row) error {
		got = append(got, key)

		return nil
	}, WithStride(10))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEnumerateRejectsStrideOne(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	// A continuation page re-fetches the boundary key, so with stride 1 the
	// scan could never advance past the first row. Rejecting the stride up
	// front beats silently truncating the table.
	seedRows(fake, 3)

	visited := 0
	err := users.Enumerate(context.Background(), func(string, *types.Row) error {
		visited++

		return nil
	}, WithStride(1))
	require.ErrorIs(t, err, types.ErrInvalidQuery)
	require.Zero(t, visited)
}

func TestEnumerateMinimumStride(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	// Stride 2 is the smallest accepted page size: one slot for the boundary
	// key, one for progress. Every row is still delivered exactly once.
	want := seedRows(fake, 5)

	var got []string
	err := users.Enumerate(context.Background(), func(key string, _ *types.Row) error {
		got = append(got, key)

		return nil
	}, WithStride(2))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEnumerateEmptyTable(t *testing.T) {
	session, _ := newReadySession(t)
	users := session.Table("users")

	calls := 0
	err := users.Enumerate(context.Background(), func(string, *types.Row) error {
		calls++

		return nil
	})
	require.NoError(t, err)
	require.Zero(t, calls)
}

func TestEnumerateNilCallback(t *testing.T) {
	session, _ := newReadySession(t)
	users := session.Table("users")

	require.ErrorIs(t, users.Enumerate(context.Background(), nil), types.ErrInvalidQuery)
}

func TestEnumerateCallbackErrorHaltsScan(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	seedRows(fake, 25)

	halt := errors.New("enough")
	visited := 0
	err := users.Enumerate(context.Background(), func(string, *types.Row) error {
		visited++
		if visited == 3 {
			return halt
		}

		return nil
	}, WithStride(10))

	// The callback error is returned once and nothing past it is delivered.
	require.ErrorIs(t, err, halt)
	require.Equal(t, 3, visited)
}

func TestEnumeratePageOverflow(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.OnGetRangeSlices = func(_ context.Context, _ gateway.SelectorScope, _ gateway.Predicate, keyRange gateway.KeyRange, _ types.Consistency) ([]gateway.RawRow, error) {
		rows := make([]gateway.RawRow, keyRange.Count+1)
		for i := range rows {
			rows[i] = gateway.RawRow{
				Key:     fmt.Sprintf("key-%03d", i),
				Columns: []gateway.Column{{Name: "seq", Value: "0"}},
			}
		}

		return rows, nil
	}

	err := users.Enumerate(context.Background(), func(string, *types.Row) error {
		t.Error("no row should be delivered from an overflowing page")

		return nil
	}, WithStride(5))
	require.ErrorIs(t, err, types.ErrPageOverflow)
}

func TestEnumerateGatewayError(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	gwErr := errors.New("range scan failed")
	fake.OnGetRangeSlices = func(context.Context, gateway.SelectorScope, gateway.Predicate, gateway.KeyRange, types.Consistency) ([]gateway.RawRow, error) {
		return nil, gwErr
	}

	err := users.Enumerate(context.Background(), func(string, *types.Row) error {
		return nil
	})

	var reqErr *types.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "get_range_slices", reqErr.Op)
	require.ErrorIs(t, err, gwErr)
}

func TestEnumerateColumnFilter(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	fake.SeedRow("users", "alice", map[string]string{"name": "Alice", "age": "30"})
	fake.SeedRow("users", "bob", map[string]string{"name": "Bob", "age": "41"})

	err := users.Enumerate(context.Background(), func(_ string, row *types.Row) error {
		require.Len(t, row.Columns, 1)
		require.Contains(t, row.Columns, "name")

		return nil
	}, WithColumns("name"))
	require.NoError(t, err)
}

func TestEnumerateContextCancelBetweenRows(t *testing.T) {
	session, fake := newReadySession(t)
	users := session.Table("users")

	seedRows(fake, 10)

	ctx, cancel := context.WithCancel(context.Background())
	visited := 0
	done := make(chan error, 1)
	go func() {
		done <- users.Enumerate(ctx, func(string, *types.Row) error {
			visited++
			if visited == 2 {
				cancel()
			}

			return nil
		}, WithStride(5))
	}()

	require.ErrorIs(t, <-done, context.Canceled)
	require.LessOrEqual(t, visited, 2)
}
