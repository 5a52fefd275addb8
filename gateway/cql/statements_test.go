package cql

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/schema"
	"github.com/arloliu/stratum/types"
)

func TestSelectStmtFlat(t *testing.T) {
	stmt, args := selectStmt("ks.users", false, gateway.SelectorScope{Table: "users"}, gateway.Predicate{Count: 10})

	require.Equal(t, "SELECT column1, value, writetime(value), ttl(value) FROM ks.users WHERE key = ? LIMIT 10", stmt)
	require.Equal(t, []any{keyArg}, args)
}

func TestSelectStmtFlatColumnNames(t *testing.T) {
	pred := gateway.Predicate{ColumnNames: []string{"name", "email"}}
	stmt, args := selectStmt("ks.users", false, gateway.SelectorScope{Table: "users"}, pred)

	require.Equal(t, "SELECT column1, value, writetime(value), ttl(value) FROM ks.users WHERE key = ? AND column1 IN (?, ?)", stmt)
	require.Equal(t, []any{keyArg, "name", "email"}, args)
}

func TestSelectStmtFlatRange(t *testing.T) {
	pred := gateway.Predicate{Start: "a", Finish: "m", Reversed: true, Count: 5}
	stmt, _ := selectStmt("ks.users", false, gateway.SelectorScope{Table: "users"}, pred)

	require.Equal(t,
		"SELECT column1, value, writetime(value), ttl(value) FROM ks.users"+
			" WHERE key = ? AND column1 >= ? AND column1 <= ? ORDER BY column1 DESC LIMIT 5",
		stmt)
}

func TestSelectStmtSuperUnscoped(t *testing.T) {
	stmt, args := selectStmt("ks.events", true, gateway.SelectorScope{Table: "events"}, gateway.Predicate{Count: 3})

	// The super-column cap is applied after grouping, not as a cell LIMIT.
	require.Equal(t, "SELECT column1, column2, value, writetime(value), ttl(value) FROM ks.events WHERE key = ?", stmt)
	require.Equal(t, []any{keyArg}, args)
}

func TestSelectStmtSuperScoped(t *testing.T) {
	scope := gateway.SelectorScope{Table: "events", SuperColumn: "2026-01-01"}
	pred := gateway.Predicate{Start: "08:00"}
	stmt, args := selectStmt("ks.events", true, scope, pred)

	require.Equal(t,
		"SELECT column2, value, writetime(value), ttl(value) FROM ks.events"+
			" WHERE key = ? AND column1 = ? AND column2 >= ?",
		stmt)
	require.Equal(t, []any{keyArg, "2026-01-01", "08:00"}, args)
}

func TestCountStmtScoped(t *testing.T) {
	scope := gateway.SelectorScope{Table: "events", SuperColumn: "day"}
	stmt, args := countStmt("ks.events", true, scope, gateway.Predicate{})

	require.Equal(t, "SELECT column2 FROM ks.events WHERE key = ? AND column1 = ?", stmt)
	require.Equal(t, []any{keyArg, "day"}, args)
}

func TestCountStmtCappedFlat(t *testing.T) {
	scope := gateway.SelectorScope{Table: "users"}
	stmt, args := countStmt("ks.users", false, scope, gateway.Predicate{Count: 5})

	// The cap is a row LIMIT on the name fetch; a LIMIT on COUNT(*) would
	// apply to the aggregate's single result row and count everything.
	require.Equal(t, "SELECT column1 FROM ks.users WHERE key = ? LIMIT 5", stmt)
	require.Equal(t, []any{keyArg}, args)
}

func TestCountStmtUnscopedSuper(t *testing.T) {
	scope := gateway.SelectorScope{Table: "events"}
	stmt, args := countStmt("ks.events", true, scope, gateway.Predicate{Count: 5})

	// Super-column counts group (column1, column2) pairs client-side, so no
	// row LIMIT can express the cap.
	require.Equal(t, "SELECT column1 FROM ks.events WHERE key = ?", stmt)
	require.Equal(t, []any{keyArg}, args)
}

func TestBindKey(t *testing.T) {
	args := bindKey([]any{keyArg, "x", 7}, "row-1")

	require.Equal(t, []any{"row-1", "x", 7}, args)
}

func TestRangeKeysStmt(t *testing.T) {
	stmt, args := rangeKeysStmt("ks.users", gateway.KeyRange{Count: 100})
	require.Equal(t, "SELECT DISTINCT key FROM ks.users LIMIT 100", stmt)
	require.Empty(t, args)

	stmt, args = rangeKeysStmt("ks.users", gateway.KeyRange{StartKey: "k1", EndKey: "k9", Count: 50})
	require.Equal(t, "SELECT DISTINCT key FROM ks.users WHERE token(key) >= token(?) AND token(key) <= token(?) LIMIT 50", stmt)
	require.Equal(t, []any{"k1", "k9"}, args)
}

func TestInsertStmt(t *testing.T) {
	require.Equal(t,
		"INSERT INTO ks.users (key, column1, value) VALUES (?, ?, ?) USING TIMESTAMP ?",
		insertStmt("ks.users", false, 0))
	require.Equal(t,
		"INSERT INTO ks.events (key, column1, column2, value) VALUES (?, ?, ?, ?) USING TIMESTAMP ? AND TTL ?",
		insertStmt("ks.events", true, 60))
}

func TestDeleteStmt(t *testing.T) {
	stmt, args := deleteStmt("ks.users", false, "row-1", gateway.Deletion{Timestamp: 42})
	require.Equal(t, "DELETE FROM ks.users USING TIMESTAMP ? WHERE key = ?", stmt)
	require.Equal(t, []any{int64(42), "row-1"}, args)

	stmt, args = deleteStmt("ks.users", false, "row-1", gateway.Deletion{Timestamp: 42, ColumnNames: []string{"a", "b"}})
	require.Equal(t, "DELETE FROM ks.users USING TIMESTAMP ? WHERE key = ? AND column1 IN (?, ?)", stmt)
	require.Equal(t, []any{int64(42), "row-1", "a", "b"}, args)

	stmt, args = deleteStmt("ks.events", true, "row-1", gateway.Deletion{Timestamp: 42, SuperColumn: "day", ColumnNames: []string{"a"}})
	require.Equal(t, "DELETE FROM ks.events USING TIMESTAMP ? WHERE key = ? AND column1 = ? AND column2 IN (?)", stmt)
	require.Equal(t, []any{int64(42), "row-1", "day", "a"}, args)
}

func TestCreateStmts(t *testing.T) {
	ks := &schema.Keyspace{Name: "app", ReplicationFactor: 3}
	require.Equal(t,
		`CREATE KEYSPACE IF NOT EXISTS app WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 3}`,
		createKeyspaceStmt(ks))

	require.Equal(t,
		"CREATE TABLE IF NOT EXISTS app.users (key text, column1 text, value text, PRIMARY KEY (key, column1))",
		createTableStmt("app", schema.Table{Name: "users", Kind: "Standard"}))
	require.Equal(t,
		"CREATE TABLE IF NOT EXISTS app.events (key text, column1 text, column2 text, value text, PRIMARY KEY (key, column1, column2))",
		createTableStmt("app", schema.Table{Name: "events", Kind: "Super"}))
}

func TestDriverConsistency(t *testing.T) {
	cases := []struct {
		in   types.Consistency
		want gocql.Consistency
	}{
		{types.One, gocql.One},
		{types.Quorum, gocql.Quorum},
		{types.LocalQuorum, gocql.LocalQuorum},
		{types.EachQuorum, gocql.EachQuorum},
		{types.All, gocql.All},
		{types.Any, gocql.Any},
		{types.Two, gocql.Two},
		{types.Three, gocql.Three},
		{types.LocalOne, gocql.LocalOne},
		{types.ConsistencyUnset, gocql.Quorum},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, driverConsistency(tc.in), "level %s", tc.in)
	}
}
