package cql

import (
	"fmt"
	"strings"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/schema"
	"github.com/arloliu/stratum/types"
)

// nameColumn and subColumn are the clustering columns of the relational
// rendering: flat tables store cells as (key, column1, value), nested tables
// as (key, column1, column2, value) with column1 holding the super-column
// name.
const (
	nameColumn = "column1"
	subColumn  = "column2"
)

func qualify(keyspace, table string) string {
	return keyspace + "." + table
}

// predicateClause renders a column predicate against the given clustering
// column. It returns additional WHERE conditions (each prefixed with
// " AND ") and their bind arguments.
func predicateClause(col string, pred gateway.Predicate) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	if len(pred.ColumnNames) > 0 {
		sb.WriteString(" AND ")
		sb.WriteString(col)
		sb.WriteString(" IN (")
		for i, name := range pred.ColumnNames {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, name)
		}
		sb.WriteString(")")

		return sb.String(), args
	}

	if pred.Start != "" {
		sb.WriteString(" AND ")
		sb.WriteString(col)
		sb.WriteString(" >= ?")
		args = append(args, pred.Start)
	}
	if pred.Finish != "" {
		sb.WriteString(" AND ")
		sb.WriteString(col)
		sb.WriteString(" <= ?")
		args = append(args, pred.Finish)
	}

	return sb.String(), args
}

// selectStmt builds the per-key cell fetch. For nested tables scoped to one
// super column the predicate applies to the subcolumn names and the reply is
// a flat column list.
func selectStmt(name string, super bool, scope gateway.SelectorScope, pred gateway.Predicate) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	switch {
	case super && scope.SuperColumn == "":
		sb.WriteString("SELECT " + nameColumn + ", " + subColumn + ", value, writetime(value), ttl(value) FROM ")
	case super:
		sb.WriteString("SELECT " + subColumn + ", value, writetime(value), ttl(value) FROM ")
	default:
		sb.WriteString("SELECT " + nameColumn + ", value, writetime(value), ttl(value) FROM ")
	}
	sb.WriteString(name)
	sb.WriteString(" WHERE key = ?")
	args = append(args, keyArg)

	predCol := nameColumn
	if super && scope.SuperColumn != "" {
		sb.WriteString(" AND " + nameColumn + " = ?")
		args = append(args, scope.SuperColumn)
		predCol = subColumn
	}

	clause, clauseArgs := predicateClause(predCol, pred)
	sb.WriteString(clause)
	args = append(args, clauseArgs...)

	if pred.Reversed {
		if super {
			sb.WriteString(" ORDER BY " + nameColumn + " DESC, " + subColumn + " DESC")
		} else {
			sb.WriteString(" ORDER BY " + nameColumn + " DESC")
		}
	}

	// A cell limit only matches the column count for flat replies; unscoped
	// nested fetches cap super columns after grouping instead.
	if pred.Count > 0 && !(super && scope.SuperColumn == "") {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", pred.Count))
	}

	return sb.String(), args
}

// countStmt builds the per-key name fetch backing a count. COUNT(*) cannot
// honor a cell cap in CQL, where LIMIT applies to the aggregate's single
// result row, so the client counts the fetched names instead. Unscoped
// nested counts tally distinct super-column names after the fetch, like
// selectStmt.
func countStmt(name string, super bool, scope gateway.SelectorScope, pred gateway.Predicate) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	if super && scope.SuperColumn != "" {
		sb.WriteString("SELECT " + subColumn + " FROM ")
	} else {
		sb.WriteString("SELECT " + nameColumn + " FROM ")
	}
	sb.WriteString(name)
	sb.WriteString(" WHERE key = ?")
	args = append(args, keyArg)

	predCol := nameColumn
	if super && scope.SuperColumn != "" {
		sb.WriteString(" AND " + nameColumn + " = ?")
		args = append(args, scope.SuperColumn)
		predCol = subColumn
	}

	clause, clauseArgs := predicateClause(predCol, pred)
	sb.WriteString(clause)
	args = append(args, clauseArgs...)

	if pred.Count > 0 && !(super && scope.SuperColumn == "") {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", pred.Count))
	}

	return sb.String(), args
}

// keyArg marks the position of the row key in a statement's bind arguments.
// The client substitutes the concrete key per row.
type keyPlaceholder struct{}

var keyArg = keyPlaceholder{}

func bindKey(args []any, key string) []any {
	bound := make([]any, len(args))
	for i, a := range args {
		if _, ok := a.(keyPlaceholder); ok {
			bound[i] = key
		} else {
			bound[i] = a
		}
	}

	return bound
}

// rangeKeysStmt builds the distinct row-key scan for range fetches. Keys are
// ordered and bounded by partitioner token, matching the store's row order.
func rangeKeysStmt(name string, keyRange gateway.KeyRange) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString("SELECT DISTINCT key FROM ")
	sb.WriteString(name)

	if keyRange.StartKey != "" {
		sb.WriteString(" WHERE token(key) >= token(?)")
		args = append(args, keyRange.StartKey)
	}
	if keyRange.EndKey != "" {
		if keyRange.StartKey == "" {
			sb.WriteString(" WHERE token(key) <= token(?)")
		} else {
			sb.WriteString(" AND token(key) <= token(?)")
		}
		args = append(args, keyRange.EndKey)
	}
	if keyRange.Count > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", keyRange.Count))
	}

	return sb.String(), args
}

// insertStmt builds the single-cell upsert.
func insertStmt(name string, super bool, ttl int32) string {
	var sb strings.Builder

	sb.WriteString("INSERT INTO ")
	sb.WriteString(name)
	if super {
		sb.WriteString(" (key, " + nameColumn + ", " + subColumn + ", value) VALUES (?, ?, ?, ?)")
	} else {
		sb.WriteString(" (key, " + nameColumn + ", value) VALUES (?, ?, ?)")
	}
	sb.WriteString(" USING TIMESTAMP ?")
	if ttl > 0 {
		sb.WriteString(" AND TTL ?")
	}

	return sb.String()
}

// deleteStmt builds the deletion for one row: the whole row, one super
// column, or an explicit set of column names.
func deleteStmt(name string, super bool, key string, d gateway.Deletion) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString("DELETE FROM ")
	sb.WriteString(name)
	sb.WriteString(" USING TIMESTAMP ? WHERE key = ?")
	args = append(args, d.Timestamp, key)

	col := nameColumn
	if super && d.SuperColumn != "" {
		sb.WriteString(" AND " + nameColumn + " = ?")
		args = append(args, d.SuperColumn)
		col = subColumn
	}

	if len(d.ColumnNames) > 0 {
		sb.WriteString(" AND " + col + " IN (")
		for i, cn := range d.ColumnNames {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, cn)
		}
		sb.WriteString(")")
	}

	return sb.String(), args
}

// createKeyspaceStmt builds the keyspace bootstrap statement.
func createKeyspaceStmt(ks *schema.Keyspace) string {
	return fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`,
		ks.Name, ks.ReplicationFactor)
}

// createTableStmt builds the table bootstrap statement for one artifact
// entry. Nested tables get a second clustering column for subcolumn names.
func createTableStmt(keyspace string, t schema.Table) string {
	if types.TableKind(t.Kind) == types.TableSuper {
		return fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (key text, %s text, %s text, value text, PRIMARY KEY (key, %s, %s))",
			qualify(keyspace, t.Name), nameColumn, subColumn, nameColumn, subColumn)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (key text, %s text, value text, PRIMARY KEY (key, %s))",
		qualify(keyspace, t.Name), nameColumn, nameColumn)
}
