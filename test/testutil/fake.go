// Package testutil provides testing utilities for the stratum project.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/schema"
	"github.com/arloliu/stratum/types"
)

// FakeGateway is an in-memory implementation of gateway.Gateway for testing.
//
// Rows are stored per table with timestamp last-write-wins semantics, and
// range scans walk row keys in lexical order, so enumeration tests get a
// stable ordering. Every method can be overridden through an OnX hook.
type FakeGateway struct {
	mu sync.Mutex

	// Artifact backs DescribeSchema. Required unless OnDescribeSchema is set.
	Artifact *schema.Keyspace

	// Keyspace is the active keyspace recorded by SetActiveKeyspace.
	Keyspace string

	// Calls records every gateway call in order, as "op(detail)" strings.
	Calls []string

	closed bool
	defs   map[string]types.TableDefinition
	tables map[string]map[string]*fakeRow

	// Hooks for custom behavior
	OnLogin             func(ctx context.Context, creds types.Credentials) error
	OnDescribeSchema    func(ctx context.Context, keyspace string) (map[string]types.TableDefinition, error)
	OnSetActiveKeyspace func(ctx context.Context, name string) error
	OnMultiGet          func(ctx context.Context, keys []string, scope gateway.SelectorScope, pred gateway.Predicate, cl types.Consistency) (map[string]gateway.RawRow, error)
	OnMultiCount        func(ctx context.Context, keys []string, scope gateway.SelectorScope, pred gateway.Predicate, cl types.Consistency) (map[string]int, error)
	OnBatchMutate       func(ctx context.Context, mutations gateway.MutationMap, cl types.Consistency) error
	OnGetRangeSlices    func(ctx context.Context, scope gateway.SelectorScope, pred gateway.Predicate, keyRange gateway.KeyRange, cl types.Consistency) ([]gateway.RawRow, error)
	OnTruncate          func(ctx context.Context, table string) error
}

// fakeRow holds one row. Flat tables use cols; nested tables use sups.
type fakeRow struct {
	cols map[string]fakeCell
	sups map[string]map[string]fakeCell
}

type fakeCell struct {
	value string
	ts    int64
	ttl   int32
}

// Compile-time assertion that FakeGateway implements gateway.Gateway.
var _ gateway.Gateway = (*FakeGateway)(nil)

// NewFakeGateway creates a fake gateway backed by the given artifact.
func NewFakeGateway(artifact *schema.Keyspace) *FakeGateway {
	f := &FakeGateway{
		Artifact: artifact,
		tables:   make(map[string]map[string]*fakeRow),
	}
	if artifact != nil {
		f.defs = artifact.Definitions()
	}

	return f
}

// Login performs the authentication handshake.
func (f *FakeGateway) Login(ctx context.Context, creds types.Credentials) error {
	f.record("Login(%s)", creds.Username)

	if f.OnLogin != nil {
		return f.OnLogin(ctx, creds)
	}

	return nil
}

// DescribeSchema returns the artifact's table definitions.
func (f *FakeGateway) DescribeSchema(ctx context.Context, keyspace string) (map[string]types.TableDefinition, error) {
	f.record("DescribeSchema(%s)", keyspace)

	if f.OnDescribeSchema != nil {
		return f.OnDescribeSchema(ctx, keyspace)
	}
	if f.Artifact == nil || f.Artifact.Name != keyspace {
		return nil, fmt.Errorf("testutil: unknown keyspace %s", keyspace)
	}

	return f.Artifact.Definitions(), nil
}

// SetActiveKeyspace records the active keyspace.
func (f *FakeGateway) SetActiveKeyspace(ctx context.Context, name string) error {
	f.record("SetActiveKeyspace(%s)", name)

	if f.OnSetActiveKeyspace != nil {
		return f.OnSetActiveKeyspace(ctx, name)
	}

	f.mu.Lock()
	f.Keyspace = name
	f.mu.Unlock()

	return nil
}

// MultiGet fetches the selected columns of the given rows.
func (f *FakeGateway) MultiGet(ctx context.Context, keys []string, scope gateway.SelectorScope, pred gateway.Predicate, cl types.Consistency) (map[string]gateway.RawRow, error) {
	f.record("MultiGet(%s,%d)", scope.Table, len(keys))

	if f.OnMultiGet != nil {
		return f.OnMultiGet(ctx, keys, scope, pred, cl)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]gateway.RawRow, len(keys))
	for _, key := range keys {
		row := f.rawRow(scope, pred, key)
		if row != nil {
			out[key] = *row
		}
	}

	return out, nil
}

// MultiCount counts the selected columns of the given rows.
func (f *FakeGateway) MultiCount(ctx context.Context, keys []string, scope gateway.SelectorScope, pred gateway.Predicate, cl types.Consistency) (map[string]int, error) {
	f.record("MultiCount(%s,%d)", scope.Table, len(keys))

	if f.OnMultiCount != nil {
		return f.OnMultiCount(ctx, keys, scope, pred, cl)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]int, len(keys))
	for _, key := range keys {
		n := 0
		if row := f.rawRow(scope, pred, key); row != nil {
			if len(row.SuperColumns) > 0 {
				n = len(row.SuperColumns)
			} else {
				n = len(row.Columns)
			}
		}
		out[key] = n
	}

	return out, nil
}

// BatchMutate applies all mutations with last-write-wins timestamps.
func (f *FakeGateway) BatchMutate(ctx context.Context, mutations gateway.MutationMap, cl types.Consistency) error {
	f.record("BatchMutate(%d)", len(mutations))

	if f.OnBatchMutate != nil {
		return f.OnBatchMutate(ctx, mutations, cl)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for key, tables := range mutations {
		for table, muts := range tables {
			for _, m := range muts {
				if err := f.applyMutation(table, key, m); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// GetRangeSlices returns a bounded page of rows in lexical key order.
func (f *FakeGateway) GetRangeSlices(ctx context.Context, scope gateway.SelectorScope, pred gateway.Predicate, keyRange gateway.KeyRange, cl types.Consistency) ([]gateway.RawRow, error) {
	f.record("GetRangeSlices(%s,%s,%d)", scope.Table, keyRange.StartKey, keyRange.Count)

	if f.OnGetRangeSlices != nil {
		return f.OnGetRangeSlices(ctx, scope, pred, keyRange, cl)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rows := f.tables[scope.Table]
	keys := make([]string, 0, len(rows))
	for key := range rows {
		if keyRange.StartKey != "" && key < keyRange.StartKey {
			continue
		}
		if keyRange.EndKey != "" && key > keyRange.EndKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if keyRange.Count > 0 && len(keys) > keyRange.Count {
		keys = keys[:keyRange.Count]
	}

	out := make([]gateway.RawRow, 0, len(keys))
	for _, key := range keys {
		if row := f.rawRow(scope, pred, key); row != nil {
			out = append(out, *row)
		} else {
			out = append(out, gateway.RawRow{Key: key})
		}
	}

	return out, nil
}

// Truncate deletes every row of the table.
func (f *FakeGateway) Truncate(ctx context.Context, table string) error {
	f.record("Truncate(%s)", table)

	if f.OnTruncate != nil {
		return f.OnTruncate(ctx, table)
	}

	f.mu.Lock()
	delete(f.tables, table)
	f.mu.Unlock()

	return nil
}

// CreateKeyspace replaces the artifact and clears all stored rows.
func (f *FakeGateway) CreateKeyspace(_ context.Context, ks *schema.Keyspace) error {
	f.record("CreateKeyspace(%s)", ks.Name)

	if err := ks.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	f.Artifact = ks
	f.defs = ks.Definitions()
	f.tables = make(map[string]map[string]*fakeRow)
	f.mu.Unlock()

	return nil
}

// DropKeyspace removes the artifact and all stored rows.
func (f *FakeGateway) DropKeyspace(_ context.Context, name string) error {
	f.record("DropKeyspace(%s)", name)

	f.mu.Lock()
	if f.Artifact != nil && f.Artifact.Name == name {
		f.Artifact = nil
		f.defs = nil
		f.tables = make(map[string]map[string]*fakeRow)
	}
	f.mu.Unlock()

	return nil
}

// Close marks the gateway closed.
func (f *FakeGateway) Close() {
	f.record("Close()")

	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// Closed reports whether Close was called.
func (f *FakeGateway) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// CallNames returns the recorded call names without their detail suffix.
func (f *FakeGateway) CallNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		names[i] = c[:strings.Index(c, "(")]
	}

	return names
}

// SeedRow stores flat columns directly, bypassing BatchMutate.
func (f *FakeGateway) SeedRow(table, key string, cols map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row := f.row(table, key)
	for name, value := range cols {
		row.cols[name] = fakeCell{value: value, ts: 1}
	}
}

// SeedSuperRow stores nested columns directly, bypassing BatchMutate.
func (f *FakeGateway) SeedSuperRow(table, key string, sups map[string]map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row := f.row(table, key)
	for sup, cols := range sups {
		inner, ok := row.sups[sup]
		if !ok {
			inner = make(map[string]fakeCell)
			row.sups[sup] = inner
		}
		for name, value := range cols {
			inner[name] = fakeCell{value: value, ts: 1}
		}
	}
}

func (f *FakeGateway) record(format string, args ...any) {
	f.mu.Lock()
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *FakeGateway) row(table, key string) *fakeRow {
	rows, ok := f.tables[table]
	if !ok {
		rows = make(map[string]*fakeRow)
		f.tables[table] = rows
	}
	row, ok := rows[key]
	if !ok {
		row = &fakeRow{cols: make(map[string]fakeCell), sups: make(map[string]map[string]fakeCell)}
		rows[key] = row
	}

	return row
}

func (f *FakeGateway) applyMutation(table, key string, m gateway.Mutation) error {
	switch {
	case m.Column != nil:
		row := f.row(table, key)
		if cur, ok := row.cols[m.Column.Name]; !ok || m.Column.Timestamp >= cur.ts {
			row.cols[m.Column.Name] = fakeCell{value: m.Column.Value, ts: m.Column.Timestamp, ttl: m.Column.TTL}
		}

	case m.SuperColumn != nil:
		row := f.row(table, key)
		inner, ok := row.sups[m.SuperColumn.Name]
		if !ok {
			inner = make(map[string]fakeCell)
			row.sups[m.SuperColumn.Name] = inner
		}
		for _, col := range m.SuperColumn.Columns {
			if cur, ok := inner[col.Name]; !ok || col.Timestamp >= cur.ts {
				inner[col.Name] = fakeCell{value: col.Value, ts: col.Timestamp, ttl: col.TTL}
			}
		}

	case m.Deletion != nil:
		f.applyDeletion(table, key, *m.Deletion)

	default:
		return fmt.Errorf("testutil: empty mutation for table %s key %s", table, key)
	}

	return nil
}

func (f *FakeGateway) applyDeletion(table, key string, d gateway.Deletion) {
	rows, ok := f.tables[table]
	if !ok {
		return
	}
	row, ok := rows[key]
	if !ok {
		return
	}

	switch {
	case d.SuperColumn != "" && len(d.ColumnNames) > 0:
		if inner, ok := row.sups[d.SuperColumn]; ok {
			for _, name := range d.ColumnNames {
				delete(inner, name)
			}
			if len(inner) == 0 {
				delete(row.sups, d.SuperColumn)
			}
		}

	case d.SuperColumn != "":
		delete(row.sups, d.SuperColumn)

	case len(d.ColumnNames) > 0:
		for _, name := range d.ColumnNames {
			delete(row.cols, name)
			delete(row.sups, name)
		}

	default:
		delete(rows, key)
	}

	if len(row.cols) == 0 && len(row.sups) == 0 {
		delete(rows, key)
	}
}

// rawRow builds the reply shape for one key, or nil when the row is absent.
// Caller holds f.mu.
func (f *FakeGateway) rawRow(scope gateway.SelectorScope, pred gateway.Predicate, key string) *gateway.RawRow {
	rows, ok := f.tables[scope.Table]
	if !ok {
		return nil
	}
	row, ok := rows[key]
	if !ok {
		return nil
	}

	out := &gateway.RawRow{Key: key}

	switch {
	case scope.SuperColumn != "":
		inner, ok := row.sups[scope.SuperColumn]
		if !ok {
			return nil
		}
		out.Columns = selectCells(inner, pred)

	case len(row.sups) > 0:
		names := selectNames(keysOf(row.sups), pred)
		for _, sup := range names {
			out.SuperColumns = append(out.SuperColumns, gateway.SuperColumn{
				Name: sup,
				// The predicate selects super columns; inner columns come
				// back whole.
				Columns: selectCells(row.sups[sup], gateway.Predicate{}),
			})
		}

	default:
		out.Columns = selectCells(row.cols, pred)
	}

	if len(out.Columns) == 0 && len(out.SuperColumns) == 0 {
		return nil
	}

	return out
}

func keysOf(m map[string]map[string]fakeCell) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	return names
}

// selectNames applies a predicate to a set of names and returns the
// selection in comparator order.
func selectNames(names []string, pred gateway.Predicate) []string {
	var out []string

	if len(pred.ColumnNames) > 0 {
		have := make(map[string]struct{}, len(names))
		for _, name := range names {
			have[name] = struct{}{}
		}
		for _, name := range pred.ColumnNames {
			if _, ok := have[name]; ok {
				out = append(out, name)
			}
		}
		sort.Strings(out)

		return out
	}

	for _, name := range names {
		if pred.Start != "" && name < pred.Start {
			continue
		}
		if pred.Finish != "" && name > pred.Finish {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	if pred.Reversed {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if pred.Count > 0 && len(out) > pred.Count {
		out = out[:pred.Count]
	}

	return out
}

func selectCells(cells map[string]fakeCell, pred gateway.Predicate) []gateway.Column {
	names := selectNames(keysOfCells(cells), pred)
	out := make([]gateway.Column, 0, len(names))
	for _, name := range names {
		cell := cells[name]
		out = append(out, gateway.Column{Name: name, Value: cell.value, Timestamp: cell.ts, TTL: cell.ttl})
	}

	return out
}

func keysOfCells(m map[string]fakeCell) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	return names
}
