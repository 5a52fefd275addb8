package stratum

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/types"
)

// tableState tracks a handle's lifecycle. A handle is constructed awaiting
// schema, becomes ready when the session publishes a definition for its
// name, and turns permanently invalid when the keyspace lacks one.
type tableState int32

const (
	tableAwaitingSchema tableState = iota
	tableReady
	tableInvalid
)

// Table is a per-table handle bound to a Session.
//
// A handle becomes usable only after the session's schema metadata contains
// its table definition. Until then every operation is captured on the
// handle's own FIFO queue and replayed in submission order on the readiness
// flip; operations issued afterwards execute immediately. Selecting a new
// keyspace re-gates the handle until the new metadata is processed.
//
// Table is safe for concurrent use; its operations are serialized on one
// worker, so no two RPC calls from one handle are ever in flight at once.
type Table struct {
	session *Session
	name    string
	gate    *gate
	queue   *dispatcher

	mu      sync.Mutex
	state   tableState
	def     types.TableDefinition
	isSuper bool
}

func newTable(s *Session, name string) *Table {
	t := &Table{
		session: s,
		name:    name,
		gate:    newGate(),
		state:   tableAwaitingSchema,
	}
	t.queue = newDispatcher("table:"+name, s.config.QueueCapacity, t.gate, s.config.Logger, s.config.Metrics)

	return t
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Definition returns the bound table definition and whether the handle is
// currently ready.
func (t *Table) Definition() (types.TableDefinition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.def, t.state == tableReady
}

// schemaUpdated implements schemaObserver. Binding copies the definition
// fields onto the handle and derives the nested-layout flag before the gate
// reopens, so a drained command never observes half-updated metadata.
func (t *Table) schemaUpdated(keyspace string, defs map[string]types.TableDefinition) {
	t.mu.Lock()
	if t.state == tableInvalid {
		t.mu.Unlock()

		return
	}

	def, ok := defs[t.name]
	if !ok {
		t.state = tableInvalid
		t.mu.Unlock()

		err := &types.TableNotFoundError{Table: t.name, Keyspace: keyspace}
		t.gate.fail(err)
		t.session.config.Logger.Error("table missing from keyspace",
			"table", t.name,
			"keyspace", keyspace,
		)
		t.session.notifyError(err)

		return
	}

	t.gate.reset()
	t.def = types.TableDefinition{
		Name:          def.Name,
		Kind:          def.Kind,
		Comparator:    def.Comparator,
		Subcomparator: def.Subcomparator,
	}
	t.isSuper = def.IsSuper()
	t.state = tableReady
	t.mu.Unlock()

	t.gate.open()
}

// shutdown implements schemaObserver; the session calls it on Close.
func (t *Table) shutdown() {
	t.gate.fail(types.ErrSessionClosed)
	t.queue.close()
}

// definition returns the bound definition; only valid on the worker after
// the gate opened.
func (t *Table) definition() types.TableDefinition {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.def
}

// Get fetches one row and returns its flattened form.
//
// A missing row yields a nil Row and no error. The single-key form returns
// the bare row rather than a one-entry map; use GetMulti for several keys.
//
// Parameters:
//   - ctx: Context for cancellation
//   - key: Row key
//   - opts: Column selection and consistency options
//
// Returns:
//   - *types.Row: The flattened row, or nil when absent
//   - error: Normalization or gateway error
func (t *Table) Get(ctx context.Context, key string, opts ...QueryOption) (*types.Row, error) {
	rows, err := t.GetMulti(ctx, []string{key}, opts...)
	if err != nil {
		return nil, err
	}

	return rows[key], nil
}

// GetMulti fetches several rows in one multi-key request.
//
// Keys with no matching row are absent from the result.
//
// Parameters:
//   - ctx: Context for cancellation
//   - keys: Row keys (at least one)
//   - opts: Column selection and consistency options
//
// Returns:
//   - map[string]*types.Row: Flattened rows keyed by row key
//   - error: Normalization or gateway error
func (t *Table) GetMulti(ctx context.Context, keys []string, opts ...QueryOption) (map[string]*types.Row, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: at least one key is required", types.ErrInvalidQuery)
	}

	var result map[string]*types.Row
	err := t.queue.call(ctx, opGet, func(ctx context.Context) error {
		var runErr error
		result, runErr = t.doGet(ctx, keys, opts)

		return runErr
	})

	return result, err
}

func (t *Table) doGet(ctx context.Context, keys []string, opts []QueryOption) (map[string]*types.Row, error) {
	desc, _, err := normalizeQuery(t.definition(), opGet, opts)
	if err != nil {
		return nil, err
	}

	cl, err := t.session.resolveRead(desc.consistency)
	if err != nil {
		return nil, err
	}

	metrics := t.session.config.Metrics
	metrics.IncReadTotal(t.name)
	start := time.Now()

	raw, err := t.session.gw.MultiGet(ctx, keys, desc.scope, desc.predicate, cl)
	metrics.ObserveReadDuration(t.name, time.Since(start).Seconds())
	if err != nil {
		metrics.IncReadError(t.name)

		return nil, &types.RequestError{Op: "multiget", Table: t.name, Cause: err}
	}

	rows := make(map[string]*types.Row, len(raw))
	for key, rawRow := range raw {
		rawRow.Key = key
		if row := flattenRow(rawRow); row != nil {
			rows[key] = row
		}
	}

	return rows, nil
}

// Count returns the number of selected columns of one row.
//
// The single-key form returns the bare count; use CountMulti for several
// keys. A missing row counts zero.
//
// Parameters:
//   - ctx: Context for cancellation
//   - key: Row key
//   - opts: Column selection and consistency options
//
// Returns:
//   - int: Column count
//   - error: Normalization or gateway error
func (t *Table) Count(ctx context.Context, key string, opts ...QueryOption) (int, error) {
	counts, err := t.CountMulti(ctx, []string{key}, opts...)
	if err != nil {
		return 0, err
	}

	return counts[key], nil
}

// CountMulti counts the selected columns of several rows in one request.
//
// Parameters:
//   - ctx: Context for cancellation
//   - keys: Row keys (at least one)
//   - opts: Column selection and consistency options
//
// Returns:
//   - map[string]int: Column counts keyed by row key
//   - error: Normalization or gateway error
func (t *Table) CountMulti(ctx context.Context, keys []string, opts ...QueryOption) (map[string]int, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: at least one key is required", types.ErrInvalidQuery)
	}

	var result map[string]int
	err := t.queue.call(ctx, opCount, func(ctx context.Context) error {
		var runErr error
		result, runErr = t.doCount(ctx, keys, opts)

		return runErr
	})

	return result, err
}

func (t *Table) doCount(ctx context.Context, keys []string, opts []QueryOption) (map[string]int, error) {
	desc, _, err := normalizeQuery(t.definition(), opCount, opts)
	if err != nil {
		return nil, err
	}

	cl, err := t.session.resolveRead(desc.consistency)
	if err != nil {
		return nil, err
	}

	metrics := t.session.config.Metrics
	metrics.IncReadTotal(t.name)
	start := time.Now()

	counts, err := t.session.gw.MultiCount(ctx, keys, desc.scope, desc.predicate, cl)
	metrics.ObserveReadDuration(t.name, time.Since(start).Seconds())
	if err != nil {
		metrics.IncReadError(t.name)

		return nil, &types.RequestError{Op: "multicount", Table: t.name, Cause: err}
	}

	return counts, nil
}

// Set writes one row's values as a single atomic-per-row batch mutation.
//
// Every value is stringified on write. For flat tables each property
// becomes one column; for nested tables each top-level property names a
// super column whose value must itself be a column map (map[string]any,
// map[string]string or types.Columns). All mutations share one timestamp
// from the session's TimestampProvider.
//
// Parameters:
//   - ctx: Context for cancellation
//   - key: Row key
//   - values: Column values, shaped per the table layout
//   - opts: Consistency and TTL options
//
// Returns:
//   - error: Normalization, value-shape or gateway error
func (t *Table) Set(ctx context.Context, key string, values map[string]any, opts ...QueryOption) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: at least one column value is required", types.ErrInvalidValue)
	}

	return t.queue.call(ctx, opSet, func(ctx context.Context) error {
		return t.doSet(ctx, key, values, opts)
	})
}

func (t *Table) doSet(ctx context.Context, key string, values map[string]any, opts []QueryOption) error {
	desc, qo, err := normalizeQuery(t.definition(), opSet, opts)
	if err != nil {
		return err
	}

	cl, err := t.session.resolveWrite(desc.consistency)
	if err != nil {
		return err
	}

	ts := t.session.timestamp()
	ttl := int32(qo.ttl / time.Second)

	var muts []gateway.Mutation
	if t.isNested() {
		muts, err = buildSuperMutations(values, ts, ttl)
	} else {
		muts, err = buildColumnMutations(values, ts, ttl)
	}
	if err != nil {
		return err
	}

	return t.mutate(ctx, "batch_mutate", gateway.MutationMap{key: {t.name: muts}}, cl)
}

// Remove deletes columns of one row.
//
// With WithColumns the deletion targets exactly those columns (or the named
// super column's subcolumns when combined with WithSuperColumn). Without an
// explicit list the entire row (or the entire named super column) is
// deleted as of a freshly generated timestamp.
//
// Parameters:
//   - ctx: Context for cancellation
//   - key: Row key
//   - opts: Column selection and consistency options
//
// Returns:
//   - error: Normalization or gateway error
func (t *Table) Remove(ctx context.Context, key string, opts ...QueryOption) error {
	return t.queue.call(ctx, opRemove, func(ctx context.Context) error {
		return t.doRemove(ctx, key, opts)
	})
}

func (t *Table) doRemove(ctx context.Context, key string, opts []QueryOption) error {
	desc, _, err := normalizeQuery(t.definition(), opRemove, opts)
	if err != nil {
		return err
	}

	cl, err := t.session.resolveWrite(desc.consistency)
	if err != nil {
		return err
	}

	del := gateway.Deletion{
		Timestamp:   t.session.timestamp(),
		SuperColumn: desc.scope.SuperColumn,
		ColumnNames: desc.predicate.ColumnNames,
	}
	muts := []gateway.Mutation{{Deletion: &del}}

	return t.mutate(ctx, "remove", gateway.MutationMap{key: {t.name: muts}}, cl)
}

// Truncate unconditionally deletes every row of the table.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Gateway error
func (t *Table) Truncate(ctx context.Context) error {
	return t.queue.call(ctx, opTruncate, func(ctx context.Context) error {
		metrics := t.session.config.Metrics
		metrics.IncWriteTotal(t.name)
		start := time.Now()

		err := t.session.gw.Truncate(ctx, t.name)
		metrics.ObserveWriteDuration(t.name, time.Since(start).Seconds())
		if err != nil {
			metrics.IncWriteError(t.name)

			return &types.RequestError{Op: "truncate", Table: t.name, Cause: err}
		}

		return nil
	})
}

// Slice reports that indexed slice queries are unsupported.
//
// The operation exists so callers porting from clients that had it get a
// defined failure instead of a silent no-op.
//
// Returns:
//   - error: Always types.ErrSliceUnsupported
func (t *Table) Slice(_ context.Context, _ ...QueryOption) error {
	t.session.config.Logger.Warn("slice query rejected", "table", t.name)

	return types.ErrSliceUnsupported
}

// mutate sends one batch mutation with write metrics around it.
func (t *Table) mutate(ctx context.Context, op string, muts gateway.MutationMap, cl types.Consistency) error {
	metrics := t.session.config.Metrics
	metrics.IncWriteTotal(t.name)
	start := time.Now()

	err := t.session.gw.BatchMutate(ctx, muts, cl)
	metrics.ObserveWriteDuration(t.name, time.Since(start).Seconds())
	if err != nil {
		metrics.IncWriteError(t.name)

		return &types.RequestError{Op: op, Table: t.name, Cause: err}
	}

	return nil
}

func (t *Table) isNested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.isSuper
}
