package stratum

import (
	"fmt"
	"time"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/types"
)

// Query option defaults, matching the store's slice defaults.
const (
	defaultRangeCount = 100
	defaultStride     = 100
)

// queryOptions collects the variable-shaped per-call arguments. Which
// fields a given operation accepts is enforced by normalizeQuery; anything
// outside the documented shapes is rejected with a descriptive error rather
// than silently misinterpreted.
type queryOptions struct {
	superColumn    string
	hasSuperColumn bool

	columns    []string
	hasColumns bool

	start    string
	finish   string
	reversed bool
	count    int
	hasRange bool

	consistency types.Consistency

	ttl    time.Duration
	hasTTL bool

	stride    int
	hasStride bool

	delay    time.Duration
	hasDelay bool
}

func defaultQueryOptions() queryOptions {
	return queryOptions{
		count:  defaultRangeCount,
		stride: defaultStride,
	}
}

// QueryOption configures one table operation. Options outside an
// operation's documented shape make the call fail with an error wrapping
// types.ErrInvalidQuery.
type QueryOption func(*queryOptions)

// WithSuperColumn scopes the operation to one super column of a nested
// table. Rejected on flat tables.
func WithSuperColumn(name string) QueryOption {
	return func(o *queryOptions) {
		o.superColumn = name
		o.hasSuperColumn = true
	}
}

// WithColumns selects an explicit set of column names. Mutually exclusive
// with the range options.
func WithColumns(names ...string) QueryOption {
	return func(o *queryOptions) {
		o.columns = names
		o.hasColumns = true
	}
}

// WithColumnRange bounds the selected columns. Empty strings mean "from the
// beginning" and "to the end" respectively.
func WithColumnRange(start, finish string) QueryOption {
	return func(o *queryOptions) {
		o.start = start
		o.finish = finish
		o.hasRange = true
	}
}

// WithReversed iterates the column range in descending comparator order.
func WithReversed(reversed bool) QueryOption {
	return func(o *queryOptions) {
		o.reversed = reversed
		o.hasRange = true
	}
}

// WithCount limits the number of columns returned per row (default: 100).
func WithCount(n int) QueryOption {
	return func(o *queryOptions) {
		o.count = n
		o.hasRange = true
	}
}

// WithConsistency overrides the session default for this call only.
func WithConsistency(c types.Consistency) QueryOption {
	return func(o *queryOptions) {
		o.consistency = c
	}
}

// WithTTL expires the written columns after the given duration.
// Only meaningful for Set.
func WithTTL(ttl time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.ttl = ttl
		o.hasTTL = true
	}
}

// WithStride sets the page size of an enumeration (default: 100). The
// stride must be at least 2; each continuation page re-fetches the boundary
// key, so a single-row page cannot make progress.
func WithStride(n int) QueryOption {
	return func(o *queryOptions) {
		o.stride = n
		o.hasStride = true
	}
}

// WithPageDelay pauses between enumeration pages so a long scan cannot
// monopolize the single in-flight request slot.
func WithPageDelay(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.delay = d
		o.hasDelay = true
	}
}

// queryDescriptor is the canonical form every call normalizes to: a
// selector scope, a column predicate, and an optional per-call consistency
// override (ConsistencyUnset when the session default applies).
type queryDescriptor struct {
	scope       gateway.SelectorScope
	predicate   gateway.Predicate
	consistency types.Consistency
}

// normalizeQuery resolves the variable-shaped option list into a canonical
// descriptor for one operation on one table. The function is pure: it
// inspects only its arguments and rejects every combination outside the
// operation's documented shape.
func normalizeQuery(def types.TableDefinition, op opCode, opts []QueryOption) (queryDescriptor, queryOptions, error) {
	o := defaultQueryOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkApplicable(op, o); err != nil {
		return queryDescriptor{}, queryOptions{}, err
	}

	if o.hasSuperColumn {
		if !def.IsSuper() {
			return queryDescriptor{}, queryOptions{}, fmt.Errorf(
				"%w: super-column scope on flat table %s", types.ErrInvalidQuery, def.Name)
		}
		if o.superColumn == "" {
			return queryDescriptor{}, queryOptions{}, fmt.Errorf(
				"%w: super-column name cannot be empty", types.ErrInvalidQuery)
		}
	}

	if o.hasColumns && o.hasRange {
		return queryDescriptor{}, queryOptions{}, fmt.Errorf(
			"%w: explicit column list cannot be combined with range options", types.ErrInvalidQuery)
	}

	desc := queryDescriptor{
		scope: gateway.SelectorScope{
			Table:       def.Name,
			SuperColumn: o.superColumn,
		},
		consistency: o.consistency,
	}

	if o.hasColumns {
		if len(o.columns) == 0 {
			return queryDescriptor{}, queryOptions{}, fmt.Errorf(
				"%w: explicit column list cannot be empty", types.ErrInvalidQuery)
		}
		for _, name := range o.columns {
			if name == "" {
				return queryDescriptor{}, queryOptions{}, fmt.Errorf(
					"%w: column names cannot be empty", types.ErrInvalidQuery)
			}
		}
		desc.predicate = gateway.Predicate{ColumnNames: o.columns}

		return desc, o, nil
	}

	if o.count <= 0 {
		return queryDescriptor{}, queryOptions{}, fmt.Errorf(
			"%w: count must be positive, got %d", types.ErrInvalidQuery, o.count)
	}
	if o.hasStride && o.stride < 2 {
		// A continuation page restarts at the boundary key inclusive, so one
		// slot of every page is spent on the already-delivered boundary. A
		// stride of 1 could never advance past the first row.
		return queryDescriptor{}, queryOptions{}, fmt.Errorf(
			"%w: stride must be at least 2, got %d", types.ErrInvalidQuery, o.stride)
	}

	desc.predicate = gateway.Predicate{
		Start:    o.start,
		Finish:   o.finish,
		Reversed: o.reversed,
		Count:    o.count,
	}

	return desc, o, nil
}

// checkApplicable rejects options an operation does not accept.
func checkApplicable(op opCode, o queryOptions) error {
	reject := func(option string) error {
		return fmt.Errorf("%w: option %s is not applicable to %s", types.ErrInvalidQuery, option, op)
	}

	switch op {
	case opGet, opCount:
		if o.hasTTL {
			return reject("ttl")
		}
		if o.hasStride {
			return reject("stride")
		}
		if o.hasDelay {
			return reject("page delay")
		}
	case opSet:
		if o.hasSuperColumn {
			return reject("super-column scope")
		}
		if o.hasColumns {
			return reject("column list")
		}
		if o.hasRange {
			return reject("column range")
		}
		if o.hasStride {
			return reject("stride")
		}
		if o.hasDelay {
			return reject("page delay")
		}
	case opRemove:
		if o.hasRange {
			return reject("column range")
		}
		if o.hasTTL {
			return reject("ttl")
		}
		if o.hasStride {
			return reject("stride")
		}
		if o.hasDelay {
			return reject("page delay")
		}
	case opEnumerate:
		if o.hasRange {
			return reject("column range")
		}
		if o.hasTTL {
			return reject("ttl")
		}
	case opTruncate:
		if o.hasSuperColumn || o.hasColumns || o.hasRange || o.hasTTL || o.hasStride || o.hasDelay {
			return fmt.Errorf("%w: truncate accepts no query options", types.ErrInvalidQuery)
		}
	}

	return nil
}
