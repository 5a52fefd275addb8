package stratum

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/types"
)

// RowFunc receives one enumerated row. Returning a non-nil error halts the
// scan; that error is returned once from Enumerate.
//
// The callback is the backpressure contract: the enumerator does not
// advance to the next row, or fetch the next page, until the callback
// returns. At most one row is ever unacknowledged.
type RowFunc func(key string, row *types.Row) error

// Enumerate visits every row of the table exactly once, in row-key order as
// paginated by the store.
//
// Pages of stride rows (default 100, WithStride to change) are fetched
// starting at the empty key; each continuation restarts just after the last
// seen key, so a row already delivered is never revisited. A page shorter
// than the stride, or a continuation page carrying nothing beyond the
// boundary key, signals exhaustion and ends the scan normally. A page
// longer than the requested stride fails with types.ErrPageOverflow.
//
// Like every table operation, enumeration is queued until the handle is
// ready and holds the handle's single in-flight request slot for the whole
// scan; use WithPageDelay to pause between pages.
//
// Parameters:
//   - ctx: Context for cancellation between rows and pages
//   - fn: Per-row callback; non-nil return halts the scan
//   - opts: Column filter, consistency, stride and delay options
//
// Returns:
//   - error: nil after the last row, the callback's error, or a gateway or
//     normalization error
func (t *Table) Enumerate(ctx context.Context, fn RowFunc, opts ...QueryOption) error {
	if fn == nil {
		return fmt.Errorf("%w: row callback is required", types.ErrInvalidQuery)
	}

	return t.queue.call(ctx, opEnumerate, func(ctx context.Context) error {
		return t.doEnumerate(ctx, fn, opts)
	})
}

func (t *Table) doEnumerate(ctx context.Context, fn RowFunc, opts []QueryOption) error {
	desc, qo, err := normalizeQuery(t.definition(), opEnumerate, opts)
	if err != nil {
		return err
	}

	cl, err := t.session.resolveRead(desc.consistency)
	if err != nil {
		return err
	}

	metrics := t.session.config.Metrics
	logger := t.session.config.Logger

	var (
		boundary  string
		firstPage = true
		visited   int
	)

	for {
		keyRange := gateway.KeyRange{StartKey: boundary, Count: qo.stride}

		metrics.IncRangePageTotal(t.name)
		rows, err := t.session.gw.GetRangeSlices(ctx, desc.scope, desc.predicate, keyRange, cl)
		if err != nil {
			metrics.IncRangePageError(t.name)

			return &types.RequestError{Op: "get_range_slices", Table: t.name, Cause: err}
		}
		if len(rows) > qo.stride {
			metrics.IncRangePageError(t.name)

			return types.ErrPageOverflow
		}

		progressed := false
		for _, raw := range rows {
			// The continuation restarts at the boundary key, which the
			// store returns again; skip it instead of re-delivering.
			if !firstPage && raw.Key == boundary {
				continue
			}
			progressed = true

			if row := flattenRow(raw); row != nil {
				if err := fn(raw.Key, row); err != nil {
					return err
				}
				visited++
			}

			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if len(rows) < qo.stride {
			break
		}
		if !firstPage && !progressed {
			// The page held nothing beyond the carried-over boundary key:
			// exhaustion, not an error.
			break
		}

		boundary = rows[len(rows)-1].Key
		firstPage = false

		if qo.delay > 0 {
			select {
			case <-time.After(qo.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	logger.Debug("enumeration complete", "table", t.name, "rows", visited)

	return nil
}
