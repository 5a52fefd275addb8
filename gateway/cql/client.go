package cql

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/schema"
	"github.com/arloliu/stratum/types"
)

// Client is a gocql-backed gateway.Gateway.
//
// Cells are rendered relationally: flat tables as (key, column1, value)
// with column1 clustering, nested tables as (key, column1, column2, value)
// with column1 holding the super-column name. The schema artifact tells the
// client which layout each table uses.
//
// The stratum core serializes gateway calls, so Client performs no internal
// locking.
type Client struct {
	cfg      Config
	session  *gocql.Session
	keyspace string
	defs     map[string]types.TableDefinition
}

// Compile-time assertion that Client implements gateway.Gateway.
var _ gateway.Gateway = (*Client)(nil)

// New creates a CQL gateway from the given config. The connection is not
// established until Login.
//
// Parameters:
//   - cfg: Connection settings; Addresses is required
//
// Returns:
//   - *Client: An unconnected gateway
//   - error: Config or artifact validation error
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg}
	if cfg.Artifact != nil {
		if err := cfg.Artifact.Validate(); err != nil {
			return nil, err
		}
		c.defs = cfg.Artifact.Definitions()
	}

	return c, nil
}

// Login establishes the driver session. Credentials with an empty username
// skip password authentication.
func (c *Client) Login(_ context.Context, creds types.Credentials) error {
	if c.session != nil {
		return nil
	}

	session, err := c.cfg.cluster(creds).CreateSession()
	if err != nil {
		return errors.Wrap(err, "stratum/cql: create session")
	}
	c.session = session

	return nil
}

// DescribeSchema returns the table definitions of the configured artifact.
func (c *Client) DescribeSchema(_ context.Context, keyspace string) (map[string]types.TableDefinition, error) {
	if c.cfg.Artifact == nil {
		return nil, errors.New("stratum/cql: no schema artifact configured")
	}
	if c.cfg.Artifact.Name != keyspace {
		return nil, errors.Errorf("stratum/cql: artifact describes keyspace %s, not %s", c.cfg.Artifact.Name, keyspace)
	}

	return c.cfg.Artifact.Definitions(), nil
}

// SetActiveKeyspace records the keyspace used to qualify statements.
func (c *Client) SetActiveKeyspace(_ context.Context, name string) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.keyspace = name

	return nil
}

// MultiGet fetches the selected columns of the given rows. Keys with no
// live columns are absent from the result.
func (c *Client) MultiGet(ctx context.Context, keys []string, scope gateway.SelectorScope, pred gateway.Predicate, cl types.Consistency) (map[string]gateway.RawRow, error) {
	name, super, err := c.tableInfo(scope.Table)
	if err != nil {
		return nil, err
	}

	stmt, args := selectStmt(name, super, scope, pred)
	out := make(map[string]gateway.RawRow, len(keys))
	for _, key := range keys {
		row, err := c.fetchRow(ctx, stmt, bindKey(args, key), key, super && scope.SuperColumn == "", pred.Count, cl)
		if err != nil {
			return nil, err
		}
		if row != nil {
			out[key] = *row
		}
	}

	return out, nil
}

// MultiCount counts the selected columns of the given rows.
func (c *Client) MultiCount(ctx context.Context, keys []string, scope gateway.SelectorScope, pred gateway.Predicate, cl types.Consistency) (map[string]int, error) {
	name, super, err := c.tableInfo(scope.Table)
	if err != nil {
		return nil, err
	}

	stmt, args := countStmt(name, super, scope, pred)
	grouped := super && scope.SuperColumn == ""

	out := make(map[string]int, len(keys))
	for _, key := range keys {
		iter := c.session.Query(stmt, bindKey(args, key)...).WithContext(ctx).Consistency(driverConsistency(cl)).Iter()

		n := 0
		if grouped {
			// Rows are (super, sub) pairs; count distinct super-column
			// names and cap after grouping, as selectStmt does.
			seen := make(map[string]struct{})
			var sup string
			for iter.Scan(&sup) {
				seen[sup] = struct{}{}
			}
			n = len(seen)
			if pred.Count > 0 && n > pred.Count {
				n = pred.Count
			}
		} else {
			var cn string
			for iter.Scan(&cn) {
				n++
			}
		}
		if err := iter.Close(); err != nil {
			return nil, errors.Wrapf(err, "stratum/cql: count %s key %s", scope.Table, key)
		}
		out[key] = n
	}

	return out, nil
}

// BatchMutate applies all mutations. Each row key becomes one unlogged
// batch, so mutations stay atomic per row.
func (c *Client) BatchMutate(ctx context.Context, mutations gateway.MutationMap, cl types.Consistency) error {
	if err := c.ready(); err != nil {
		return err
	}

	for key, tables := range mutations {
		batch := c.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
		batch.Cons = driverConsistency(cl)

		for table, muts := range tables {
			name, super, err := c.tableInfo(table)
			if err != nil {
				return err
			}
			for _, m := range muts {
				if err := appendMutation(batch, name, super, key, m); err != nil {
					return errors.Wrapf(err, "stratum/cql: mutate %s key %s", table, key)
				}
			}
		}

		if err := c.session.ExecuteBatch(batch); err != nil {
			return errors.Wrapf(err, "stratum/cql: batch mutate key %s", key)
		}
	}

	return nil
}

// GetRangeSlices fetches a bounded page of rows in partitioner token order.
// Keys whose columns are all dead still occupy a row slot so callers can
// page past them.
func (c *Client) GetRangeSlices(ctx context.Context, scope gateway.SelectorScope, pred gateway.Predicate, keyRange gateway.KeyRange, cl types.Consistency) ([]gateway.RawRow, error) {
	name, _, err := c.tableInfo(scope.Table)
	if err != nil {
		return nil, err
	}

	stmt, args := rangeKeysStmt(name, keyRange)
	iter := c.session.Query(stmt, args...).WithContext(ctx).Consistency(driverConsistency(cl)).Iter()

	var (
		keys []string
		key  string
	)
	for iter.Scan(&key) {
		keys = append(keys, key)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "stratum/cql: range scan %s", scope.Table)
	}

	rows, err := c.MultiGet(ctx, keys, scope, pred, cl)
	if err != nil {
		return nil, err
	}

	out := make([]gateway.RawRow, 0, len(keys))
	for _, k := range keys {
		if row, ok := rows[k]; ok {
			out = append(out, row)
		} else {
			out = append(out, gateway.RawRow{Key: k})
		}
	}

	return out, nil
}

// Truncate deletes every row of the table.
func (c *Client) Truncate(ctx context.Context, table string) error {
	name, _, err := c.tableInfo(table)
	if err != nil {
		return err
	}

	err = c.session.Query("TRUNCATE TABLE "+name).WithContext(ctx).Exec()

	return errors.Wrapf(err, "stratum/cql: truncate %s", table)
}

// CreateKeyspace creates the keyspace and tables described by the artifact.
func (c *Client) CreateKeyspace(ctx context.Context, ks *schema.Keyspace) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := ks.Validate(); err != nil {
		return err
	}

	if err := c.session.Query(createKeyspaceStmt(ks)).WithContext(ctx).Exec(); err != nil {
		return errors.Wrapf(err, "stratum/cql: create keyspace %s", ks.Name)
	}
	for _, t := range ks.Tables {
		if err := c.session.Query(createTableStmt(ks.Name, t)).WithContext(ctx).Exec(); err != nil {
			return errors.Wrapf(err, "stratum/cql: create table %s.%s", ks.Name, t.Name)
		}
	}

	return nil
}

// DropKeyspace removes the named keyspace.
func (c *Client) DropKeyspace(ctx context.Context, name string) error {
	if err := c.ready(); err != nil {
		return err
	}

	err := c.session.Query("DROP KEYSPACE IF EXISTS "+name).WithContext(ctx).Exec()

	return errors.Wrapf(err, "stratum/cql: drop keyspace %s", name)
}

// Close terminates the driver session.
func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
	}
}

func (c *Client) ready() error {
	if c.session == nil {
		return errors.New("stratum/cql: not connected")
	}

	return nil
}

func (c *Client) tableInfo(table string) (string, bool, error) {
	if err := c.ready(); err != nil {
		return "", false, err
	}
	if c.keyspace == "" {
		return "", false, errors.New("stratum/cql: no active keyspace")
	}

	def, ok := c.defs[table]
	if !ok {
		return "", false, errors.Errorf("stratum/cql: table %s not in schema artifact", table)
	}

	return qualify(c.keyspace, table), def.IsSuper(), nil
}

// fetchRow runs the cell fetch for one key. grouped selects the nested scan
// shape; superLimit caps the number of super columns after grouping.
func (c *Client) fetchRow(ctx context.Context, stmt string, args []any, key string, grouped bool, superLimit int, cl types.Consistency) (*gateway.RawRow, error) {
	iter := c.session.Query(stmt, args...).WithContext(ctx).Consistency(driverConsistency(cl)).Iter()

	row := &gateway.RawRow{Key: key}
	if grouped {
		index := make(map[string]int)
		var (
			sup, sub, value string
			writetime       int64
			ttl             int
		)
		for iter.Scan(&sup, &sub, &value, &writetime, &ttl) {
			i, ok := index[sup]
			if !ok {
				if superLimit > 0 && len(row.SuperColumns) == superLimit {
					break
				}
				row.SuperColumns = append(row.SuperColumns, gateway.SuperColumn{Name: sup})
				i = len(row.SuperColumns) - 1
				index[sup] = i
			}
			row.SuperColumns[i].Columns = append(row.SuperColumns[i].Columns, gateway.Column{
				Name:      sub,
				Value:     value,
				Timestamp: writetime,
				TTL:       int32(ttl),
			})
		}
	} else {
		var (
			name, value string
			writetime   int64
			ttl         int
		)
		for iter.Scan(&name, &value, &writetime, &ttl) {
			row.Columns = append(row.Columns, gateway.Column{
				Name:      name,
				Value:     value,
				Timestamp: writetime,
				TTL:       int32(ttl),
			})
		}
	}

	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "stratum/cql: fetch key %s", key)
	}
	if len(row.Columns) == 0 && len(row.SuperColumns) == 0 {
		return nil, nil
	}

	return row, nil
}

// appendMutation adds one mutation's statements to a batch.
func appendMutation(batch *gocql.Batch, name string, super bool, key string, m gateway.Mutation) error {
	switch {
	case m.Column != nil:
		if super {
			return fmt.Errorf("nested table requires a super column mutation")
		}
		stmt := insertStmt(name, false, m.Column.TTL)
		args := []any{key, m.Column.Name, m.Column.Value, m.Column.Timestamp}
		if m.Column.TTL > 0 {
			args = append(args, m.Column.TTL)
		}
		batch.Query(stmt, args...)

	case m.SuperColumn != nil:
		if !super {
			return fmt.Errorf("flat table cannot hold a super column mutation")
		}
		for _, col := range m.SuperColumn.Columns {
			stmt := insertStmt(name, true, col.TTL)
			args := []any{key, m.SuperColumn.Name, col.Name, col.Value, col.Timestamp}
			if col.TTL > 0 {
				args = append(args, col.TTL)
			}
			batch.Query(stmt, args...)
		}

	case m.Deletion != nil:
		stmt, args := deleteStmt(name, super, key, *m.Deletion)
		batch.Query(stmt, args...)

	default:
		return fmt.Errorf("empty mutation")
	}

	return nil
}
