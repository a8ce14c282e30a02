// Package postgres implements the repo contracts on PostgreSQL using ent's
// SQL builder over a dialect.Driver.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/lib/pq"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
)

const uniqueViolation = "23505"

type store struct {
	drv dialect.Driver
	now func() time.Time
}

// New returns a repo.Client whose Close closes drv.
func New(drv dialect.Driver) *repo.Client {
	s := &store{drv: drv, now: time.Now}
	return repo.NewClient(doctors{s}, bookings{s}, chats{s}, drv.Close)
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

type statement interface {
	Query() (string, []any)
}

// exec runs st and returns the number of affected rows.
func exec(ctx context.Context, ex dialect.ExecQuerier, st statement) (int64, error) {
	query, args := st.Query()
	var res entsql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// query runs st and calls scan once per row.
func query(ctx context.Context, ex dialect.ExecQuerier, st statement, scan func(entsql.ColumnScanner) error) error {
	q, args := st.Query()
	var rows entsql.Rows
	if err := ex.Query(ctx, q, args, &rows); err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// queryOne is query for a single row; no rows yields repo.ErrNotFound.
func queryOne(ctx context.Context, ex dialect.ExecQuerier, st statement, scan func(entsql.ColumnScanner) error) error {
	found := false
	err := query(ctx, ex, st, func(rs entsql.ColumnScanner) error {
		found = true
		return scan(rs)
	})
	if err != nil {
		return err
	}
	if !found {
		return repo.ErrNotFound
	}
	return nil
}

func (s *store) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// jsonValue encodes v for a jsonb column. lib/pq sends []byte as bytea, so the
// document goes over the wire as text. A nil map is stored as NULL.
func jsonValue(v repo.WorkingHours) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeHours(raw []byte) (repo.WorkingHours, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out repo.WorkingHours
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
