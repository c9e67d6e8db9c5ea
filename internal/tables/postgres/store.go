// Package postgres implements the table store on a single JSONB-backed Postgres table,
// so the service can run against a self-hosted database instead of the hosted table service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

// Store keeps every logical table in table_records, keyed by table_name.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Postgres table store. Migrations must already be applied.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func newID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Select returns matching records in insertion order unless q.Sort says otherwise.
func (s *Store) Select(ctx context.Context, table string, q tables.Query) ([]tables.Record, error) {
	var sb strings.Builder
	args := []interface{}{table}
	sb.WriteString(`SELECT id, fields FROM table_records WHERE table_name = $1`)
	if q.Filter != nil {
		args = append(args, q.Filter.Field, q.Filter.Values)
		fmt.Fprintf(&sb, ` AND COALESCE(fields->>$%d, '') = ANY($%d)`, len(args)-1, len(args))
	}
	sb.WriteString(` ORDER BY `)
	for _, o := range q.Sort {
		args = append(args, o.Field)
		dir := "ASC"
		if o.Direction == tables.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, `fields->>$%d %s, `, len(args), dir)
	}
	sb.WriteString(`created_at, id`)
	if q.MaxRecords > 0 {
		args = append(args, q.MaxRecords)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []tables.Record
	for rows.Next() {
		var rec tables.Record
		if err := rows.Scan(&rec.ID, &rec.Fields); err != nil {
			return nil, err
		}
		if rec.Fields == nil {
			rec.Fields = tables.Fields{}
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Create inserts rows in one transaction.
func (s *Store) Create(ctx context.Context, table string, rows []tables.Fields) ([]tables.Record, error) {
	if err := tables.CheckBatch(len(rows)); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `INSERT INTO table_records (id, table_name, fields, created_at)
		VALUES ($1, $2, $3::jsonb, clock_timestamp())
		RETURNING id, fields`
	out := make([]tables.Record, 0, len(rows))
	for _, f := range rows {
		if f == nil {
			f = tables.Fields{}
		}
		var rec tables.Record
		if err := tx.QueryRow(ctx, q, newID(), table, f).Scan(&rec.ID, &rec.Fields); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// Update merges fields into the stored JSON object.
func (s *Store) Update(ctx context.Context, table, id string, fields tables.Fields) (tables.Record, error) {
	if fields == nil {
		fields = tables.Fields{}
	}
	const q = `UPDATE table_records SET fields = fields || $3::jsonb
		WHERE table_name = $1 AND id = $2
		RETURNING id, fields`
	var rec tables.Record
	err := s.pool.QueryRow(ctx, q, table, id, fields).Scan(&rec.ID, &rec.Fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return tables.Record{}, tables.ErrRecordNotFound
	}
	if err != nil {
		return tables.Record{}, err
	}
	return rec, nil
}

// Destroy deletes ids atomically; if any id is unknown nothing is deleted.
func (s *Store) Destroy(ctx context.Context, table string, ids []string) error {
	if err := tables.CheckBatch(len(ids)); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM table_records WHERE table_name = $1 AND id = ANY($2)`, table, ids)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return tables.ErrRecordNotFound
	}
	return tx.Commit(ctx)
}

// SeedCompany inserts a company row. Companies are managed outside the dashboard;
// this exists for local setups and tests.
func (s *Store) SeedCompany(ctx context.Context, table string, fields tables.Fields) (tables.Record, error) {
	recs, err := s.Create(ctx, table, []tables.Fields{fields})
	if err != nil {
		return tables.Record{}, err
	}
	return recs[0], nil
}
