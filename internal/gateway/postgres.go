// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Postgres is the PostgreSQL record backend. Each call runs in its own
// transaction that publishes the caller's user id as app.current_user_id so
// row-level policies can refer to it.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres backend over an open pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// run executes fn inside a transaction scoped to sess.
func (p *Postgres) run(ctx context.Context, sess *Session, op string, c Collection, fn func(tx *pgTx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, c, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := setCaller(ctx, tx, sess); err != nil {
		return wrap(op, c, err)
	}
	if err := fn(&pgTx{q: tx}); err != nil {
		return wrap(op, c, err)
	}
	if err := tx.Commit(); err != nil {
		return wrap(op, c, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// setCaller stores the session's user id in a transaction-local setting.
func setCaller(ctx context.Context, q querier, sess *Session) error {
	uid := ""
	if sess != nil {
		uid = sess.UserID.String()
	}
	if _, err := q.ExecContext(ctx, `SELECT set_config('app.current_user_id', $1, true)`, uid); err != nil {
		return fmt.Errorf("set caller: %w", err)
	}
	return nil
}

// ListRecords implements Records.
func (p *Postgres) ListRecords(ctx context.Context, sess *Session, c Collection, q Query) ([]Record, error) {
	var out []Record
	err := p.run(ctx, sess, "list", c, func(tx *pgTx) error {
		var err error
		out, err = tx.ListRecords(ctx, sess, c, q)
		return err
	})
	return out, err
}

// GetRecord implements Records.
func (p *Postgres) GetRecord(ctx context.Context, sess *Session, c Collection, id string) (Record, error) {
	var out Record
	err := p.run(ctx, sess, "get", c, func(tx *pgTx) error {
		var err error
		out, err = tx.GetRecord(ctx, sess, c, id)
		return err
	})
	return out, err
}

// InsertRecord implements Records.
func (p *Postgres) InsertRecord(ctx context.Context, sess *Session, c Collection, rec Record) (Record, error) {
	var out Record
	err := p.run(ctx, sess, "insert", c, func(tx *pgTx) error {
		var err error
		out, err = tx.InsertRecord(ctx, sess, c, rec)
		return err
	})
	return out, err
}

// UpsertRecord implements Records.
func (p *Postgres) UpsertRecord(ctx context.Context, sess *Session, c Collection, rec Record, conflictKey string) (Record, error) {
	var out Record
	err := p.run(ctx, sess, "upsert", c, func(tx *pgTx) error {
		var err error
		out, err = tx.UpsertRecord(ctx, sess, c, rec, conflictKey)
		return err
	})
	return out, err
}

// UpdateRecord implements Records.
func (p *Postgres) UpdateRecord(ctx context.Context, sess *Session, c Collection, id string, partial Record) error {
	return p.run(ctx, sess, "update", c, func(tx *pgTx) error {
		return tx.UpdateRecord(ctx, sess, c, id, partial)
	})
}

// DeleteRecord implements Records.
func (p *Postgres) DeleteRecord(ctx context.Context, sess *Session, c Collection, id string) error {
	return p.run(ctx, sess, "delete", c, func(tx *pgTx) error {
		return tx.DeleteRecord(ctx, sess, c, id)
	})
}

// WithinTx implements Transactor.
func (p *Postgres) WithinTx(ctx context.Context, sess *Session, fn func(Records) error) error {
	return p.run(ctx, sess, "tx", "", func(tx *pgTx) error {
		return fn(tx)
	})
}

// pgTx runs record operations against one transaction.
type pgTx struct {
	q querier
}

func (t *pgTx) ListRecords(ctx context.Context, _ *Session, c Collection, q Query) ([]Record, error) {
	s, err := schemaFor(c)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	for _, k := range sortedKeys(q.Filter) {
		col, ok := s.column(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
		v := q.Filter[k]
		if v == nil {
			where = append(where, k+" IS NULL")
			continue
		}
		arg, err := encodeValue(col, v)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		where = append(where, fmt.Sprintf("%s = $%d", k, len(args)))
	}

	query := "SELECT " + strings.Join(s.names(), ", ") + " FROM " + string(c)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if q.OrderBy != "" {
		if !s.has(q.OrderBy) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, q.OrderBy)
		}
		query += " ORDER BY " + q.OrderBy
		if q.Desc {
			query += " DESC"
		}
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(s, rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *pgTx) GetRecord(ctx context.Context, _ *Session, c Collection, id string) (Record, error) {
	s, err := schemaFor(c)
	if err != nil {
		return nil, err
	}
	if !validKey(s, id) {
		return nil, ErrNotFound
	}
	row := t.q.QueryRowContext(ctx,
		"SELECT "+strings.Join(s.names(), ", ")+" FROM "+string(c)+" WHERE "+s.primaryKey+" = $1", id)
	rec, err := scanRecord(s, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (t *pgTx) InsertRecord(ctx context.Context, sess *Session, c Collection, rec Record) (Record, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	s, err := schemaFor(c)
	if err != nil {
		return nil, err
	}
	if err := checkFields(s, rec); err != nil {
		return nil, err
	}

	cols, placeholders, args, err := encodeRecord(s, rec, nil)
	if err != nil {
		return nil, err
	}

	var query string
	if len(cols) == 0 {
		query = "INSERT INTO " + string(c) + " DEFAULT VALUES"
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			c, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	}
	query += " RETURNING " + strings.Join(s.names(), ", ")

	out, err := scanRecord(s, t.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (t *pgTx) UpsertRecord(ctx context.Context, sess *Session, c Collection, rec Record, conflictKey string) (Record, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	s, err := schemaFor(c)
	if err != nil {
		return nil, err
	}
	if err := checkFields(s, rec); err != nil {
		return nil, err
	}
	col, ok := s.column(conflictKey)
	if !ok || (!col.unique && conflictKey != s.primaryKey) {
		return nil, fmt.Errorf("%w: %s is not a unique column", ErrUnknownField, conflictKey)
	}
	if _, ok := rec[conflictKey]; !ok {
		return nil, fmt.Errorf("upsert: record has no %s", conflictKey)
	}

	cols, placeholders, args, err := encodeRecord(s, rec, nil)
	if err != nil {
		return nil, err
	}

	var sets []string
	for _, name := range cols {
		if name == conflictKey || name == s.primaryKey {
			continue
		}
		sets = append(sets, name+" = EXCLUDED."+name)
	}
	if s.has("updated_at") && rec["updated_at"] == nil {
		sets = append(sets, "updated_at = NOW()")
	}
	if len(sets) == 0 {
		sets = append(sets, conflictKey+" = EXCLUDED."+conflictKey)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING %s",
		c, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
		conflictKey, strings.Join(sets, ", "), strings.Join(s.names(), ", "))

	out, err := scanRecord(s, t.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (t *pgTx) UpdateRecord(ctx context.Context, sess *Session, c Collection, id string, partial Record) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	s, err := schemaFor(c)
	if err != nil {
		return err
	}
	if err := checkFields(s, partial); err != nil {
		return err
	}
	if !validKey(s, id) {
		return ErrNotFound
	}

	skip := map[string]bool{s.primaryKey: true}
	cols, placeholders, args, err := encodeRecord(s, partial, skip)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(cols)+1)
	for i, name := range cols {
		sets = append(sets, name+" = "+placeholders[i])
	}
	if s.has("updated_at") && partial["updated_at"] == nil {
		sets = append(sets, "updated_at = NOW()")
	}
	if len(sets) == 0 {
		_, err := t.GetRecord(ctx, sess, c, id)
		return err
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		c, strings.Join(sets, ", "), s.primaryKey, len(args))
	result, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteRecord(ctx context.Context, sess *Session, c Collection, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	s, err := schemaFor(c)
	if err != nil {
		return err
	}
	if !validKey(s, id) {
		return ErrNotFound
	}
	result, err := t.q.ExecContext(ctx, "DELETE FROM "+string(c)+" WHERE "+s.primaryKey+" = $1", id)
	if err != nil {
		return translate(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// validKey rejects ids that cannot match a UUID primary key, so malformed
// ids read as "not found" instead of a type error from the server.
func validKey(s schema, id string) bool {
	col, _ := s.column(s.primaryKey)
	if col.kind != kindUUID {
		return id != ""
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// encodeRecord returns sorted column names, $n placeholders and encoded
// arguments for the keys of rec, leaving out any key in skip.
func encodeRecord(s schema, rec Record, skip map[string]bool) ([]string, []string, []any, error) {
	var (
		cols         []string
		placeholders []string
		args         []any
	)
	for _, k := range sortedKeys(rec) {
		if skip[k] {
			continue
		}
		col, _ := s.column(k)
		arg, err := encodeValue(col, rec[k])
		if err != nil {
			return nil, nil, nil, err
		}
		args = append(args, arg)
		cols = append(cols, k)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	return cols, placeholders, args, nil
}

// encodeValue converts a record value into a driver argument for col.
func encodeValue(col column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.kind {
	case kindJSON:
		switch t := v.(type) {
		case []byte:
			return string(t), nil
		case json.RawMessage:
			return string(t), nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", col.name, err)
		}
		return string(b), nil
	case kindUUID:
		switch t := v.(type) {
		case uuid.UUID:
			if t == uuid.Nil && col.nullable {
				return nil, nil
			}
			return t.String(), nil
		case *uuid.UUID:
			if t == nil {
				return nil, nil
			}
			return t.String(), nil
		case string:
			if t == "" && col.nullable {
				return nil, nil
			}
			return t, nil
		}
	}
	return v, nil
}

// scanRecord reads one row laid out as s.columns into a Record.
func scanRecord(s schema, scanner interface{ Scan(...any) error }) (Record, error) {
	dest := make([]any, len(s.columns))
	for i, c := range s.columns {
		switch c.kind {
		case kindBool:
			dest[i] = new(sql.NullBool)
		case kindInt:
			dest[i] = new(sql.NullInt64)
		case kindJSON:
			dest[i] = new([]byte)
		case kindTime:
			dest[i] = new(sql.NullTime)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	rec := make(Record, len(s.columns))
	for i, c := range s.columns {
		switch d := dest[i].(type) {
		case *sql.NullBool:
			rec[c.name] = d.Bool
		case *sql.NullInt64:
			if d.Valid {
				rec[c.name] = int(d.Int64)
			} else {
				rec[c.name] = nil
			}
		case *[]byte:
			if *d == nil {
				rec[c.name] = nil
				continue
			}
			var v any
			if err := json.Unmarshal(*d, &v); err != nil {
				return nil, fmt.Errorf("decode %s: %w", c.name, err)
			}
			rec[c.name] = v
		case *sql.NullTime:
			if d.Valid {
				rec[c.name] = d.Time.UTC()
			} else {
				rec[c.name] = time.Time{}
			}
		case *sql.NullString:
			if d.Valid {
				rec[c.name] = d.String
			} else if c.nullable {
				rec[c.name] = nil
			} else {
				rec[c.name] = ""
			}
		}
	}
	return rec, nil
}

// translate maps driver errors onto gateway sentinels.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
