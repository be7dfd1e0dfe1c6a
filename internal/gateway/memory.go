// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process record backend. Values are normalized on write to
// the same shapes the Postgres backend returns, so callers behave the same
// against either. Memory does not implement Transactor.
type Memory struct {
	mu     sync.RWMutex
	tables map[Collection]*memTable
	now    func() time.Time
}

type memTable struct {
	rows  map[string]Record
	order []string
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		tables: make(map[Collection]*memTable),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) table(c Collection) *memTable {
	t, ok := m.tables[c]
	if !ok {
		t = &memTable{rows: make(map[string]Record)}
		m.tables[c] = t
	}
	return t
}

// ListRecords implements Records.
func (m *Memory) ListRecords(_ context.Context, _ *Session, c Collection, q Query) ([]Record, error) {
	s, err := schemaFor(c)
	if err != nil {
		return nil, wrap("list", c, err)
	}

	filter := make(map[string]any, len(q.Filter))
	for k, v := range q.Filter {
		col, ok := s.column(k)
		if !ok {
			return nil, wrap("list", c, fmt.Errorf("%w: %s", ErrUnknownField, k))
		}
		nv, err := normalize(col, v)
		if err != nil {
			return nil, wrap("list", c, err)
		}
		filter[k] = nv
	}
	if q.OrderBy != "" && !s.has(q.OrderBy) {
		return nil, wrap("list", c, fmt.Errorf("%w: %s", ErrUnknownField, q.OrderBy))
	}

	m.mu.RLock()
	t := m.table(c)
	var out []Record
	for _, id := range t.order {
		rec := t.rows[id]
		if matches(rec, filter) {
			out = append(out, rec.Clone())
		}
	}
	m.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.Desc {
				return less(out[j][q.OrderBy], out[i][q.OrderBy])
			}
			return less(out[i][q.OrderBy], out[j][q.OrderBy])
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// GetRecord implements Records.
func (m *Memory) GetRecord(_ context.Context, _ *Session, c Collection, id string) (Record, error) {
	if _, err := schemaFor(c); err != nil {
		return nil, wrap("get", c, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.table(c).rows[id]
	if !ok {
		return nil, wrap("get", c, ErrNotFound)
	}
	return rec.Clone(), nil
}

// InsertRecord implements Records.
func (m *Memory) InsertRecord(_ context.Context, sess *Session, c Collection, rec Record) (Record, error) {
	if err := requireSession(sess); err != nil {
		return nil, wrap("insert", c, err)
	}
	s, err := schemaFor(c)
	if err != nil {
		return nil, wrap("insert", c, err)
	}
	row, err := m.fill(s, rec)
	if err != nil {
		return nil, wrap("insert", c, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(c)
	if err := checkUnique(s, t, row, ""); err != nil {
		return nil, wrap("insert", c, err)
	}
	id := row.String(s.primaryKey)
	t.rows[id] = row
	t.order = append(t.order, id)
	return row.Clone(), nil
}

// UpsertRecord implements Records.
func (m *Memory) UpsertRecord(_ context.Context, sess *Session, c Collection, rec Record, conflictKey string) (Record, error) {
	if err := requireSession(sess); err != nil {
		return nil, wrap("upsert", c, err)
	}
	s, err := schemaFor(c)
	if err != nil {
		return nil, wrap("upsert", c, err)
	}
	col, ok := s.column(conflictKey)
	if !ok || (!col.unique && conflictKey != s.primaryKey) {
		return nil, wrap("upsert", c, fmt.Errorf("%w: %s is not a unique column", ErrUnknownField, conflictKey))
	}
	key, err := normalize(col, rec[conflictKey])
	if err != nil {
		return nil, wrap("upsert", c, err)
	}

	// The lookup and the write share one lock so concurrent upserts on the
	// same key cannot both insert.
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing string
	t := m.peek(c)
	for _, id := range t.order {
		if reflect.DeepEqual(t.rows[id][conflictKey], key) {
			existing = id
			break
		}
	}

	if existing == "" {
		row, err := m.fill(s, rec)
		if err != nil {
			return nil, wrap("upsert", c, err)
		}
		if err := m.insertLocked(s, c, row); err != nil {
			return nil, wrap("upsert", c, err)
		}
		return row.Clone(), nil
	}
	partial := rec.Clone()
	delete(partial, s.primaryKey)
	if err := checkFields(s, partial); err != nil {
		return nil, wrap("upsert", c, err)
	}
	if err := m.updateLocked(s, c, existing, partial); err != nil {
		return nil, wrap("upsert", c, err)
	}
	return m.tables[c].rows[existing].Clone(), nil
}

// UpdateRecord implements Records.
func (m *Memory) UpdateRecord(_ context.Context, sess *Session, c Collection, id string, partial Record) error {
	if err := requireSession(sess); err != nil {
		return wrap("update", c, err)
	}
	s, err := schemaFor(c)
	if err != nil {
		return wrap("update", c, err)
	}
	if err := checkFields(s, partial); err != nil {
		return wrap("update", c, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateLocked(s, c, id, partial); err != nil {
		return wrap("update", c, err)
	}
	return nil
}

// updateLocked merges partial into row id. m.mu must be held for writing.
func (m *Memory) updateLocked(s schema, c Collection, id string, partial Record) error {
	t := m.peek(c)
	cur, ok := t.rows[id]
	if !ok {
		return ErrNotFound
	}
	next := cur.Clone()
	for k, v := range partial {
		if k == s.primaryKey {
			continue
		}
		col, _ := s.column(k)
		nv, err := normalize(col, v)
		if err != nil {
			return err
		}
		next[k] = nv
	}
	if s.has("updated_at") && partial["updated_at"] == nil {
		next["updated_at"] = m.now()
	}
	if err := checkUnique(s, t, next, id); err != nil {
		return err
	}
	t.rows[id] = next
	return nil
}

// DeleteRecord implements Records.
func (m *Memory) DeleteRecord(_ context.Context, sess *Session, c Collection, id string) error {
	if err := requireSession(sess); err != nil {
		return wrap("delete", c, err)
	}
	if _, err := schemaFor(c); err != nil {
		return wrap("delete", c, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(c)
	if _, ok := t.rows[id]; !ok {
		return wrap("delete", c, ErrNotFound)
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// fill normalizes rec and supplies the defaults the Postgres schema would:
// a fresh UUID primary key, timestamps and zero values for missing columns.
func (m *Memory) fill(s schema, rec Record) (Record, error) {
	if err := checkFields(s, rec); err != nil {
		return nil, err
	}
	row := make(Record, len(s.columns))
	now := m.now()
	for _, col := range s.columns {
		v, present := rec[col.name]
		if present && v != nil {
			nv, err := normalize(col, v)
			if err != nil {
				return nil, err
			}
			row[col.name] = nv
			continue
		}
		switch {
		case col.name == s.primaryKey && col.kind == kindUUID:
			row[col.name] = uuid.NewString()
		case col.name == s.primaryKey:
			return nil, fmt.Errorf("missing primary key %s", col.name)
		case col.kind == kindTime:
			row[col.name] = now
		case col.nullable || col.kind == kindJSON:
			row[col.name] = nil
		case col.kind == kindBool:
			row[col.name] = false
		case col.kind == kindInt:
			row[col.name] = 0
		default:
			row[col.name] = ""
		}
	}
	return row, nil
}

// checkUnique rejects row when a unique column collides with another row.
// self is the id of the row being updated, or "" on insert.
func checkUnique(s schema, t *memTable, row Record, self string) error {
	for _, col := range s.columns {
		if !col.unique && col.name != s.primaryKey {
			continue
		}
		v := row[col.name]
		if v == nil {
			continue
		}
		for id, other := range t.rows {
			if id == self {
				continue
			}
			if reflect.DeepEqual(other[col.name], v) {
				return fmt.Errorf("%w: %s", ErrConflict, col.name)
			}
		}
	}
	return nil
}

// normalize converts v into the representation Postgres scans produce for
// a column of col's kind.
func normalize(col column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	probe := Record{"v": v}
	switch col.kind {
	case kindUUID:
		id := probe.UUID("v")
		if id == uuid.Nil {
			if s := probe.String("v"); s != "" && s != uuid.Nil.String() {
				return nil, fmt.Errorf("invalid uuid for %s: %q", col.name, s)
			}
			if col.nullable {
				return nil, nil
			}
		}
		return id.String(), nil
	case kindInt:
		n, ok := probe.Int("v")
		if !ok {
			return nil, fmt.Errorf("invalid integer for %s", col.name)
		}
		return n, nil
	case kindBool:
		if p, ok := v.(*bool); ok {
			return *p, nil
		}
		return probe.Bool("v"), nil
	case kindTime:
		if p, ok := v.(*time.Time); ok {
			return p.UTC(), nil
		}
		return probe.Time("v").UTC(), nil
	case kindJSON:
		var raw []byte
		switch t := v.(type) {
		case []byte:
			raw = t
		case json.RawMessage:
			raw = t
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", col.name, err)
			}
			raw = b
		}
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
		return out, nil
	default:
		return probe.String("v"), nil
	}
}

func matches(rec Record, filter map[string]any) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(rec[k], v) {
			return false
		}
	}
	return true
}

// less orders scalar column values; nil sorts first.
func less(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b != nil
	case string:
		y, _ := b.(string)
		return x < y
	case int:
		y, _ := b.(int)
		return x < y
	case bool:
		y, _ := b.(bool)
		return !x && y
	case time.Time:
		y, _ := b.(time.Time)
		return x.Before(y)
	}
	return false
}
