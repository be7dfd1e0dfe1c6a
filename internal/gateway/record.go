// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Record is one row of a collection keyed by column name. Values are
// strings, bools, numbers, time.Time, nil, or decoded JSON (maps and slices)
// for JSON columns. The accessors below tolerate the numeric and string
// representations different backends produce.
type Record map[string]any

// String returns the value at key as a string, or "" when absent or nil.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// StringPtr returns nil when the key is absent or nil.
func (r Record) StringPtr(key string) *string {
	if r[key] == nil {
		return nil
	}
	if p, ok := r[key].(*string); ok {
		return p
	}
	s := r.String(key)
	return &s
}

// Bool returns the value at key as a bool.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Int returns the value at key as an int and whether it was set.
func (r Record) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case *int:
		if v == nil {
			return 0, false
		}
		return *v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

// IntPtr returns nil when the key is absent, nil or not numeric.
func (r Record) IntPtr(key string) *int {
	n, ok := r.Int(key)
	if !ok {
		return nil
	}
	return &n
}

// Int64 returns the value at key as an int64.
func (r Record) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	n, _ := r.Int(key)
	return int64(n)
}

// UUID parses the value at key. Returns uuid.Nil when absent or malformed.
func (r Record) UUID(key string) uuid.UUID {
	switch v := r[key].(type) {
	case uuid.UUID:
		return v
	case [16]byte:
		return uuid.UUID(v)
	}
	id, err := uuid.Parse(r.String(key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// UUIDPtr returns nil when the key is absent or not a valid UUID.
func (r Record) UUIDPtr(key string) *uuid.UUID {
	id := r.UUID(key)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// Time returns the value at key as a time. RFC 3339 strings are parsed.
func (r Record) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case string:
		t, _ := time.Parse(time.RFC3339Nano, v)
		return t
	}
	return time.Time{}
}

// Decode converts the value at key into dst by way of JSON. It is used for
// JSON columns whose backend representation may be raw bytes, a string, or
// already-decoded maps and slices. A missing or nil value leaves dst as is.
func (r Record) Decode(key string, dst any) error {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	var raw []byte
	switch t := v.(type) {
	case []byte:
		raw = t
	case json.RawMessage:
		raw = t
	case string:
		raw = []byte(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Clone returns a deep copy of the record. Nested maps and slices are
// copied so the caller may mutate the result freely.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, e := range t {
			m[k] = e
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	case Record:
		return t.Clone()
	default:
		return v
	}
}
