// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package gateway defines the persistence boundary of pagesmith. Every
// record read or write, authentication call and session lookup goes through
// the Gateway interface; concrete backends are PostgreSQL (Postgres) and an
// in-memory store (Memory) used by tests and the dev server.
//
// The caller's session is passed explicitly into every call. Backends use it
// to scope row-level policies; the gateway itself does not authorize.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection names a record collection (a table in the Postgres backend).
type Collection string

const (
	Themes              Collection = "themes"
	PageMetadata        Collection = "page_metadata"
	Templates           Collection = "templates"
	TemplateSections    Collection = "template_sections"
	PageContentSections Collection = "page_content_sections"
	PageSections        Collection = "page_sections"
	Media               Collection = "media"
	Users               Collection = "users"
	SiteSettings        Collection = "site_settings"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a unique column.
	ErrConflict = errors.New("unique constraint violated")

	// ErrUnauthenticated is returned by writes attempted without a session.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnknownField is returned when a filter, order or record key is not
	// a column of the collection.
	ErrUnknownField = errors.New("unknown field")
)

// Error wraps a backend failure with the operation and collection involved.
type Error struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *Error) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, c Collection, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	return &Error{Op: op, Collection: c, Err: err}
}

// Session identifies an authenticated caller.
type Session struct {
	Token       string    `json:"-"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	TwoFADone   bool      `json:"two_fa_done"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin reports whether the session belongs to an admin user.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == "admin"
}

// Credentials are the inputs to Authenticate. Code is the TOTP code and may
// be empty for users without two-factor authentication.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Query narrows a ListRecords call. Filter values are compared for equality.
type Query struct {
	Filter  map[string]any
	OrderBy string
	Desc    bool
	Limit   int
}

// Records is the record half of the gateway.
type Records interface {
	ListRecords(ctx context.Context, sess *Session, c Collection, q Query) ([]Record, error)
	GetRecord(ctx context.Context, sess *Session, c Collection, id string) (Record, error)
	InsertRecord(ctx context.Context, sess *Session, c Collection, rec Record) (Record, error)
	UpsertRecord(ctx context.Context, sess *Session, c Collection, rec Record, conflictKey string) (Record, error)
	UpdateRecord(ctx context.Context, sess *Session, c Collection, id string, partial Record) error
	DeleteRecord(ctx context.Context, sess *Session, c Collection, id string) error
}

// Authenticator is the authentication half of the gateway.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*Session, error)
	// CurrentSession returns nil, nil when the token has no live session.
	CurrentSession(ctx context.Context, token string) (*Session, error)
	SignOut(ctx context.Context, token string) error
}

// Gateway is everything the core consumes from the backing store.
type Gateway interface {
	Records
	Authenticator
}

// Transactor is implemented by backends that can run several record
// operations atomically. fn receives a Records bound to the transaction;
// returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, sess *Session, fn func(Records) error) error
}

type composite struct {
	Records
	Authenticator
}

type txComposite struct {
	composite
	Transactor
}

// New joins a record backend and an authenticator into a Gateway. The result
// implements Transactor whenever records does.
func New(records Records, auth Authenticator) Gateway {
	c := composite{Records: records, Authenticator: auth}
	if t, ok := records.(Transactor); ok {
		return &txComposite{composite: c, Transactor: t}
	}
	return &c
}

func requireSession(sess *Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	return nil
}
