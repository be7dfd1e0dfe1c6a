// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth implements gateway.Authenticator: password sign-in against
// the users collection, optional TOTP second factor and token sessions.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"pagesmith/internal/gateway"
	"pagesmith/internal/models"
)

// Issuer is the TOTP issuer shown in authenticator apps.
const Issuer = "Pagesmith"

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidCode is returned when a TOTP code is missing or wrong.
	ErrInvalidCode = errors.New("invalid two-factor code")

	// ErrNotEnrolled is returned when confirming 2FA before enrolling.
	ErrNotEnrolled = errors.New("two-factor enrolment not started")
)

// Sessions stores sessions by opaque token. session.Store and
// session.MemoryStore implement it.
type Sessions interface {
	Create(ctx context.Context, sess *gateway.Session) (string, error)
	Get(ctx context.Context, token string) (*gateway.Session, error)
	Update(ctx context.Context, sess *gateway.Session) error
	Destroy(ctx context.Context, token string) error
}

// Service authenticates users stored in the users collection.
type Service struct {
	records  gateway.Records
	sessions Sessions
}

// NewService creates an authentication service.
func NewService(records gateway.Records, sessions Sessions) *Service {
	return &Service{records: records, sessions: sessions}
}

// Authenticate checks the email and password, and the TOTP code when the
// user has 2FA enabled, then opens a session. Users without 2FA get a
// session with TwoFADone=false and must enrol before writing.
func (s *Service) Authenticate(ctx context.Context, creds gateway.Credentials) (*gateway.Session, error) {
	user, err := s.findByEmail(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPassword(user, creds.Password) {
		return nil, ErrInvalidCredentials
	}

	twoFADone := false
	if user.TOTPEnabled && user.TOTPSecret != nil {
		if !totp.Validate(strings.TrimSpace(creds.Code), *user.TOTPSecret) {
			return nil, ErrInvalidCode
		}
		twoFADone = true
	}

	sess := &gateway.Session{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   twoFADone,
	}
	if _, err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	slog.Info("user signed in", "email", user.Email, "two_fa", twoFADone, "needs_setup", user.Needs2FASetup())
	return sess, nil
}

// CurrentSession implements gateway.Authenticator.
func (s *Service) CurrentSession(ctx context.Context, token string) (*gateway.Session, error) {
	return s.sessions.Get(ctx, token)
}

// SignOut implements gateway.Authenticator.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// Enrollment is the data an authenticator app needs to add the account.
type Enrollment struct {
	Secret      string `json:"secret"`
	URL         string `json:"url"`
	QRPNGBase64 string `json:"qr_png_base64"`
}

// Enroll generates a new TOTP secret for the session's user, stores it
// (not yet enabled) and returns it with a QR code.
func (s *Service) Enroll(ctx context.Context, sess *gateway.Session) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: sess.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	secret := key.Secret()
	if err := s.records.UpdateRecord(ctx, sess, gateway.Users, sess.UserID.String(), gateway.Record{
		"totp_secret":  secret,
		"totp_enabled": false,
	}); err != nil {
		return nil, fmt.Errorf("save totp secret: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	return &Enrollment{
		Secret:      secret,
		URL:         key.URL(),
		QRPNGBase64: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// Confirm validates a code against the pending secret, enables 2FA for the
// user and marks the session as fully authenticated.
func (s *Service) Confirm(ctx context.Context, sess *gateway.Session, code string) error {
	rec, err := s.records.GetRecord(ctx, sess, gateway.Users, sess.UserID.String())
	if err != nil {
		return fmt.Errorf("confirm lookup: %w", err)
	}
	user := models.UserFromRecord(rec)
	if user.TOTPSecret == nil {
		return ErrNotEnrolled
	}
	if !totp.Validate(strings.TrimSpace(code), *user.TOTPSecret) {
		return ErrInvalidCode
	}

	if !user.TOTPEnabled {
		if err := s.records.UpdateRecord(ctx, sess, gateway.Users, user.ID.String(), gateway.Record{
			"totp_enabled": true,
		}); err != nil {
			return fmt.Errorf("enable totp: %w", err)
		}
	}

	sess.TwoFADone = true
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("confirm session: %w", err)
	}
	return nil
}

// CheckPassword compares a plaintext password against the user's hash.
func CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// findByEmail returns nil, nil when no user has the email.
func (s *Service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	recs, err := s.records.ListRecords(ctx, nil, gateway.Users, gateway.Query{
		Filter: map[string]any{"email": strings.ToLower(strings.TrimSpace(email))},
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return models.UserFromRecord(recs[0]), nil
}
