// Package session provides token-based session storage. Sessions are stored
// as JSON in Valkey under an opaque random token with automatic TTL expiry;
// an in-memory store with the same behaviour backs tests and dev mode.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"pagesmith/internal/gateway"
)

const (
	// DefaultTTL is how long a session lives before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random token (32 bytes = 64 hex chars).
	idLength = 32
)

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store backed by the given Valkey client.
// A zero ttl uses DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Create stores sess under a new random token, which it also sets on
// sess.Token, and returns the token.
func (s *Store) Create(ctx context.Context, sess *gateway.Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	sess.Token = token
	sess.CreatedAt = time.Now()

	payload, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}
	return token, nil
}

// Get returns the session for token, or nil if none exists.
func (s *Store) Get(ctx context.Context, token string) (*gateway.Session, error) {
	if token == "" {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var sess gateway.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	sess.Token = token
	return &sess, nil
}

// Update replaces the stored data for sess.Token and resets the TTL.
func (s *Store) Update(ctx context.Context, sess *gateway.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("session update: no token")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.Token, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	return nil
}

// Destroy removes the session. Unknown tokens are not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// NewMemoryStore creates an in-memory session store. A zero ttl uses
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Create implements the same contract as Store.Create.
func (m *MemoryStore) Create(_ context.Context, sess *gateway.Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	sess.Token = token
	sess.CreatedAt = m.now()
	return token, m.put(sess)
}

// Get implements the same contract as Store.Get.
func (m *MemoryStore) Get(_ context.Context, token string) (*gateway.Session, error) {
	m.mu.Lock()
	e, ok := m.sessions[token]
	if ok && !m.now().Before(e.expires) {
		delete(m.sessions, token)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var sess gateway.Session
	if err := json.Unmarshal(e.payload, &sess); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	sess.Token = token
	return &sess, nil
}

// Update implements the same contract as Store.Update.
func (m *MemoryStore) Update(_ context.Context, sess *gateway.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("session update: no token")
	}
	return m.put(sess)
}

// Destroy implements the same contract as Store.Destroy.
func (m *MemoryStore) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) put(sess *gateway.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	m.mu.Lock()
	m.sessions[sess.Token] = memoryEntry{payload: payload, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// generateToken creates a cryptographically random session token.
func generateToken() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
