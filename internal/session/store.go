// Package session keeps server-held browser sessions in Redis, addressed by an opaque cookie token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// ErrNotFound is returned for unknown, expired or destroyed tokens.
var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Snapshot is the copy of the account taken at login. It is not refreshed while the session lives.
type Snapshot struct {
	AccountID       uint   `json:"accountId"`
	StudentNumber   string `json:"studentNumber"`
	Email           string `json:"email"`
	AccountType     string `json:"accountType"`
	ConsentFilled   bool   `json:"consentFilled"`
	PasswordChanged bool   `json:"passwordChanged"`
}

// SnapshotFromAccount copies the non-secret account fields into a session snapshot.
func SnapshotFromAccount(account models.Account) Snapshot {
	return Snapshot{
		AccountID:       account.ID,
		StudentNumber:   account.StudentNumber,
		Email:           account.Email,
		AccountType:     account.AccountType,
		ConsentFilled:   account.ConsentFilled,
		PasswordChanged: account.PasswordChanged,
	}
}

// Session is one authenticated browser session.
type Session struct {
	Token     string    `json:"-"`
	User      Snapshot  `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store creates, resolves and tears down sessions.
type Store interface {
	Create(ctx context.Context, user Snapshot) (Session, error)
	Get(ctx context.Context, token string) (Session, error)
	Destroy(ctx context.Context, token string) error
}

// RedisStore is a Store backed by Redis keys with a fixed time-to-live.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Create stores a new session for the snapshot and returns it with a fresh token.
func (s *RedisStore) Create(ctx context.Context, user Snapshot) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+sess.Token, payload, s.ttl).Result()
	if err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return Session{}, fmt.Errorf("store session: token collision")
	}

	return sess, nil
}

// Get resolves a token to its session.
func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrNotFound
	}

	raw, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	sess.Token = token

	return sess, nil
}

// Destroy removes the session. Destroying an unknown token is not an error.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
