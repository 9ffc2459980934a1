// Package session stores login sessions in Redis. A session carries the
// per-login seed that keeps ranking jitter stable until the next login.
package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ad-ranking-system/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ads:session:"

var (
	ErrNotFound    = errors.New("session not found")
	ErrInvalidUser = errors.New("user id required")
)

type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Start opens a session for userID with a fresh random seed in
// [1, 1e9].
func (s *Store) Start(ctx context.Context, userID string) (*Session, error) {
	userID = strings.ToLower(strings.TrimSpace(userID))
	if !models.ValidUserID(userID) {
		return nil, ErrInvalidUser
	}
	seed, err := newSeed()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, keyPrefix+sess.Token, raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

func (s *Store) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	raw, err := s.rdb.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *Store) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func newSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to generate seed: %w", err)
	}
	return int64(binary.BigEndian.Uint64(b[:])%1_000_000_000) + 1, nil
}
