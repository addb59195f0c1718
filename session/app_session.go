package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tool_inventory/inventory"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("no session")

type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl, now: time.Now}
}

type AppSession struct {
	ID        string         `json:"-"`
	Username  string         `json:"usr"`
	Role      inventory.Role `json:"role"`
	IssuedAt  int64          `json:"iat"`
	ExpiresAt int64          `json:"exp"`
}

func key(id string) string          { return fmt.Sprintf("app:sess:%s", id) }
func userSetKey(user string) string { return fmt.Sprintf("app:user_sessions:%s", user) }

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

// Create opens a session for an authenticated account and returns it.
func (s *AppSessionStore) Create(ctx context.Context, username string, role inventory.Role) (*AppSession, error) {
	now := s.now()
	as := &AppSession{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	b, err := json.Marshal(as)
	if err != nil {
		return nil, err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(as.ID), b, s.ttl)
	pipe.SAdd(ctx, userSetKey(username), as.ID)
	pipe.Expire(ctx, userSetKey(username), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return as, nil
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	as.ID = id
	return &as, nil
}

// Refresh slides the session window forward by a full TTL.
func (s *AppSessionStore) Refresh(ctx context.Context, as *AppSession) error {
	as.ExpiresAt = s.now().Add(s.ttl).Unix()
	b, err := json.Marshal(as)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(as.ID), b, s.ttl)
	pipe.Expire(ctx, userSetKey(as.Username), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, userSetKey(as.Username), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForUser drops every session of username.
func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, username string) error {
	ids, err := s.rdb.SMembers(ctx, userSetKey(username)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, userSetKey(username))
	_, err = pipe.Exec(ctx)
	return err
}
