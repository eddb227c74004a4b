// Package session resolves bearer tokens to portal users.
//
// The sign-in flow (outside this service) writes the authenticated user,
// including its permission allowlist, to Redis under session:<token>. This
// package reads it back for every request.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/datahub/pkg/auth"
)

// ErrNoSession is returned when a token has no live session
var ErrNoSession = errors.New("session not found")

const keyPrefix = "session:"

// Store reads and writes sessions in Redis
type Store struct {
	client *redis.Client
}

// NewStore creates a session store on an existing Redis client
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Options configures the Redis connection
type Options struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// NewClient opens and pings a Redis client
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if opts.Password != "" {
		redisOpts.Password = opts.Password
	}
	if opts.DB >= 0 {
		redisOpts.DB = opts.DB
	}
	if opts.MaxRetries > 0 {
		redisOpts.MaxRetries = opts.MaxRetries
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}

	redisOpts.DialTimeout = 5 * time.Second
	redisOpts.ReadTimeout = 3 * time.Second
	redisOpts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// Put stores a session for token that expires after ttl
func (s *Store) Put(ctx context.Context, token string, user *auth.User, ttl time.Duration) error {
	if token == "" {
		return errors.New("token is required")
	}
	if user == nil {
		return errors.New("user is required")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Get returns the user for token, or ErrNoSession
func (s *Store) Get(ctx context.Context, token string) (*auth.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	data, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSession
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var user auth.User
	if err := json.Unmarshal(data, &user); err != nil {
		// Drop the corrupt entry so the client is sent back to sign in
		s.client.Del(ctx, keyPrefix+token)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &user, nil
}

// TTL returns how long the session for token has left
func (s *Store) TTL(ctx context.Context, token string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, keyPrefix+token).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl failed: %w", err)
	}
	if ttl < 0 {
		return 0, ErrNoSession
	}
	return ttl, nil
}

// Delete removes the session for token
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, keyPrefix+token).Err()
}
