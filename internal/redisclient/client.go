package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseLockScript deletes the lock only if it still holds the caller's token
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`

var ErrLockNotHeld = errors.New("lock not held")

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newClient(rdb), nil
}

func newClient(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// SaveSession stores a session's state as JSON, refreshing its TTL
func (c *Client) SaveSession(ctx context.Context, sessionID string, state any, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return c.rdb.Set(ctx, sessionKey(sessionID), data, ttl).Err()
}

// LoadSession decodes a stored session into out. Reports false if none exists.
func (c *Client) LoadSession(ctx context.Context, sessionID string, out any) (bool, error) {
	data, err := c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return true, nil
}

// DeleteSession removes a stored session
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

// Lock is a held distributed lock
type Lock struct {
	key   string
	token string
}

// AcquireLock takes a distributed lock. Returns nil without error when
// another holder has it.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (*Lock, error) {
	lock := &Lock{key: fmt.Sprintf("lock:%s", lockKey), token: uuid.NewString()}

	ok, err := c.rdb.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return lock, nil
}

// ReleaseLock releases a lock acquired by AcquireLock. A lock that expired
// and was taken by someone else is left alone and ErrLockNotHeld returned.
func (c *Client) ReleaseLock(ctx context.Context, lock *Lock) error {
	if lock == nil {
		return nil
	}
	n, err := c.releaseScript.Run(ctx, c.rdb, []string{lock.key}, lock.token).Int()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
