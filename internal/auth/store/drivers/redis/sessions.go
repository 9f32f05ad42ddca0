// Package redis keeps refresh sessions in Redis. Each session is a hash that
// expires with the session itself, and a per-user set indexes them for
// sign-out-everywhere. Writes that must be atomic run as Lua scripts.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
)

// DefaultPrefix namespaces every key the driver writes.
const DefaultPrefix = "daybook"

const (
	fieldUserID     = "user_id"
	fieldTokenHash  = "token_hash"
	fieldCreatedAt  = "created_at"
	fieldExpiresAt  = "expires_at"
	fieldRevokedAt  = "revoked_at"
	fieldReplacedBy = "replaced_by"
)

const (
	statusMissing = 0
	statusExpired = 1
	statusDenied  = 2
	statusOK      = 3
	statusExists  = 4
)

// KEYS[1] session, KEYS[2] user index
// ARGV: id, user_id, token_hash, created_at, expires_at
const createSessionScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 4
end
redis.call("HSET", KEYS[1],
  "user_id", ARGV[2], "token_hash", ARGV[3],
  "created_at", ARGV[4], "expires_at", ARGV[5])
redis.call("PEXPIREAT", KEYS[1], ARGV[5])
redis.call("SADD", KEYS[2], ARGV[1])
if redis.call("PTTL", KEYS[2]) < tonumber(ARGV[5]) - tonumber(ARGV[4]) then
  redis.call("PEXPIREAT", KEYS[2], ARGV[5])
end
return 3
`

var createSessionLua = redis.NewScript(createSessionScript)

// KEYS[1] session
// ARGV: revoked_at
const revokeSessionScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSETNX", KEYS[1], "revoked_at", ARGV[1])
return 3
`

var revokeSessionLua = redis.NewScript(revokeSessionScript)

// KEYS[1] old session, KEYS[2] new session, KEYS[3] user index
// ARGV: new id, user_id, token_hash, created_at (also "now"), expires_at
const rotateSessionScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local cur = redis.call("HMGET", KEYS[1], "user_id", "expires_at", "revoked_at")
if cur[1] ~= ARGV[2] or cur[3] then
  return 2
end
if tonumber(cur[2]) <= tonumber(ARGV[4]) then
  return 1
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 4
end

redis.call("HSET", KEYS[1], "revoked_at", ARGV[4], "replaced_by", ARGV[1])
redis.call("HSET", KEYS[2],
  "user_id", ARGV[2], "token_hash", ARGV[3],
  "created_at", ARGV[4], "expires_at", ARGV[5])
redis.call("PEXPIREAT", KEYS[2], ARGV[5])
redis.call("SADD", KEYS[3], ARGV[1])
if redis.call("PTTL", KEYS[3]) < tonumber(ARGV[5]) - tonumber(ARGV[4]) then
  redis.call("PEXPIREAT", KEYS[3], ARGV[5])
end
return 3
`

var rotateSessionLua = redis.NewScript(rotateSessionScript)

// KEYS[1] user index
// ARGV: revoked_at, session key prefix
//
// Session keys are derived inside the script, so all of a user's keys must
// live on one node.
const revokeUserSessionsScript = `
local n = 0
for _, id in ipairs(redis.call("SMEMBERS", KEYS[1])) do
  local key = ARGV[2] .. id
  if redis.call("EXISTS", key) == 1 then
    n = n + redis.call("HSETNX", key, "revoked_at", ARGV[1])
  else
    redis.call("SREM", KEYS[1], id)
  end
end
return n
`

var revokeUserSessionsLua = redis.NewScript(revokeUserSessionsScript)

// Sessions implements store.Sessions on Redis.
type Sessions struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ store.Sessions = (*Sessions)(nil)

// NewSessions wraps an existing client. An empty prefix means DefaultPrefix.
func NewSessions(rdb redis.UniversalClient, prefix string) *Sessions {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Sessions{rdb: rdb, prefix: prefix}
}

// Options are the connection settings used by Open.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open dials Redis and checks it answers before returning.
func Open(ctx context.Context, opts Options) (*Sessions, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	s := NewSessions(rdb, opts.Prefix)
	if err := s.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sessions) sessionKey(id string) string {
	return s.prefix + ":session:" + id
}

func (s *Sessions) userKey(userID string) string {
	return s.prefix + ":user_sessions:" + userID
}

func (s *Sessions) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Sessions) Close() error {
	return s.rdb.Close()
}

func (s *Sessions) Create(ctx context.Context, sess domain.Session) error {
	status, err := createSessionLua.Run(ctx, s.rdb,
		[]string{s.sessionKey(sess.ID), s.userKey(sess.UserID)},
		sess.ID, sess.UserID, sess.TokenHash,
		sess.CreatedAt.UnixMilli(), sess.ExpiresAt.UnixMilli(),
	).Int()
	if err != nil {
		return unavailable(err)
	}
	if status == statusExists {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Sessions) Get(ctx context.Context, id string) (domain.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return domain.Session{}, unavailable(err)
	}
	if len(fields) == 0 {
		return domain.Session{}, store.ErrNotFound
	}
	return decodeSession(id, fields)
}

func (s *Sessions) IsRevoked(ctx context.Context, id string) (bool, error) {
	vals, err := s.rdb.HMGet(ctx, s.sessionKey(id), fieldUserID, fieldRevokedAt).Result()
	if err != nil {
		return false, unavailable(err)
	}
	// HMGET on a missing key yields all nils.
	if vals[0] == nil {
		return true, nil
	}
	return vals[1] != nil, nil
}

func (s *Sessions) Revoke(ctx context.Context, id string, at time.Time) error {
	status, err := revokeSessionLua.Run(ctx, s.rdb,
		[]string{s.sessionKey(id)}, at.UnixMilli(),
	).Int()
	if err != nil {
		return unavailable(err)
	}
	if status == statusMissing {
		return store.ErrNotFound
	}
	return nil
}

func (s *Sessions) Rotate(ctx context.Context, oldID string, next domain.Session) error {
	status, err := rotateSessionLua.Run(ctx, s.rdb,
		[]string{s.sessionKey(oldID), s.sessionKey(next.ID), s.userKey(next.UserID)},
		next.ID, next.UserID, next.TokenHash,
		next.CreatedAt.UnixMilli(), next.ExpiresAt.UnixMilli(),
	).Int()
	if err != nil {
		return unavailable(err)
	}

	switch status {
	case statusOK:
		return nil
	case statusExists:
		return store.ErrAlreadyExists
	default:
		return store.ErrStale
	}
}

// RevokeAllForUser tombstones every indexed session and prunes index entries
// whose hash already expired.
func (s *Sessions) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	n, err := revokeUserSessionsLua.Run(ctx, s.rdb,
		[]string{s.userKey(userID)}, at.UnixMilli(), s.sessionKey(""),
	).Int64()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// DeleteExpired is a no-op: Redis expires session hashes itself.
func (s *Sessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeSession(id string, f map[string]string) (domain.Session, error) {
	created, err := parseMillis(f[fieldCreatedAt])
	if err != nil {
		return domain.Session{}, err
	}
	expires, err := parseMillis(f[fieldExpiresAt])
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		ID:         id,
		UserID:     f[fieldUserID],
		TokenHash:  f[fieldTokenHash],
		CreatedAt:  created,
		ExpiresAt:  expires,
		ReplacedBy: f[fieldReplacedBy],
	}
	if raw, ok := f[fieldRevokedAt]; ok {
		revoked, err := parseMillis(raw)
		if err != nil {
			return domain.Session{}, err
		}
		sess.RevokedAt = &revoked
	}
	return sess, nil
}

func parseMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: corrupt session timestamp %q: %w", raw, err)
	}
	return time.UnixMilli(ms), nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
}
