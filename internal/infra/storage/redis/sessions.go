package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rentcal/internal/app/picker"
)

const (
	sessionKeyPrefix = "rentcal:picker:session:"
	listingKeyPrefix = "rentcal:picker:listing:"
	listingsKey      = "rentcal:picker:listings"
)

// SessionRepository stores each session as a JSON value with a TTL that is
// renewed on every save. A set per listing indexes its sessions and a global
// set lists the listings; both share the TTL, and members of expired sessions
// are pruned when read.
type SessionRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *goredis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string        { return sessionKeyPrefix + id }
func listingKey(listingID string) string { return listingKeyPrefix + listingID }

func (r *SessionRepository) Get(ctx context.Context, id string) (*picker.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, picker.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get session: %w", err)
	}
	return decodeSession(raw)
}

// Save writes the session inside a WATCH transaction so that a concurrent
// writer makes it fail with ErrConcurrentUpdate.
func (r *SessionRepository) Save(ctx context.Context, session *picker.Session) error {
	key := sessionKey(session.ID)
	next := *session
	next.Version = session.Version + 1

	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
			if session.Version != 0 {
				return picker.ErrSessionNotFound
			}
		case err != nil:
			return err
		default:
			current, err := decodeSession(raw)
			if err != nil {
				return err
			}
			if current.Version != session.Version {
				return picker.ErrConcurrentUpdate
			}
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			pipe.SAdd(ctx, listingKey(session.ListingID), session.ID)
			pipe.Expire(ctx, listingKey(session.ListingID), r.ttl)
			pipe.SAdd(ctx, listingsKey, session.ListingID)
			pipe.Expire(ctx, listingsKey, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		session.Version = next.Version
		return nil
	case errors.Is(err, goredis.TxFailedErr):
		return picker.ErrConcurrentUpdate
	case errors.Is(err, picker.ErrConcurrentUpdate), errors.Is(err, picker.ErrSessionNotFound):
		return err
	default:
		return fmt.Errorf("redis: save session: %w", err)
	}
}

// deleteScript drops the session, its index entry and, once the listing has
// no sessions left, the listing itself. Running it as one script keeps a
// concurrent Save from re-adding a session between the count and the removal.
var deleteScript = goredis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
if redis.call('SCARD', KEYS[2]) == 0 then
	redis.call('SREM', KEYS[3], ARGV[2])
end
return 1
`)

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	keys := []string{sessionKey(id), listingKey(session.ListingID), listingsKey}
	if err := deleteScript.Run(ctx, r.client, keys, id, session.ListingID).Err(); err != nil {
		return fmt.Errorf("redis: delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) ByListing(ctx context.Context, listingID string) ([]*picker.Session, error) {
	ids, err := r.client.SMembers(ctx, listingKey(listingID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load sessions: %w", err)
	}

	var (
		out   []*picker.Session
		stale []any
	)
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		session, err := decodeSession([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if len(stale) > 0 {
		_ = r.client.SRem(ctx, listingKey(listingID), stale...).Err()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Listings returns listings whose session index is still alive.
func (r *SessionRepository) Listings(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, listingsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list listings: %w", err)
	}
	var out []string
	for _, id := range ids {
		n, err := r.client.SCard(ctx, listingKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: count sessions: %w", err)
		}
		if n == 0 {
			_ = r.client.SRem(ctx, listingsKey, id).Err()
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func decodeSession(raw []byte) (*picker.Session, error) {
	var s picker.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("redis: decode session: %w", err)
	}
	return &s, nil
}

var _ picker.SessionRepository = (*SessionRepository)(nil)
