package presence

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is the sliding expiry window after which an unrefreshed user is
// treated as absent.
const TTL = 5 * time.Minute

// Tracker keeps a per-room set of active usernames in a redis hash
// (presence:<code> username -> lastSeen unix seconds). Redis isolates
// rooms by key, so refreshing one room never contends with another.
//
// The key's own TTL is only a cleanup backstop. Readers filter entries
// by age themselves: an entry must count as absent even one tick
// before redis physically evicts it.
type Tracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb, ttl: TTL}
}

func key(room string) string {
	return "presence:" + room
}

// MarkActive upserts the user's lastSeen and refreshes the room key's
// expiry. Failures are reported but callers treat them as non-fatal;
// presence is best-effort.
func (t *Tracker) MarkActive(ctx context.Context, room, username string) error {
	k := key(room)
	pipe := t.rdb.TxPipeline()
	pipe.HSet(ctx, k, username, time.Now().Unix())
	pipe.Expire(ctx, k, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("refreshing presence in %s: %w", room, err)
	}
	return nil
}

// ListActive returns the usernames seen within the window, pruning any
// entry found expired during the read so stale fields never accumulate.
func (t *Tracker) ListActive(ctx context.Context, room string) ([]string, error) {
	entries, err := t.rdb.HGetAll(ctx, key(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading presence in %s: %w", room, err)
	}

	cutoff := time.Now().Add(-t.ttl).Unix()
	var active, expired []string
	for user, raw := range entries {
		lastSeen, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || lastSeen <= cutoff {
			expired = append(expired, user)
			continue
		}
		active = append(active, user)
	}

	if len(expired) > 0 {
		// lazy cleanup; losing this write only delays the next prune
		t.rdb.HDel(ctx, key(room), expired...)
	}

	sort.Strings(active)
	return active, nil
}

// Remove drops the user on clean disconnect, shrinking the window in
// which a departed user still looks online.
func (t *Tracker) Remove(ctx context.Context, room, username string) error {
	if err := t.rdb.HDel(ctx, key(room), username).Err(); err != nil {
		return fmt.Errorf("removing presence in %s: %w", room, err)
	}
	return nil
}
