package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/logger"
)

const venueLockPrefix = "venue_lock:"

// ErrVenueBusy means another booking on one of the venues held the lock
// for every retry.
var ErrVenueBusy = errors.New("venue is being booked by another request")

// unlockScript deletes the key only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis serialises bookings per venue so the conflict re-check and the
// insert run without a competing writer on the same venue.
type Redis struct {
	Client    *redis.Client
	TTL       time.Duration
	Retries   int
	RetryWait time.Duration
	Logger    *logger.Logger
}

func NewRedis(client *redis.Client, cfg config.RedisConfig, log *logger.Logger) *Redis {
	return &Redis{
		Client:    client,
		TTL:       cfg.VenueLockTTL,
		Retries:   cfg.LockRetries,
		RetryWait: cfg.LockRetryWait,
		Logger:    log,
	}
}

func venueKey(venueID string) string {
	return venueLockPrefix + venueID
}

// normalise sorts and dedups ids so concurrent callers lock in the same order.
func normalise(venueIDs []string) []string {
	seen := make(map[string]bool, len(venueIDs))
	out := make([]string, 0, len(venueIDs))
	for _, id := range venueIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsVenueLocked checks the lock without taking it.
func (r *Redis) IsVenueLocked(ctx context.Context, venueID string) (bool, error) {
	_, err := r.Client.Get(ctx, venueKey(venueID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LockVenue takes a single venue lock for token.
func (r *Redis) LockVenue(ctx context.Context, venueID, token string) (bool, error) {
	return r.Client.SetNX(ctx, venueKey(venueID), token, r.TTL).Result()
}

// UnlockVenue releases the lock only if token still owns it.
func (r *Redis) UnlockVenue(ctx context.Context, venueID, token string) error {
	err := unlockScript.Run(ctx, r.Client, []string{venueKey(venueID)}, token).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// LockVenues takes every lock or none.
func (r *Redis) LockVenues(ctx context.Context, venueIDs []string, token string) (bool, error) {
	ids := normalise(venueIDs)
	locked := make([]string, 0, len(ids))
	for _, id := range ids {
		ok, err := r.LockVenue(ctx, id, token)
		if err != nil || !ok {
			for _, l := range locked {
				_ = r.UnlockVenue(ctx, l, token)
			}
			return false, err
		}
		locked = append(locked, id)
	}
	return true, nil
}

// UnlockVenues releases every lock held by token and returns the first error.
func (r *Redis) UnlockVenues(ctx context.Context, venueIDs []string, token string) error {
	var firstErr error
	for _, id := range normalise(venueIDs) {
		if err := r.UnlockVenue(ctx, id, token); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Acquire retries LockVenues until it succeeds, the retries run out or ctx ends.
func (r *Redis) Acquire(ctx context.Context, venueIDs []string, token string) error {
	attempts := r.Retries + 1
	for i := 0; i < attempts; i++ {
		ok, err := r.LockVenues(ctx, venueIDs, token)
		if err != nil {
			return fmt.Errorf("lock venues: %w", err)
		}
		if ok {
			r.Logger.LogBooking("LOCK", strings.Join(normalise(venueIDs), ","), "acquired by "+token)
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.RetryWait):
		}
	}
	r.Logger.LogBooking("BUSY", strings.Join(normalise(venueIDs), ","), fmt.Sprintf("gave up after %d attempts", attempts))
	return ErrVenueBusy
}

// Release is UnlockVenues with logging.
func (r *Redis) Release(ctx context.Context, venueIDs []string, token string) error {
	err := r.UnlockVenues(ctx, venueIDs, token)
	if err != nil {
		r.Logger.Error("BOOKING", fmt.Sprintf("Failed to release venue locks for %s: %v", token, err))
		return err
	}
	r.Logger.LogBooking("UNLOCK", strings.Join(normalise(venueIDs), ","), "released by "+token)
	return nil
}
