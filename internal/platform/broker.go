// Package platform wires beacon's two storage backends: a Redis-compatible
// message broker (queues, sets, hashes, ACLs) and a MongoDB document store.
package platform

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BrokerOptions configures a Broker connection (spec §4.A).
type BrokerOptions struct {
	Addr     string
	Username string
	Password string
	UseTLS   bool
}

// Broker abstracts a single authenticated connection to the message broker:
// list, set, hash, and ACL commands, plus reconnect (spec §4.A).
type Broker struct {
	rdb *redis.Client
}

// NewBroker dials and pings the broker, mirroring the teacher's
// NewRedisClient dial-then-ping pattern but built from discrete fields
// instead of a URL, since beacon's config carries host/port/auth separately.
func NewBroker(ctx context.Context, opts BrokerOptions) (*Broker, error) {
	redisOpts := &redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
	}
	if opts.UseTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("platform: pinging broker: %w", err)
	}
	return &Broker{rdb: rdb}, nil
}

// Close releases the underlying connection pool.
func (b *Broker) Close() error { return b.rdb.Close() }

// Ping verifies the broker connection is live, used by the /readyz check.
func (b *Broker) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

// Reconnect discards the current connection and dials a fresh one.
func (b *Broker) Reconnect(ctx context.Context, opts BrokerOptions) error {
	_ = b.rdb.Close()
	fresh, err := NewBroker(ctx, opts)
	if err != nil {
		return err
	}
	b.rdb = fresh.rdb
	return nil
}

// RPush appends values to the tail of a list, returning the new length.
func (b *Broker) RPush(ctx context.Context, key string, values ...any) (int64, error) {
	return b.rdb.RPush(ctx, key, values...).Result()
}

// LPush prepends values to the head of a list, returning the new length.
func (b *Broker) LPush(ctx context.Context, key string, values ...any) (int64, error) {
	return b.rdb.LPush(ctx, key, values...).Result()
}

// LPop pops one value from the head of a list. Returns redis.Nil (check with
// errors.Is) when the list is empty.
func (b *Broker) LPop(ctx context.Context, key string) (string, error) {
	return b.rdb.LPop(ctx, key).Result()
}

// BLPop blocks up to timeout for a value at the head of any of the given
// keys. Returns redis.Nil on timeout.
func (b *Broker) BLPop(ctx context.Context, timeout time.Duration, keys ...string) ([]string, error) {
	return b.rdb.BLPop(ctx, timeout, keys...).Result()
}

// BRPop blocks up to timeout for a value at the tail of any of the given
// keys. Returns redis.Nil on timeout.
func (b *Broker) BRPop(ctx context.Context, timeout time.Duration, keys ...string) ([]string, error) {
	return b.rdb.BRPop(ctx, timeout, keys...).Result()
}

// LLen reports a list's current length.
func (b *Broker) LLen(ctx context.Context, key string) (int64, error) {
	return b.rdb.LLen(ctx, key).Result()
}

// LTrim trims a list to the inclusive [start, stop] range. A start strictly
// greater than stop is the documented idiom for emptying the list entirely
// (spec §4.C stale eviction), and go-redis passes that through unchanged.
func (b *Broker) LTrim(ctx context.Context, key string, start, stop int64) error {
	return b.rdb.LTrim(ctx, key, start, stop).Err()
}

// LDel deletes a list key outright.
func (b *Broker) LDel(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, key).Err()
}

// SAdd adds members to a set.
func (b *Broker) SAdd(ctx context.Context, key string, members ...any) error {
	return b.rdb.SAdd(ctx, key, members...).Err()
}

// SRem removes members from a set.
func (b *Broker) SRem(ctx context.Context, key string, members ...any) error {
	return b.rdb.SRem(ctx, key, members...).Err()
}

// SIsMember reports set membership.
func (b *Broker) SIsMember(ctx context.Context, key string, member any) (bool, error) {
	return b.rdb.SIsMember(ctx, key, member).Result()
}

// SMembers lists every member of a set.
func (b *Broker) SMembers(ctx context.Context, key string) ([]string, error) {
	return b.rdb.SMembers(ctx, key).Result()
}

// HGet reads one field from a hash.
func (b *Broker) HGet(ctx context.Context, key, field string) (string, error) {
	return b.rdb.HGet(ctx, key, field).Result()
}

// HSet writes one field into a hash.
func (b *Broker) HSet(ctx context.Context, key, field string, value any) error {
	return b.rdb.HSet(ctx, key, field, value).Err()
}

// HGetAll reads every field of a hash.
func (b *Broker) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return b.rdb.HGetAll(ctx, key).Result()
}

// ACLSetUser grants the named command/key rules to a broker principal. rules
// follows Redis ACL SETUSER syntax, e.g. "on", ">password", "~queue:abc",
// "+lpop". Used by pool refill to grant a pooled device id read access to its
// own queue and push access to the incoming-ping queue (spec §4.B step 2).
func (b *Broker) ACLSetUser(ctx context.Context, username string, rules ...string) error {
	args := make([]any, 0, len(rules)+3)
	args = append(args, "ACL", "SETUSER", username)
	for _, r := range rules {
		args = append(args, r)
	}
	return b.rdb.Do(ctx, args...).Err()
}

// ACLDelUser revokes a broker principal outright, used to forcibly
// disconnect a device (beaconctl disconnect).
func (b *Broker) ACLDelUser(ctx context.Context, username string) error {
	return b.rdb.Do(ctx, "ACL", "DELUSER", username).Err()
}

// ACLList returns the raw ACL LIST output, one rule-string per principal.
func (b *Broker) ACLList(ctx context.Context) ([]string, error) {
	res, err := b.rdb.Do(ctx, "ACL", "LIST").StringSlice()
	if err != nil {
		return nil, fmt.Errorf("platform: ACL LIST: %w", err)
	}
	return res, nil
}

// IsNoData reports whether err is the broker's "nothing to return" sentinel
// (redis.Nil), the condition for an empty list pop or a missing hash field.
func IsNoData(err error) bool {
	return err == redis.Nil
}
