package otp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const challengeKeyPrefix = "otp"

// challengeRecord is the stored shape of one login challenge.
// The record holds a hash, never the code itself.
type challengeRecord struct {
	CodeHash  string `json:"code_hash"`
	ExpiresAt int64  `json:"expires_at"`
	Attempts  int    `json:"attempts"`
}

// RedisCoordinator keeps challenges in Redis, one key per email.
// A plain SET gives the at-most-one-active guarantee (last writer replaces
// any prior challenge), the key TTL gives passive expiry, and a WATCH-guarded
// delete makes the first successful verify the only one.
type RedisCoordinator struct {
	redis       *redis.Client
	sender      Sender
	codeTTL     time.Duration
	maxAttempts int
}

func NewRedisCoordinator(redisClient *redis.Client, sender Sender, codeTTL time.Duration, maxAttempts int) *RedisCoordinator {
	return &RedisCoordinator{
		redis:       redisClient,
		sender:      sender,
		codeTTL:     codeTTL,
		maxAttempts: maxAttempts,
	}
}

func (rc *RedisCoordinator) key(email string) string {
	return challengeKeyPrefix + ":" + email
}

// Issue generates a fresh code for the email, replaces any active challenge,
// and delivers the code in the background so the caller isn't held up by SMTP.
func (rc *RedisCoordinator) Issue(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	code, err := generateCode()
	if err != nil {
		return err
	}

	record := challengeRecord{
		CodeHash:  hashCode(email, code),
		ExpiresAt: time.Now().Add(rc.codeTTL).Unix(),
		Attempts:  rc.maxAttempts,
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if err := rc.redis.Set(ctx, rc.key(email), encoded, rc.codeTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	go func() {
		if err := rc.sender.SendLoginOTP(email, code); err != nil {
			log.Printf("otp: failed to deliver login code to %s: %v", email, err)
		}
	}()

	return nil
}

// Verify checks the submitted code against the active challenge and consumes
// the challenge on success. Concurrent verifies race on a WATCH of the key;
// whichever transaction commits first wins and the rest see ErrNoChallenge.
func (rc *RedisCoordinator) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	key := rc.key(email)

	const maxRetries = 4
	for i := 0; i < maxRetries; i++ {
		err := rc.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrNoChallenge
			}
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}

			var record challengeRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}

			if time.Now().Unix() > record.ExpiresAt {
				if err := deleteInTx(ctx, tx, key); err != nil {
					return err
				}
				return ErrChallengeExpired
			}

			provided := hashCode(email, code)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(record.CodeHash)) != 1 {
				record.Attempts--
				if record.Attempts <= 0 {
					if err := deleteInTx(ctx, tx, key); err != nil {
						return err
					}
					return ErrTooManyAttempts
				}

				updated, err := json.Marshal(record)
				if err != nil {
					return err
				}
				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					ttl = time.Second
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrCodeMismatch
			}

			// Correct code: consume the challenge.
			return deleteInTx(ctx, tx, key)
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			// Someone touched the key mid-check; re-read and retry.
			continue
		}
		return err
	}

	return fmt.Errorf("%w: transaction retries exhausted", ErrStoreUnavailable)
}

func deleteInTx(ctx context.Context, tx *redis.Tx, key string) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		return nil
	})
	return err
}
