package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"advent_calendar/internal/storage"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	versionKeyPrefix = "gift:content:version:"
	lockKeyPrefix    = "gift:content:lock:"

	lockTTL   = 30 * time.Second
	lockWait  = 10 * time.Second
	lockRetry = 50 * time.Millisecond
)

// снимаем блокировку, только если она всё ещё наша
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// поднимаем версию, но никогда не опускаем
const syncScript = `local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local v = tonumber(ARGV[1])
if v > cur then
	redis.call("SET", KEYS[1], v)
	return v
end
return cur`

// VersionStore хранит версии контента и блокировку записи в Redis, чтобы
// защита от устаревших записей работала между несколькими процессами.
type VersionStore struct {
	client   goredis.UniversalClient
	newToken func() string
}

func NewVersionStore(client goredis.UniversalClient) *VersionStore {
	return &VersionStore{
		client:   client,
		newToken: uuid.NewString,
	}
}

func versionKey(giftID uuid.UUID) string {
	return versionKeyPrefix + giftID.String()
}

func lockKey(giftID uuid.UUID) string {
	return lockKeyPrefix + giftID.String()
}

// Current возвращает текущую версию; 0, если контент ещё не сохранялся.
func (s *VersionStore) Current(ctx context.Context, giftID uuid.UUID) (int64, error) {
	const op = "redis.VersionStore.Current"

	v, err := s.client.Get(ctx, versionKey(giftID)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

// Sync поднимает версию до v, если сейчас она меньше.
func (s *VersionStore) Sync(ctx context.Context, giftID uuid.UUID, v int64) error {
	const op = "redis.VersionStore.Sync"

	if err := s.client.Eval(ctx, syncScript, []string{versionKey(giftID)}, v).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Lock берёт блокировку записи контента подарка (SET NX с TTL).
// Ждёт не дольше lockWait, затем storage.ErrContentBusy.
func (s *VersionStore) Lock(ctx context.Context, giftID uuid.UUID) (func(), error) {
	const op = "redis.VersionStore.Lock"

	key := lockKey(giftID)
	token := s.newToken()
	deadline := time.Now().Add(lockWait)

	for {
		ok, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrContentBusy)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(lockRetry):
		}
	}

	return func() {
		// контекст запроса к этому моменту может быть отменён
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		s.client.Eval(ctx, unlockScript, []string{key}, token)
	}, nil
}

func (s *VersionStore) Reset(ctx context.Context, giftID uuid.UUID) error {
	const op = "redis.VersionStore.Reset"

	if err := s.client.Del(ctx, versionKey(giftID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
