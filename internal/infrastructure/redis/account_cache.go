package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	"github.com/nastyazhadan/trade-settlement/internal/infrastructure/redis/dto"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	sharedRedis "github.com/nastyazhadan/trade-settlement/shared/infra/redis"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const accountKeyPrefix = "account:cache:"

type AccountCacheRepository struct {
	cache sharedRedis.Client
}

func NewAccountCacheRepository(cache sharedRedis.Client) *AccountCacheRepository {
	return &AccountCacheRepository{
		cache: cache,
	}
}

func (a *AccountCacheRepository) Get(ctx context.Context, username string) (models.Account, error) {
	const op = "AccountCacheRepository.Get"

	data, err := a.cache.Get(ctx, accountKeyPrefix+username)
	if err != nil {
		if errors.Is(err, sharedRedis.ErrNil) {
			return models.Account{}, repositoryErrors.ErrAccountCacheNotFound
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	var redisView dto.AccountRedisView
	if err = json.Unmarshal(data, &redisView); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	account, err := redisView.ToDomain()
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

func (a *AccountCacheRepository) Set(ctx context.Context, account models.Account, ttl time.Duration) error {
	const op = "AccountCacheRepository.Set"

	data, err := json.Marshal(dto.AccountFromDomain(account))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = a.cache.SetWithTTL(ctx, accountKeyPrefix+account.Username, data, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// InvalidateAccount drops the cached balance. A failure only leaves a stale
// entry until its TTL runs out, so it is logged and not returned.
func (a *AccountCacheRepository) InvalidateAccount(ctx context.Context, username string) {
	if err := a.cache.Del(ctx, accountKeyPrefix+username); err != nil {
		zapLogger.Warn(ctx, "failed to invalidate account cache",
			zap.String("username", username),
			zap.Error(err),
		)
	}
}
