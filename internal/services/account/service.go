package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	repositoryErrors "github.com/nastyazhadan/trade-settlement/shared/errors/repository"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const maxUsernameLength = 100

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type Service struct {
	repository Repository
	cache      Cache
	cacheTTL   time.Duration
}

type Repository interface {
	CreateAccount(ctx context.Context, account models.Account) error
	GetAccount(ctx context.Context, username string) (models.Account, error)
}

type Cache interface {
	Get(ctx context.Context, username string) (models.Account, error)
	Set(ctx context.Context, account models.Account, ttl time.Duration) error
}

func NewService(repository Repository, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		repository: repository,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (s *Service) OpenAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error) {
	const op = "Service.OpenAccount"

	if err := validateAccount(username, balance); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	account := models.Account{
		Username:  username,
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repository.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repositoryErrors.ErrAccountAlreadyExists) {
			return models.Account{}, fmt.Errorf("%s: %w", op, serviceErrors.ErrAccountAlreadyExists)
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// GetAccount is read-through: cache first, then the store, refilling the cache.
// Cache failures degrade to a store read.
func (s *Service) GetAccount(ctx context.Context, username string) (models.Account, error) {
	const op = "Service.GetAccount"

	cached, err := s.cache.Get(ctx, username)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, repositoryErrors.ErrAccountCacheNotFound) {
		zapLogger.Warn(ctx, "account cache read failed", zap.String("username", username), zap.Error(err))
	}

	account, err := s.repository.GetAccount(ctx, username)
	if err != nil {
		if errors.Is(err, repositoryErrors.ErrAccountNotFound) {
			return models.Account{}, fmt.Errorf("%s: %w", op, serviceErrors.ErrAccountNotFound)
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, account, s.cacheTTL); err != nil {
		zapLogger.Warn(ctx, "account cache write failed", zap.String("username", username), zap.Error(err))
	}

	return account, nil
}

func validateAccount(username string, balance decimal.Decimal) error {
	if username == "" || len(username) > maxUsernameLength || !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 1-%d letters, digits or @.+-_", serviceErrors.ErrInvalidRequest, maxUsernameLength)
	}

	if balance.IsNegative() {
		return fmt.Errorf("%w: balance must not be negative", serviceErrors.ErrInvalidRequest)
	}

	if balance.GreaterThan(models.MaxAmount) {
		return fmt.Errorf("%w: balance must not exceed %s", serviceErrors.ErrInvalidRequest, models.MaxAmount.StringFixed(2))
	}

	if balance.Exponent() < -2 && !balance.Equal(balance.Round(2)) {
		return fmt.Errorf("%w: balance has more than 2 decimal places", serviceErrors.ErrInvalidRequest)
	}

	return nil
}
