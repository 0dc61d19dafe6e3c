package repositories

import (
	"context"
	"time"
)

// CacheRepositoryInterface - key-value хранилище для сессионных данных:
// состояний списков, черновиков диагноза и прочих короткоживущих значений.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
}

// ErrCacheMiss возвращают реализации, когда ключа нет.
// Redis-реализация транслирует redis.Nil в эту ошибку.
var ErrCacheMiss = errCacheMiss{}

type errCacheMiss struct{}

func (errCacheMiss) Error() string { return "ключ не найден в кеше" }
