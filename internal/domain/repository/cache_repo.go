package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем.
// Используется для аренды блокировок на запись статистики (SetNX),
// состояния сессий и кешированных агрегатов.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Increment(key string) (int64, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Exists(key string) (bool, error)
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
}
