package drillmanager

import (
	"time"

	"github.com/yourusername/vocab-api/internal/domain/repository"
)

// Constants for default values
const (
	// DefaultBatchSize — размер партии при вводе новых слов
	DefaultBatchSize = 10

	// DefaultHighWeight — вес для слов без статистики. Рабочий диапазон 11..20:
	// ниже 11 свежие слова теряются среди рейтинговых весов [1, 1+K],
	// выше 20 тренировка вырождается в показ одних новых слов.
	DefaultHighWeight = 15

	// DefaultSpreadK — константа разброса рейтинговых весов (движок
	// эксплуатировался с K=4 и K=9)
	DefaultSpreadK = 9
)

// Config содержит настройки для всех компонентов DrillManager
type Config struct {
	// Значения по умолчанию для политики коллекции (коллекция может
	// переопределить их своими полями)
	HighWeight int
	SpreadK    int
	BatchSize  int

	// SessionTTL — сколько держать неактивную сессию до вычистки
	SessionTTL time.Duration

	// Параметры аренды блокировки записи статистики
	LockTTL           time.Duration
	LockRetryInterval time.Duration
	MaxLockRetries    int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		HighWeight:        DefaultHighWeight,
		SpreadK:           DefaultSpreadK,
		BatchSize:         DefaultBatchSize,
		SessionTTL:        2 * time.Hour,
		LockTTL:           5 * time.Second,
		LockRetryInterval: 50 * time.Millisecond,
		MaxLockRetries:    20,
	}
}

// Dependencies содержит зависимости для компонентов DrillManager
type Dependencies struct {
	ItemRepo   repository.ItemRepository
	AnswerRepo repository.AnswerRepository
	CacheRepo  repository.CacheRepository
	Config     *Config
}
