package entity

import "time"

// Режимы взвешивания, поддерживаемые движком. Один режим на коллекцию.
const (
	// WeightModeFresh — завышенный вес только для ни разу не спрошенных слов.
	WeightModeFresh = "fresh"

	// WeightModeFailure — как fresh, плюс недавняя ошибка возвращает слову
	// максимальный приоритет независимо от исторической точности.
	WeightModeFailure = "failure"
)

// Collection представляет один словарь (набор пар слов) вместе с политикой
// тренировки. Политика задается на коллекцию целиком, а не на слово.
type Collection struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:100;not null" json:"name"`
	SourceLang string `gorm:"size:16;not null;default:'fr'" json:"source_lang"`
	TargetLang string `gorm:"size:16;not null;default:'ro'" json:"target_lang"`

	// WeightMode — режим функции веса: "fresh" или "failure".
	WeightMode string `gorm:"size:16;not null;default:'failure'" json:"weight_mode"`

	// HighWeight — вес для слов с нулевой статистикой (и для недавних ошибок
	// в режиме failure). Допустимый диапазон 11..20.
	HighWeight int `gorm:"not null;default:15" json:"high_weight"`

	// SpreadK — константа разброса K в формуле 1 + round((1-rate)*K).
	SpreadK int `gorm:"not null;default:9" json:"spread_k"`

	// BatchSize — размер партии при вводе новых слов.
	BatchSize int `gorm:"not null;default:10" json:"batch_size"`

	// MarkLearnedOnCorrect — помечать ли слово как введенное после первого
	// правильного ответа (вариант A) или только через явный ввод партии
	// (вариант B). Исходные варианты системы расходились; здесь это политика.
	MarkLearnedOnCorrect bool `gorm:"not null;default:false" json:"mark_learned_on_correct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Collection) TableName() string {
	return "collections"
}

// FailureBias возвращает true, если недавняя ошибка должна сбрасывать слово
// в максимальный приоритет.
func (c *Collection) FailureBias() bool {
	return c.WeightMode != WeightModeFresh
}
