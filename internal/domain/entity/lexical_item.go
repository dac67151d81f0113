package entity

import (
	"database/sql/driver"
	"errors"
	"math"
	"time"
)

// AnswerOutcome — результат последней первой попытки по слову
type AnswerOutcome string

const (
	OutcomeUnknown   AnswerOutcome = "unknown"
	OutcomeCorrect   AnswerOutcome = "correct"
	OutcomeIncorrect AnswerOutcome = "incorrect"
)

// Scan реализует интерфейс sql.Scanner для AnswerOutcome
// Используется GORM для чтения значения из базы
func (o *AnswerOutcome) Scan(value interface{}) error {
	if value == nil {
		*o = OutcomeUnknown
		return nil
	}
	switch v := value.(type) {
	case string:
		*o = AnswerOutcome(v)
	case []byte:
		*o = AnswerOutcome(v)
	default:
		return errors.New("failed to scan AnswerOutcome: expected string")
	}
	if *o == "" {
		*o = OutcomeUnknown
	}
	return nil
}

// Value реализует интерфейс driver.Valuer для AnswerOutcome
func (o AnswerOutcome) Value() (driver.Value, error) {
	if o == "" {
		return string(OutcomeUnknown), nil
	}
	return string(o), nil
}

// LexicalItem представляет одну пару "слово — перевод" со статистикой
// первых попыток. Идентичность слова внутри коллекции задается полем
// Position, а не первичным ключом: позиция стабильна на время сессии
// и не переназначается при правках словаря.
type LexicalItem struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CollectionID uint   `gorm:"not null;uniqueIndex:idx_items_collection_position,priority:1" json:"collection_id"`
	Position     int    `gorm:"not null;uniqueIndex:idx_items_collection_position,priority:2" json:"position"`
	SourceText   string `gorm:"size:200;not null" json:"source_text"`
	TargetText   string `gorm:"size:200;not null" json:"-"` // Скрыто от клиента при выдаче подсказки

	// Attempts и Successes считают только первые попытки; инвариант
	// successes <= attempts закреплен и CHECK-ограничением в схеме.
	Attempts  int `gorm:"not null;default:0" json:"attempts"`
	Successes int `gorm:"not null;default:0" json:"successes"`

	LastOutcome AnswerOutcome `gorm:"size:16;not null;default:'unknown'" json:"last_outcome"`
	Introduced  bool          `gorm:"not null;default:false" json:"introduced"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (LexicalItem) TableName() string {
	return "lexical_items"
}

// Fresh возвращает true, если по слову еще не было ни одной первой попытки
func (i *LexicalItem) Fresh() bool {
	return i.Attempts == 0
}

// SuccessRate возвращает историческую точность [0,1].
// При нулевом количестве попыток возвращает 0 без деления.
func (i *LexicalItem) SuccessRate() float64 {
	if i.Attempts == 0 {
		return 0
	}
	return float64(i.Successes) / float64(i.Attempts)
}

// Percentage возвращает точность в процентах, округленную до целого
func (i *LexicalItem) Percentage() int {
	if i.Attempts == 0 {
		return 0
	}
	return int(math.Round(i.SuccessRate() * 100))
}
