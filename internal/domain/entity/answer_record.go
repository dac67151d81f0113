package entity

import "time"

// Метки исхода в журнале ответов. Совпадают с историческим форматом
// листа histo ("OK"/"KO"), чтобы выгрузки оставались совместимыми.
const (
	RecordOutcomeOK = "OK"
	RecordOutcomeKO = "KO"
)

// AnswerRecord — одна строка append-only журнала ответов. Журнал никогда не
// читается движком при принятии решений; по нему считается только оконная
// статистика точности.
type AnswerRecord struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CollectionID uint   `gorm:"not null;index:idx_answers_collection_created,priority:1" json:"collection_id"`
	Position     int    `gorm:"not null" json:"position"`
	SourceText   string `gorm:"size:200;not null" json:"source_text"`
	Submitted    string `gorm:"size:200;not null" json:"submitted"`
	Expected     string `gorm:"size:200;not null" json:"expected"`

	// Outcome — "OK" или "KO"
	Outcome string `gorm:"size:2;not null" json:"outcome"`

	CreatedAt time.Time `gorm:"index:idx_answers_collection_created,priority:2" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AnswerRecord) TableName() string {
	return "answer_records"
}

// Correct возвращает true для строки с исходом "OK"
func (r *AnswerRecord) Correct() bool {
	return r.Outcome == RecordOutcomeOK
}

// RecordOutcome переводит булев результат проверки в метку журнала
func RecordOutcome(isCorrect bool) string {
	if isCorrect {
		return RecordOutcomeOK
	}
	return RecordOutcomeKO
}
