package dto

import (
	"time"

	"github.com/yourusername/vocab-api/internal/domain/entity"
)

// CollectionResponse представляет коллекцию в формате для ответа клиенту
type CollectionResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`

	WeightMode           string `json:"weight_mode"`
	HighWeight           int    `json:"high_weight"`
	SpreadK              int    `json:"spread_k"`
	BatchSize            int    `json:"batch_size"`
	MarkLearnedOnCorrect bool   `json:"mark_learned_on_correct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WordResponse представляет слово коллекции. Перевод намеренно не входит
// в ответ: проверка выполняется на сервере, подсказка не должна утекать.
type WordResponse struct {
	Position    int    `json:"position"`
	SourceText  string `json:"source_text"`
	Attempts    int    `json:"attempts"`
	Successes   int    `json:"successes"`
	Percentage  int    `json:"percentage"`
	LastOutcome string `json:"last_outcome"`
	Introduced  bool   `json:"introduced"`
}

// NewCollectionResponse создает DTO для коллекции
func NewCollectionResponse(col *entity.Collection) *CollectionResponse {
	return &CollectionResponse{
		ID:                   col.ID,
		Name:                 col.Name,
		SourceLang:           col.SourceLang,
		TargetLang:           col.TargetLang,
		WeightMode:           col.WeightMode,
		HighWeight:           col.HighWeight,
		SpreadK:              col.SpreadK,
		BatchSize:            col.BatchSize,
		MarkLearnedOnCorrect: col.MarkLearnedOnCorrect,
		CreatedAt:            col.CreatedAt,
		UpdatedAt:            col.UpdatedAt,
	}
}

// NewListCollectionResponse создает список DTO коллекций
func NewListCollectionResponse(cols []entity.Collection) []*CollectionResponse {
	out := make([]*CollectionResponse, 0, len(cols))
	for i := range cols {
		out = append(out, NewCollectionResponse(&cols[i]))
	}
	return out
}

// NewWordResponse создает DTO для слова
func NewWordResponse(item *entity.LexicalItem) *WordResponse {
	return &WordResponse{
		Position:    item.Position,
		SourceText:  item.SourceText,
		Attempts:    item.Attempts,
		Successes:   item.Successes,
		Percentage:  item.Percentage(),
		LastOutcome: string(item.LastOutcome),
		Introduced:  item.Introduced,
	}
}

// NewListWordResponse создает список DTO слов
func NewListWordResponse(items []entity.LexicalItem) []*WordResponse {
	out := make([]*WordResponse, 0, len(items))
	for i := range items {
		out = append(out, NewWordResponse(&items[i]))
	}
	return out
}
