package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/vocab-api/internal/domain/entity"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
)

// ItemRepo реализует repository.ItemRepository
type ItemRepo struct {
	db *gorm.DB
}

// NewItemRepo создает новый репозиторий слов
func NewItemRepo(db *gorm.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// ListByCollection возвращает все слова коллекции в порядке позиций
func (r *ItemRepo) ListByCollection(ctx context.Context, collectionID uint) ([]entity.LexicalItem, error) {
	var items []entity.LexicalItem
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("position").
		Find(&items).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// GetByPosition возвращает слово по стабильной позиции
func (r *ItemRepo) GetByPosition(ctx context.Context, collectionID uint, position int) (*entity.LexicalItem, error) {
	var item entity.LexicalItem
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND position = ?", collectionID, position).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &item, nil
}

// GetBySourceText ищет слово по тексту подсказки
func (r *ItemRepo) GetBySourceText(ctx context.Context, collectionID uint, sourceText string) (*entity.LexicalItem, error) {
	var item entity.LexicalItem
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND source_text = ?", collectionID, sourceText).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &item, nil
}

// UpdateStats записывает счетчики и флаги слова одним UPDATE.
// Частичных записей не бывает: либо вся строка обновлена, либо ошибка.
func (r *ItemRepo) UpdateStats(ctx context.Context, collectionID uint, position int, attempts, successes int, introduced bool, lastOutcome entity.AnswerOutcome) error {
	result := r.db.WithContext(ctx).
		Model(&entity.LexicalItem{}).
		Where("collection_id = ? AND position = ?", collectionID, position).
		Updates(map[string]interface{}{
			"attempts":     attempts,
			"successes":    successes,
			"introduced":   introduced,
			"last_outcome": lastOutcome,
		})
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkIntroduced выставляет флаг introduced, не меняя счетчики
func (r *ItemRepo) MarkIntroduced(ctx context.Context, collectionID uint, position int) error {
	result := r.db.WithContext(ctx).
		Model(&entity.LexicalItem{}).
		Where("collection_id = ? AND position = ?", collectionID, position).
		Update("introduced", true)
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateTargetText правит перевод на месте; позиция и статистика сохраняются
func (r *ItemRepo) UpdateTargetText(ctx context.Context, collectionID uint, position int, targetText string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.LexicalItem{}).
		Where("collection_id = ? AND position = ?", collectionID, position).
		Update("target_text", targetText)
	if result.Error != nil {
		return storeErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Append добавляет новое слово. Гонка за позицию двух конкурентных вставок
// ловится уникальным индексом (collection_id, position) и отдается как
// ErrConflict, чтобы вызывающий код перечитал NextPosition.
func (r *ItemRepo) Append(ctx context.Context, item *entity.LexicalItem) error {
	err := r.db.WithContext(ctx).Create(item).Error
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return apperrors.ErrConflict
		}
		return storeErr(err)
	}
	return nil
}

// AppendBatch добавляет пакет слов одной транзакцией
func (r *ItemRepo) AppendBatch(ctx context.Context, items []entity.LexicalItem) error {
	if len(items) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return storeErr(err)
	}
	return nil
}

// NextPosition возвращает первую свободную позицию (позиции нумеруются с 0)
func (r *ItemRepo) NextPosition(ctx context.Context, collectionID uint) (int, error) {
	var maxPosition *int
	err := r.db.WithContext(ctx).
		Model(&entity.LexicalItem{}).
		Where("collection_id = ?", collectionID).
		Select("MAX(position)").
		Scan(&maxPosition).Error
	if err != nil {
		return 0, storeErr(err)
	}
	if maxPosition == nil {
		return 0, nil
	}
	return *maxPosition + 1, nil
}

// storeErr переводит таймауты и отмены в ErrStoreUnavailable, чтобы
// вызывающая сторона могла повторить вызов с backoff
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return err
}
