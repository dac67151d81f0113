package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/vocab-api/internal/domain/entity"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий журнала ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Append добавляет строку в журнал. Журнал append-only: UPDATE и DELETE
// по нему не выполняются нигде в приложении.
func (r *AnswerRepo) Append(ctx context.Context, record *entity.AnswerRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

// ListRecent возвращает последние limit записей журнала, новые первыми
func (r *AnswerRepo) ListRecent(ctx context.Context, collectionID uint, limit int) ([]entity.AnswerRecord, error) {
	var records []entity.AnswerRecord
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return records, nil
}
