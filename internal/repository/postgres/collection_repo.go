package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/vocab-api/internal/domain/entity"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
)

// CollectionRepo реализует repository.CollectionRepository
type CollectionRepo struct {
	db *gorm.DB
}

// NewCollectionRepo создает новый репозиторий коллекций
func NewCollectionRepo(db *gorm.DB) *CollectionRepo {
	return &CollectionRepo{db: db}
}

// Create создает новую коллекцию
func (r *CollectionRepo) Create(collection *entity.Collection) error {
	return r.db.Create(collection).Error
}

// GetByID возвращает коллекцию по ID
func (r *CollectionRepo) GetByID(id uint) (*entity.Collection, error) {
	var collection entity.Collection
	err := r.db.First(&collection, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &collection, nil
}

// List возвращает все коллекции
func (r *CollectionRepo) List() ([]entity.Collection, error) {
	var collections []entity.Collection
	err := r.db.Order("id").Find(&collections).Error
	if err != nil {
		return nil, err
	}
	return collections, nil
}

// Update обновляет коллекцию
func (r *CollectionRepo) Update(collection *entity.Collection) error {
	return r.db.Save(collection).Error
}
