package repository

import (
	"github.com/yourusername/vocab-api/internal/domain/entity"
)

// CollectionRepository определяет методы для работы с коллекциями слов
type CollectionRepository interface {
	Create(collection *entity.Collection) error
	GetByID(id uint) (*entity.Collection, error)
	List() ([]entity.Collection, error)
	Update(collection *entity.Collection) error
}
