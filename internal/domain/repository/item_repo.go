package repository

import (
	"context"

	"github.com/yourusername/vocab-api/internal/domain/entity"
)

// ItemRepository — минимальный контракт хранилища слов (Item Store).
// Движок тренировки агностичен к реализации: за интерфейсом может стоять
// любая табличная база. Все операции со statами адресуются парой
// (collectionID, position).
type ItemRepository interface {
	// ListByCollection возвращает все слова коллекции в порядке position
	ListByCollection(ctx context.Context, collectionID uint) ([]entity.LexicalItem, error)

	// GetByPosition возвращает слово по стабильной позиции в коллекции
	GetByPosition(ctx context.Context, collectionID uint, position int) (*entity.LexicalItem, error)

	// GetBySourceText ищет слово по тексту подсказки (для пути правки словаря)
	GetBySourceText(ctx context.Context, collectionID uint, sourceText string) (*entity.LexicalItem, error)

	// UpdateStats записывает счетчики и флаги одним вызовом. Единственная
	// точка мутации статистики; вызывается только трекером прогресса.
	UpdateStats(ctx context.Context, collectionID uint, position int, attempts, successes int, introduced bool, lastOutcome entity.AnswerOutcome) error

	// MarkIntroduced выставляет флаг introduced, не трогая счетчики
	MarkIntroduced(ctx context.Context, collectionID uint, position int) error

	// UpdateTargetText правит перевод на месте, сохраняя position и статистику
	UpdateTargetText(ctx context.Context, collectionID uint, position int, targetText string) error

	// Append добавляет новое слово (attempts=0, successes=0, introduced=false)
	Append(ctx context.Context, item *entity.LexicalItem) error

	// AppendBatch добавляет пакет слов одной транзакцией
	AppendBatch(ctx context.Context, items []entity.LexicalItem) error

	// NextPosition возвращает первую свободную позицию в коллекции
	NextPosition(ctx context.Context, collectionID uint) (int, error)
}

// AnswerRepository — append-only журнал ответов. Движок пишет в журнал и
// никогда не читает его при выборе слова; чтение нужно только оконной
// статистике точности.
type AnswerRepository interface {
	Append(ctx context.Context, record *entity.AnswerRecord) error

	// ListRecent возвращает последние limit записей, новые первыми
	ListRecent(ctx context.Context, collectionID uint, limit int) ([]entity.AnswerRecord, error)
}
