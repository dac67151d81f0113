package drillmanager

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/vocab-api/internal/domain/entity"
)

// ProgressTracker обновляет статистику слова после проверенного ответа.
// Единственный компонент, которому разрешено мутировать сохраненные счетчики.
type ProgressTracker struct {
	config *Config
	deps   *Dependencies
}

// NewProgressTracker создает новый трекер прогресса
func NewProgressTracker(config *Config, deps *Dependencies) *ProgressTracker {
	return &ProgressTracker{
		config: config,
		deps:   deps,
	}
}

// AttemptStats — статистика слова, возвращаемая после записи попытки
type AttemptStats struct {
	Attempts    int                  `json:"attempts"`
	Successes   int                  `json:"successes"`
	Percentage  int                  `json:"percentage"`
	LastOutcome entity.AnswerOutcome `json:"last_outcome"`
	Introduced  bool                 `json:"introduced"`
}

func statsOf(item *entity.LexicalItem) *AttemptStats {
	return &AttemptStats{
		Attempts:    item.Attempts,
		Successes:   item.Successes,
		Percentage:  item.Percentage(),
		LastOutcome: item.LastOutcome,
		Introduced:  item.Introduced,
	}
}

// RecordFirstAttempt записывает результат первой попытки по слову.
// Для повторных попыток в рамках того же показа (isFirstAttempt=false)
// счетчики не трогаются — возвращается текущая статистика: иначе ученик
// накручивал бы процент повторным угадыванием того же слова.
//
// Чтение-модификация-запись не атомарна относительно хранилища, поэтому
// обновление сериализуется арендой блокировки на (collection, position).
// Запись в хранилище — один вызов: при его ошибке частичного состояния
// не остается, и вызывающая сторона может повторить всю операцию.
func (pt *ProgressTracker) RecordFirstAttempt(ctx context.Context, col *entity.Collection, position int, isCorrect bool, isFirstAttempt bool) (*AttemptStats, error) {
	if !isFirstAttempt {
		item, err := pt.deps.ItemRepo.GetByPosition(ctx, col.ID, position)
		if err != nil {
			return nil, err
		}
		return statsOf(item), nil
	}

	lockKey := fmt.Sprintf("drill:%d:item:%d:lock", col.ID, position)
	unlock := pt.acquireLock(lockKey)
	defer unlock()

	item, err := pt.deps.ItemRepo.GetByPosition(ctx, col.ID, position)
	if err != nil {
		return nil, err
	}

	item.Attempts++
	if isCorrect {
		item.Successes++
		item.LastOutcome = entity.OutcomeCorrect
		if col.MarkLearnedOnCorrect {
			// Политика варианта A: однажды доказанное слово считается выученным
			item.Introduced = true
		}
	} else {
		item.LastOutcome = entity.OutcomeIncorrect
	}

	if err := pt.deps.ItemRepo.UpdateStats(ctx, col.ID, position, item.Attempts, item.Successes, item.Introduced, item.LastOutcome); err != nil {
		return nil, fmt.Errorf("failed to update item stats: %w", err)
	}

	return statsOf(item), nil
}

// acquireLock берет аренду блокировки через SetNX и возвращает функцию
// освобождения. Аренда best-effort: при недоступном Redis обновление
// продолжается без сериализации — для развертываний с одним учеником на
// коллекцию этого достаточно, а ответ важнее потерянного инкремента.
func (pt *ProgressTracker) acquireLock(key string) func() {
	for attempt := 0; attempt <= pt.config.MaxLockRetries; attempt++ {
		ok, err := pt.deps.CacheRepo.SetNX(key, "1", pt.config.LockTTL)
		if err != nil {
			log.Printf("[ProgressTracker] WARNING: Redis недоступен при захвате %s: %v, пишем без блокировки", key, err)
			return func() {}
		}
		if ok {
			return func() {
				if err := pt.deps.CacheRepo.Delete(key); err != nil {
					log.Printf("[ProgressTracker] WARNING: не удалось снять блокировку %s: %v", key, err)
				}
			}
		}
		time.Sleep(pt.config.LockRetryInterval)
	}
	log.Printf("[ProgressTracker] WARNING: блокировка %s не получена за %d попыток, пишем без нее", key, pt.config.MaxLockRetries)
	return func() {}
}
