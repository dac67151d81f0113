package drillmanager

import (
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/vocab-api/internal/domain/entity"
)

// Introducer готовит партию ни разу не показанных слов для первого знакомства
type Introducer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIntroducer создает Introducer с собственным источником случайности
func NewIntroducer() *Introducer {
	return NewIntroducerWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewIntroducerWithRand создает Introducer с заданным источником (для тестов)
func NewIntroducerWithRand(rng *rand.Rand) *Introducer {
	return &Introducer{rng: rng}
}

// NextBatch отбирает до batchSize слов с introduced == false в случайном
// порядке: фильтр, затем пермутация Фишера–Йетса, затем префикс. Пустая
// коллекция новых слов — это пустая партия, а не ошибка.
//
// Слова из партии показываются по одному; флаг introduced выставляется при
// ПЕРЕХОДЕ к следующему слову, а не при первом показе (см. AdvanceBatch
// в сессии): показ без подтверждения перехода не считается знакомством.
func (in *Introducer) NextBatch(items []entity.LexicalItem, batchSize int) []entity.LexicalItem {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	fresh := make([]entity.LexicalItem, 0, len(items))
	for i := range items {
		if !items[i].Introduced {
			fresh = append(fresh, items[i])
		}
	}

	in.mu.Lock()
	for i := len(fresh) - 1; i >= 1; i-- {
		j := in.rng.Intn(i + 1)
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	in.mu.Unlock()

	if len(fresh) > batchSize {
		fresh = fresh[:batchSize]
	}
	return fresh
}
