package drillmanager

import (
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/vocab-api/internal/domain/entity"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
)

// EligibilityFunc отбирает слова, участвующие в розыгрыше
// (например, "только введенные" для режима тренировки)
type EligibilityFunc func(item *entity.LexicalItem) bool

// EligibleIntroduced — стандартный предикат режима тренировки
func EligibleIntroduced(item *entity.LexicalItem) bool {
	return item.Introduced
}

// EligibleAll допускает к розыгрышу всю коллекцию
func EligibleAll(*entity.LexicalItem) bool {
	return true
}

// Selector выполняет взвешенный случайный розыгрыш слова за один проход
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector создает селектор с собственным источником случайности
func NewSelector() *Selector {
	return NewSelectorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSelectorWithRand создает селектор с заданным источником (для тестов)
func NewSelectorWithRand(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Draw разыгрывает слово из items с вероятностями, пропорциональными весам.
// Алгоритм: суммируем веса допущенных слов, тянем r из [0, total), идем по
// последовательности, вычитая вес каждого слова, и возвращаем то, на котором
// r ушло в минус.
//
// Если из-за накопленной погрешности плавающей точки r не ушло в минус ни на
// одном слове, детерминированно возвращается первое допущенное слово — это
// граничный случай, не ошибка.
//
// Возвращает ErrEmptyCollection, когда допущенных слов нет; вызывающая
// сторона должна предложить сперва запустить ввод новой партии.
func (s *Selector) Draw(items []entity.LexicalItem, weights *WeightConfig, eligible EligibilityFunc) (*entity.LexicalItem, error) {
	var first *entity.LexicalItem
	total := 0.0
	for i := range items {
		if !eligible(&items[i]) {
			continue
		}
		if first == nil {
			first = &items[i]
		}
		total += weights.WeightOf(&items[i])
	}
	if first == nil {
		return nil, apperrors.ErrEmptyCollection
	}

	s.mu.Lock()
	r := s.rng.Float64() * total
	s.mu.Unlock()

	for i := range items {
		if !eligible(&items[i]) {
			continue
		}
		r -= weights.WeightOf(&items[i])
		if r < 0 {
			return &items[i], nil
		}
	}

	// Погрешность округления на границе диапазона
	return first, nil
}
