package drillmanager

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vocab-api/internal/domain/entity"
	apperrors "github.com/yourusername/vocab-api/internal/pkg/errors"
)

// ============================================================================
// Тесты для Selector
// ============================================================================

func testWeights() *WeightConfig {
	return &WeightConfig{FailureBias: true, HighWeight: 15, SpreadK: 9}
}

// TestDraw_SingleItem — коллекция из одного допущенного слова всегда
// возвращает именно его
func TestDraw_SingleItem(t *testing.T) {
	s := NewSelectorWithRand(rand.New(rand.NewSource(1)))
	items := []entity.LexicalItem{
		{CollectionID: 1, Position: 0, SourceText: "chien", Introduced: true},
	}

	for i := 0; i < 20; i++ {
		item, err := s.Draw(items, testWeights(), EligibleIntroduced)
		require.NoError(t, err)
		assert.Equal(t, 0, item.Position)
	}
}

// TestDraw_EmptyCollection — без допущенных слов розыгрыш невозможен
func TestDraw_EmptyCollection(t *testing.T) {
	s := NewSelectorWithRand(rand.New(rand.NewSource(1)))

	_, err := s.Draw(nil, testWeights(), EligibleIntroduced)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyCollection))

	// Слова есть, но ни одно не введено — для режима тренировки это
	// та же пустая коллекция
	items := []entity.LexicalItem{
		{Position: 0, Introduced: false},
		{Position: 1, Introduced: false},
	}
	_, err = s.Draw(items, testWeights(), EligibleIntroduced)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyCollection))
}

// TestDraw_SkipsIneligible — невведенные слова не участвуют в розыгрыше
func TestDraw_SkipsIneligible(t *testing.T) {
	s := NewSelectorWithRand(rand.New(rand.NewSource(42)))
	items := []entity.LexicalItem{
		{Position: 0, Introduced: false},
		{Position: 1, Introduced: true},
		{Position: 2, Introduced: false},
	}

	for i := 0; i < 50; i++ {
		item, err := s.Draw(items, testWeights(), EligibleIntroduced)
		require.NoError(t, err)
		assert.Equal(t, 1, item.Position, "невведенное слово не должно выпадать")
	}
}

// TestDraw_ProportionalToWeights — частоты выпадения сходятся к отношению
// весов. Слово с весом 10 (ни одного успеха) должно выпадать примерно в
// 10 раз чаще слова с весом 1 (идеальная точность).
func TestDraw_ProportionalToWeights(t *testing.T) {
	s := NewSelectorWithRand(rand.New(rand.NewSource(7)))
	items := []entity.LexicalItem{
		// rate=1: вес 1
		{Position: 0, Attempts: 10, Successes: 10, LastOutcome: entity.OutcomeCorrect, Introduced: true},
		// rate=0: вес 1 + round(9) = 10
		{Position: 1, Attempts: 10, Successes: 0, LastOutcome: entity.OutcomeCorrect, Introduced: true},
	}
	weights := &WeightConfig{FailureBias: false, HighWeight: 15, SpreadK: 9}

	const draws = 100000
	counts := make(map[int]int)
	for i := 0; i < draws; i++ {
		item, err := s.Draw(items, weights, EligibleIntroduced)
		require.NoError(t, err)
		counts[item.Position]++
	}

	ratio := float64(counts[1]) / float64(counts[0])
	assert.InDelta(t, 10.0, ratio, 1.0, "отношение частот должно сходиться к отношению весов 10:1")
}

// TestDraw_FreshDominates — слова без попыток выпадают заметно чаще
// выученных при дефолтных настройках
func TestDraw_FreshDominates(t *testing.T) {
	s := NewSelectorWithRand(rand.New(rand.NewSource(99)))
	items := []entity.LexicalItem{
		{Position: 0, Attempts: 10, Successes: 10, LastOutcome: entity.OutcomeCorrect, Introduced: true},
		{Position: 1, Attempts: 0, Introduced: true},
	}

	const draws = 20000
	freshHits := 0
	for i := 0; i < draws; i++ {
		item, err := s.Draw(items, testWeights(), EligibleIntroduced)
		require.NoError(t, err)
		if item.Position == 1 {
			freshHits++
		}
	}

	// Ожидание 15/16 ≈ 0.9375
	assert.Greater(t, float64(freshHits)/float64(draws), 0.9)
}

// TestDraw_EligibleAll — предикат EligibleAll допускает всю коллекцию
func TestDraw_EligibleAll(t *testing.T) {
	s := NewSelectorWithRand(rand.New(rand.NewSource(3)))
	items := []entity.LexicalItem{
		{Position: 0, Introduced: false},
	}

	item, err := s.Draw(items, testWeights(), EligibleAll)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Position)
}
