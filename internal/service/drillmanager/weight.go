package drillmanager

import (
	"math"

	"github.com/yourusername/vocab-api/internal/domain/entity"
)

// WeightConfig содержит настройки функции веса для одной коллекции
type WeightConfig struct {
	// FailureBias — сбрасывать ли слово в максимальный приоритет после
	// недавней ошибки (режим "failure"); без него работает только
	// завышение веса для ни разу не спрошенных слов (режим "fresh")
	FailureBias bool

	// HighWeight — вес для свежих слов (и недавних ошибок при FailureBias)
	HighWeight int

	// SpreadK — константа K в формуле 1 + round((1-rate)*K)
	SpreadK int
}

// WeightConfigFor собирает настройки веса из политики коллекции,
// подставляя дефолты движка вместо нулевых значений
func WeightConfigFor(col *entity.Collection, cfg *Config) *WeightConfig {
	wc := &WeightConfig{
		FailureBias: col.FailureBias(),
		HighWeight:  col.HighWeight,
		SpreadK:     col.SpreadK,
	}
	if wc.HighWeight <= 0 {
		wc.HighWeight = cfg.HighWeight
	}
	if wc.SpreadK <= 0 {
		wc.SpreadK = cfg.SpreadK
	}
	return wc
}

// Weight возвращает вес слова для взвешенной выборки. Вес всегда строго
// положителен: ни одно слово не может получить нулевую вероятность показа,
// иначе оно навсегда выпадет из ротации.
//
// Проверка attempts == 0 стоит первой и отсекает деление на ноль.
func (c *WeightConfig) Weight(attempts, successes int, lastOutcome entity.AnswerOutcome) float64 {
	if attempts == 0 {
		// Свежие слова показываются заметно чаще выученных
		return float64(c.HighWeight)
	}

	if c.FailureBias && lastOutcome == entity.OutcomeIncorrect {
		// Недавний промах возвращает слово в приоритет "надо тренировать",
		// какой бы ни была историческая точность
		return float64(c.HighWeight)
	}

	rate := float64(successes) / float64(attempts)
	return 1 + math.Round((1-rate)*float64(c.SpreadK))
}

// WeightOf — вес слова по его текущей статистике
func (c *WeightConfig) WeightOf(item *entity.LexicalItem) float64 {
	return c.Weight(item.Attempts, item.Successes, item.LastOutcome)
}
