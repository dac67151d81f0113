package drillmanager

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonicalizer приводит текст к канонической форме для сравнения ответов.
// Порядок обработки: NFD-разложение → удаление комбинируемых диакритик →
// языковая свертка букв → нижний регистр → обрезка пробелов.
//
// Правило обязано выполняться над ОБЕИМИ сторонами сравнения — и над ответом
// ученика, и над эталоном из словаря. Сравнение сырых строк — ошибка
// корректности: раскладки клавиатур по-разному вводят диакритики, и ложный
// "неверно" на этом месте ломает всю статистику.
type Canonicalizer struct {
	folds map[rune]rune
}

// Свертка румынских букв. После NFD-разложения и удаления диакритик
// прекомпонованные ș/ț/ă/â/î уже сведены к базовым латинским буквам,
// так что таблица страхует только формы, пережившие разложение.
var romanianFolds = map[rune]rune{
	'ș': 's', // s с запятой снизу
	'ş': 's', // s с седилью (частая подмена в раскладках)
	'ț': 't',
	'ţ': 't',
	'ă': 'a',
	'â': 'i',
	'î': 'i',
}

// NewCanonicalizer создает канонизатор для языка перевода (BCP-47 код).
// Для неизвестных языков остается только разложение, регистр и пробелы.
func NewCanonicalizer(lang string) *Canonicalizer {
	var folds map[rune]rune
	switch strings.ToLower(lang) {
	case "ro", "ro-ro":
		folds = romanianFolds
	}
	return &Canonicalizer{folds: folds}
}

// Canonicalize возвращает каноническую форму текста. Идемпотентна:
// повторный вызов над результатом ничего не меняет.
func (c *Canonicalizer) Canonicalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}

	folded := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if f, ok := c.folds[r]; ok {
			return f
		}
		return r
	}, stripped)

	return strings.TrimSpace(folded)
}

// Equal сравнивает ответ с эталоном по каноническим формам
func (c *Canonicalizer) Equal(submitted, reference string) bool {
	return c.Canonicalize(submitted) == c.Canonicalize(reference)
}
