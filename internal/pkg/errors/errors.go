package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены
	// (в т.ч. когда position выходит за пределы коллекции).
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных
	// (пустое слово или пустой перевод при добавлении пары).
	ErrValidation = errors.New("validation failed")

	// ErrEmptyCollection используется, когда в коллекции нет ни одного слова,
	// подходящего под условие выборки. Восстановимая ошибка: вызывающая
	// сторона должна предложить запустить ввод новой партии слов.
	ErrEmptyCollection = errors.New("no eligible items in collection")

	// ErrStoreUnavailable используется, когда вызов хранилища не удался или
	// истек по таймауту. Повторять с backoff должен вызывающий код, движок
	// сам ретраев не делает.
	ErrStoreUnavailable = errors.New("item store unavailable")

	// ErrConflict используется для конфликтов состояния (например, вставка
	// слова на уже занятую позицию).
	ErrConflict = errors.New("resource state conflict")
)
