package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidationFailed - общий признак ошибки валидации, детали в ValidationError.
	ErrValidationFailed = errors.New("validation failed")
	// ErrInvalidID возвращается, если идентификатор не является положительным целым.
	ErrInvalidID = errors.New("invalid id")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается каталогом, если товара нет.
	ErrProductNotFound = errors.New("product not found")
	// ErrUnknownItemVariant - позиция с тегом, отличным от product/custom.
	ErrUnknownItemVariant = errors.New("unknown item variant")
	// ErrTransportFailure - принтер не принял данные.
	ErrTransportFailure = errors.New("printer transport failure")
)

// ValidationError несёт карту "поле -> сообщение".
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создаёт пустую ошибку валидации для накопления полей.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add добавляет замечание по полю. Первое замечание по полю побеждает.
func (e *ValidationError) Add(field, msg string) {
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = msg
}

// OrNil возвращает nil, если замечаний нет.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

// Is позволяет сравнивать через errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
