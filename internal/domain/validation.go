package domain

import (
	"fmt"
	"strings"
)

// Верхние границы ввода. При них сумма заказа в минорных единицах
// не выходит за int64: MaxOrderItems * MaxItemAmount * MaxUnitPrice < 2^63.
const (
	// MaxUnitPrice - предельная цена за единицу в минорных единицах.
	MaxUnitPrice int64 = 1_000_000_000_000
	// MaxItemAmount - предельное количество в одной позиции.
	MaxItemAmount int32 = 10_000
	// MaxOrderItems - предельное число позиций в заказе.
	MaxOrderItems = 500
)

// CreateOrderInput - команда на создание заказа.
type CreateOrderInput struct {
	Header OrderHeader
	Items  []ItemInput
}

// UpdateOrderInput - команда на обновление. Items == nil означает "позиции не трогать".
type UpdateOrderInput struct {
	Header HeaderPatch
	Items  []ItemInput
}

// ReplacesItems сообщает, что обновление заменяет весь набор позиций.
func (in UpdateOrderInput) ReplacesItems() bool {
	return in.Items != nil
}

// Validate проверяет команду создания. Неизвестный тег позиции отклоняет весь запрос.
func (in CreateOrderInput) Validate() error {
	if err := checkItemKinds(in.Items); err != nil {
		return err
	}

	verr := NewValidationError()
	if strings.TrimSpace(in.Header.CustomerName) == "" {
		verr.Add("customerName", "is required")
	}
	validateItems(in.Items, verr)
	return verr.OrNil()
}

// Validate проверяет команду обновления.
func (in UpdateOrderInput) Validate() error {
	if in.ReplacesItems() {
		if err := checkItemKinds(in.Items); err != nil {
			return err
		}
	}

	verr := NewValidationError()
	if in.Header.CustomerName != nil && strings.TrimSpace(*in.Header.CustomerName) == "" {
		verr.Add("customerName", "must not be empty")
	}
	if in.ReplacesItems() {
		validateItems(in.Items, verr)
	}
	return verr.OrNil()
}

func checkItemKinds(items []ItemInput) error {
	for i, item := range items {
		if !item.Kind.Valid() {
			return fmt.Errorf("items[%d]: %w: %q", i, ErrUnknownItemVariant, string(item.Kind))
		}
	}
	return nil
}

func validateItems(items []ItemInput, verr *ValidationError) {
	if len(items) == 0 {
		verr.Add("items", "must contain at least one item")
		return
	}
	if len(items) > MaxOrderItems {
		verr.Add("items", fmt.Sprintf("must contain at most %d items", MaxOrderItems))
		return
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		switch item.Kind {
		case ItemKindProduct:
			if item.ProductID <= 0 {
				verr.Add(prefix+"productId", "must be a positive integer")
			}
			switch {
			case item.Amount <= 0:
				verr.Add(prefix+"amount", "must be a positive integer")
			case item.Amount > MaxItemAmount:
				verr.Add(prefix+"amount", fmt.Sprintf("must not exceed %d", MaxItemAmount))
			}
			if item.PriceAtSale != nil {
				checkUnitPrice(prefix+"priceAtSale", *item.PriceAtSale, verr)
			}
		case ItemKindCustom:
			if strings.TrimSpace(item.CustomName) == "" {
				verr.Add(prefix+"customName", "is required")
			}
			switch {
			case item.CustomPrice == nil:
				verr.Add(prefix+"customPrice", "is required")
			default:
				checkUnitPrice(prefix+"customPrice", *item.CustomPrice, verr)
			}
		}
	}
}

func checkUnitPrice(field string, price int64, verr *ValidationError) {
	switch {
	case price < 0:
		verr.Add(field, "must be non-negative")
	case price > MaxUnitPrice:
		verr.Add(field, fmt.Sprintf("must not exceed %d", MaxUnitPrice))
	}
}
