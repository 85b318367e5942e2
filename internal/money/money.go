// Package money форматирует суммы в минимальных денежных единицах для чека.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Prefix печатается перед суммой.
const Prefix = "Rp "

var locale = language.Indonesian

// Format возвращает сумму с группировкой разрядов точкой и без дробной части: "Rp 50.000".
func Format(amount int64) string {
	return Prefix + Group(amount)
}

// Group группирует разряды по правилам локали чека.
func Group(amount int64) string {
	return message.NewPrinter(locale).Sprintf("%d", amount)
}
