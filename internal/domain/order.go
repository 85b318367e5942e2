package domain

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date - календарная дата без времени. Хранится как полночь UTC.
type Date struct {
	t time.Time
}

// NewDate собирает дату из года, месяца и дня.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf отбрасывает время, оставляя календарную дату в зоне самого значения.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// Time возвращает полночь UTC этой даты.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// Product - позиция каталога. Каталог принадлежит внешней подсистеме, здесь только чтение.
type Product struct {
	ID int64
	// Price - цена в минимальных денежных единицах, не бывает отрицательной.
	Price int64
	Name  string
}

// Order - заголовок заказа и упорядоченный список позиций.
type Order struct {
	ID           int64
	CustomerName string
	PickupDate   *Date
	// Notes - пустая строка означает отсутствие заметки.
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
	// Items хранятся в порядке добавления, в этом же порядке печатаются на чеке.
	Items []LineItem
}

// Header возвращает копию заказа без позиций.
func (o Order) Header() Order {
	o.Items = nil
	return o
}

// OrderHeader - поля заголовка, которые можно задать при создании или обновлении.
type OrderHeader struct {
	CustomerName string
	PickupDate   *Date
	Notes        string
}

// HeaderPatch описывает частичное обновление заголовка. nil означает "не менять".
type HeaderPatch struct {
	CustomerName *string
	PickupDate   *Date
	Notes        *string
}

// Empty сообщает, что в патче нет ни одного поля.
func (p HeaderPatch) Empty() bool {
	return p.CustomerName == nil && p.PickupDate == nil && p.Notes == nil
}

// Apply применяет патч к заголовку заказа.
func (p HeaderPatch) Apply(o *Order) {
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.PickupDate != nil {
		d := *p.PickupDate
		o.PickupDate = &d
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
}
