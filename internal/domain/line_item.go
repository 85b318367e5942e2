package domain

// ItemKind - тег варианта позиции заказа.
type ItemKind string

const (
	// ItemKindProduct - позиция из каталога.
	ItemKindProduct ItemKind = "product"
	// ItemKindCustom - произвольная позиция с ручной ценой.
	ItemKindCustom ItemKind = "custom"
)

// Valid сообщает, что тег относится к одному из известных вариантов.
func (k ItemKind) Valid() bool {
	return k == ItemKindProduct || k == ItemKindCustom
}

// LineDetail - закрытый набор вариантов позиции: ProductLine или CustomLine.
type LineDetail interface {
	Kind() ItemKind
	// Quantity - количество для расчёта суммы строки.
	Quantity() int64
	isLineDetail()
}

// ProductLine ссылается на товар каталога.
type ProductLine struct {
	ProductID int64
	Amount    int32
	// Product заполняется при чтении, если товар найден в каталоге.
	Product *Product
}

func (ProductLine) Kind() ItemKind { return ItemKindProduct }

func (l ProductLine) Quantity() int64 { return int64(l.Amount) }

func (ProductLine) isLineDetail() {}

// CustomLine - произвольная позиция. Количество всегда 1.
type CustomLine struct {
	Name  string
	Price int64
}

func (CustomLine) Kind() ItemKind { return ItemKindCustom }

func (CustomLine) Quantity() int64 { return 1 }

func (CustomLine) isLineDetail() {}

// LineItem - позиция заказа. Общие поля лежат здесь, вариантные в Line.
type LineItem struct {
	ID      int64
	OrderID int64
	Notes   string
	// PriceAtSale фиксируется один раз при создании или замене позиций.
	// nil допустим только для товара, которого не оказалось в каталоге.
	PriceAtSale *int64
	Line        LineDetail
}

// UnitPrice возвращает зафиксированную цену или 0, если она не известна.
func (i LineItem) UnitPrice() int64 {
	if i.PriceAtSale == nil {
		return 0
	}
	return *i.PriceAtSale
}

// Total - сумма строки, только целочисленная арифметика.
func (i LineItem) Total() int64 {
	if i.Line == nil {
		return 0
	}
	return i.Line.Quantity() * i.UnitPrice()
}

// OrderTotal суммирует все позиции заказа.
func OrderTotal(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Total()
	}
	return total
}

// ItemInput - позиция в запросе на создание или замену. Kind приходит от клиента как есть.
type ItemInput struct {
	Kind        ItemKind
	ProductID   int64
	Amount      int32
	CustomName  string
	CustomPrice *int64
	PriceAtSale *int64
	Notes       string
}

// NewLineItem строит позицию из проверенного ввода и уже определённой цены.
func NewLineItem(in ItemInput, price *int64) (LineItem, error) {
	item := LineItem{Notes: in.Notes, PriceAtSale: price}
	switch in.Kind {
	case ItemKindProduct:
		item.Line = ProductLine{ProductID: in.ProductID, Amount: in.Amount}
	case ItemKindCustom:
		var customPrice int64
		if in.CustomPrice != nil {
			customPrice = *in.CustomPrice
		}
		item.Line = CustomLine{Name: in.CustomName, Price: customPrice}
	default:
		return LineItem{}, ErrUnknownItemVariant
	}
	return item, nil
}
