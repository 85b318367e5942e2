// Package receipt кодирует сохранённый заказ в поток ESC/POS для чекового принтера.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/money"
)

const (
	// LineWidth - ширина строки 58-мм принтера в символах.
	LineWidth = 32

	printDateLayout = "2006-01-02 15:04"
	thankYouMessage = "Thank you"
	totalLabel      = "TOTAL"
	noteIndent      = "  "
	feedBeforeCut   = 3
)

var separator = strings.Repeat("-", LineWidth)

// Encoder - чистая функция заказа в байты. Одинаковый заказ всегда даёт одинаковый результат.
type Encoder struct {
	location *time.Location
}

// NewEncoder создаёт кодировщик. loc задаёт зону, в которой печатается время создания заказа.
func NewEncoder(loc *time.Location) *Encoder {
	if loc == nil {
		loc = time.UTC
	}
	return &Encoder{location: loc}
}

// Encode собирает секции чека и склеивает их один раз.
func (e *Encoder) Encode(order domain.Order) []byte {
	sections := [][]byte{
		cmdInit,
		headerSection(order),
		e.dateSection(order),
		new(sectionWriter).cmd(cmdAlignLeft).line(separator).bytes(),
		itemsSection(order.Items),
		new(sectionWriter).line(separator).bytes(),
		totalSection(order.Items),
		footerSection(),
		new(sectionWriter).feed(feedBeforeCut).cmd(cmdCut).bytes(),
	}
	return bytes.Join(sections, nil)
}

// PrintDate - дата получения, если задана, иначе время создания в зоне кодировщика.
func (e *Encoder) PrintDate(order domain.Order) time.Time {
	if order.PickupDate != nil && !order.PickupDate.IsZero() {
		return order.PickupDate.Time()
	}
	return order.CreatedAt.In(e.location)
}

func headerSection(order domain.Order) []byte {
	return new(sectionWriter).
		cmd(cmdAlignCenter).
		cmd(cmdSizeDouble).
		line(order.CustomerName).
		feed(1).
		bytes()
}

func (e *Encoder) dateSection(order domain.Order) []byte {
	return new(sectionWriter).
		cmd(cmdSizeNormal).
		cmd(cmdAlignCenter).
		line(e.PrintDate(order).Format(printDateLayout)).
		feed(1).
		bytes()
}

func itemsSection(items []domain.LineItem) []byte {
	w := new(sectionWriter)
	for _, item := range items {
		qty := quantity(item)
		unit := item.UnitPrice()

		w.cmd(cmdSizeTall).line(fmt.Sprintf("%dx %s", qty, itemName(item)))
		w.cmd(cmdSizeNormal).line(fmt.Sprintf("%d x %s = %s", qty, money.Format(unit), money.Format(item.Total())))
		for _, note := range noteLines(item.Notes) {
			w.line(noteIndent + note)
		}
	}
	return w.bytes()
}

func totalSection(items []domain.LineItem) []byte {
	return new(sectionWriter).
		cmd(cmdSizeTall).
		line(totalLabel + " " + money.Format(GrandTotal(items))).
		feed(1).
		bytes()
}

// GrandTotal - итог чека. Считается так же, как сумма заказа в домене.
func GrandTotal(items []domain.LineItem) int64 {
	return domain.OrderTotal(items)
}

func footerSection() []byte {
	return new(sectionWriter).
		cmd(cmdSizeNormal).
		cmd(cmdAlignCenter).
		line(thankYouMessage).
		feed(1).
		bytes()
}

func quantity(item domain.LineItem) int64 {
	if item.Line == nil {
		return 1
	}
	return item.Line.Quantity()
}

func itemName(item domain.LineItem) string {
	switch line := item.Line.(type) {
	case domain.ProductLine:
		if line.Product != nil && line.Product.Name != "" {
			return line.Product.Name
		}
		return fmt.Sprintf("Product %d", line.ProductID)
	case domain.CustomLine:
		return line.Name
	default:
		return ""
	}
}

func noteLines(notes string) []string {
	if strings.TrimSpace(notes) == "" {
		return nil
	}
	raw := strings.Split(strings.ReplaceAll(notes, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
