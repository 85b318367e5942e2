package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

// helper для создания валидной команды с позициями обоих вариантов.
func makeCreateInput() domain.CreateOrderInput {
	return domain.CreateOrderInput{
		Header: domain.OrderHeader{CustomerName: "Alice"},
		Items: []domain.ItemInput{
			{Kind: domain.ItemKindProduct, ProductID: 1, Amount: 2},
			{Kind: domain.ItemKindCustom, CustomName: "Shipping", CustomPrice: int64Ptr(10000)},
		},
	}
}

func TestCreateOrderInputValidate_Ok(t *testing.T) {
	require.NoError(t, makeCreateInput().Validate())
}

func TestCreateOrderInputValidate_Errors(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(in *domain.CreateOrderInput)
		field string
	}{
		{
			name:  "no customer",
			mut:   func(in *domain.CreateOrderInput) { in.Header.CustomerName = "  " },
			field: "customerName",
		},
		{
			name:  "no items",
			mut:   func(in *domain.CreateOrderInput) { in.Items = nil },
			field: "items",
		},
		{
			name:  "empty items",
			mut:   func(in *domain.CreateOrderInput) { in.Items = []domain.ItemInput{} },
			field: "items",
		},
		{
			name:  "product without id",
			mut:   func(in *domain.CreateOrderInput) { in.Items[0].ProductID = 0 },
			field: "items[0].productId",
		},
		{
			name:  "product without amount",
			mut:   func(in *domain.CreateOrderInput) { in.Items[0].Amount = 0 },
			field: "items[0].amount",
		},
		{
			name:  "negative override",
			mut:   func(in *domain.CreateOrderInput) { in.Items[0].PriceAtSale = int64Ptr(-1) },
			field: "items[0].priceAtSale",
		},
		{
			name:  "override above limit",
			mut:   func(in *domain.CreateOrderInput) { in.Items[0].PriceAtSale = int64Ptr(domain.MaxUnitPrice + 1) },
			field: "items[0].priceAtSale",
		},
		{
			name:  "overflowing override",
			mut:   func(in *domain.CreateOrderInput) { in.Items[0].PriceAtSale = int64Ptr(math.MaxInt64 / 2) },
			field: "items[0].priceAtSale",
		},
		{
			name:  "amount above limit",
			mut:   func(in *domain.CreateOrderInput) { in.Items[0].Amount = domain.MaxItemAmount + 1 },
			field: "items[0].amount",
		},
		{
			name:  "negative custom price",
			mut:   func(in *domain.CreateOrderInput) { in.Items[1].CustomPrice = int64Ptr(-5) },
			field: "items[1].customPrice",
		},
		{
			name:  "custom price above limit",
			mut:   func(in *domain.CreateOrderInput) { in.Items[1].CustomPrice = int64Ptr(domain.MaxUnitPrice + 1) },
			field: "items[1].customPrice",
		},
		{
			name: "too many items",
			mut: func(in *domain.CreateOrderInput) {
				item := domain.ItemInput{Kind: domain.ItemKindProduct, ProductID: 1, Amount: 1}
				in.Items = make([]domain.ItemInput, domain.MaxOrderItems+1)
				for i := range in.Items {
					in.Items[i] = item
				}
			},
			field: "items",
		},
		{
			name:  "custom without name",
			mut:   func(in *domain.CreateOrderInput) { in.Items[1].CustomName = "" },
			field: "items[1].customName",
		},
		{
			name:  "custom without price",
			mut:   func(in *domain.CreateOrderInput) { in.Items[1].CustomPrice = nil },
			field: "items[1].customPrice",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := makeCreateInput()
			tc.mut(&in)

			err := in.Validate()
			require.ErrorIs(t, err, domain.ErrValidationFailed)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestCreateOrderInputValidate_UnknownVariantRejectsBatch(t *testing.T) {
	in := makeCreateInput()
	in.Items = append(in.Items, domain.ItemInput{Kind: "bundle"})

	err := in.Validate()
	require.ErrorIs(t, err, domain.ErrUnknownItemVariant)
	require.NotErrorIs(t, err, domain.ErrValidationFailed)
}

func TestCreateOrderInputValidate_ZeroCustomPriceAllowed(t *testing.T) {
	in := makeCreateInput()
	in.Items[1].CustomPrice = int64Ptr(0)
	require.NoError(t, in.Validate())
}

func TestCreateOrderInputValidate_LimitsKeepTotalInRange(t *testing.T) {
	items := make([]domain.ItemInput, domain.MaxOrderItems)
	lines := make([]domain.LineItem, domain.MaxOrderItems)
	for i := range items {
		items[i] = domain.ItemInput{
			Kind:        domain.ItemKindProduct,
			ProductID:   1,
			Amount:      domain.MaxItemAmount,
			PriceAtSale: int64Ptr(domain.MaxUnitPrice),
		}
		line, err := domain.NewLineItem(items[i], items[i].PriceAtSale)
		require.NoError(t, err)
		lines[i] = line
	}
	in := domain.CreateOrderInput{Header: domain.OrderHeader{CustomerName: "Alice"}, Items: items}
	require.NoError(t, in.Validate())

	want := int64(domain.MaxOrderItems) * int64(domain.MaxItemAmount) * domain.MaxUnitPrice
	require.Equal(t, want, domain.OrderTotal(lines))
	require.Positive(t, domain.OrderTotal(lines))
}

func TestUpdateOrderInputValidate(t *testing.T) {
	empty := ""
	require.NoError(t, domain.UpdateOrderInput{}.Validate())

	err := domain.UpdateOrderInput{Header: domain.HeaderPatch{CustomerName: &empty}}.Validate()
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	err = domain.UpdateOrderInput{Items: []domain.ItemInput{}}.Validate()
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	err = domain.UpdateOrderInput{Items: []domain.ItemInput{{Kind: "gift"}}}.Validate()
	require.ErrorIs(t, err, domain.ErrUnknownItemVariant)
}

func TestLineItemTotals(t *testing.T) {
	items := []domain.LineItem{
		{PriceAtSale: int64Ptr(25000), Line: domain.ProductLine{ProductID: 1, Amount: 2}},
		{PriceAtSale: int64Ptr(10000), Line: domain.CustomLine{Name: "Shipping", Price: 10000}},
		{PriceAtSale: nil, Line: domain.ProductLine{ProductID: 9, Amount: 3}},
	}

	require.Equal(t, int64(50000), items[0].Total())
	require.Equal(t, int64(10000), items[1].Total())
	require.Equal(t, int64(0), items[2].Total())
	require.Equal(t, int64(60000), domain.OrderTotal(items))
}

func TestNewLineItem(t *testing.T) {
	item, err := domain.NewLineItem(domain.ItemInput{
		Kind:        domain.ItemKindCustom,
		CustomName:  "Wrap",
		CustomPrice: int64Ptr(500),
		Notes:       "gold",
	}, int64Ptr(500))
	require.NoError(t, err)
	require.Equal(t, domain.CustomLine{Name: "Wrap", Price: 500}, item.Line)
	require.Equal(t, "gold", item.Notes)

	_, err = domain.NewLineItem(domain.ItemInput{Kind: "other"}, nil)
	require.ErrorIs(t, err, domain.ErrUnknownItemVariant)
}

func TestHeaderPatchApply(t *testing.T) {
	name := "Bob"
	pickup := domain.NewDate(2024, time.March, 5)
	order := domain.Order{CustomerName: "Alice", Notes: "keep"}

	domain.HeaderPatch{CustomerName: &name, PickupDate: &pickup}.Apply(&order)

	require.Equal(t, "Bob", order.CustomerName)
	require.Equal(t, "keep", order.Notes)
	require.NotNil(t, order.PickupDate)
	require.Equal(t, "2024-03-05", order.PickupDate.String())
	require.True(t, domain.HeaderPatch{}.Empty())
}

func TestParseDate(t *testing.T) {
	d, err := domain.ParseDate("2024-12-31")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), d.Time())

	_, err = domain.ParseDate("31/12/2024")
	require.Error(t, err)
}
