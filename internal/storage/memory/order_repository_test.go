package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
)

func price(v int64) *int64 { return &v }

func newOrder(createdAt time.Time) domain.Order {
	return domain.Order{
		CustomerName: "Alice",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
		Items: []domain.LineItem{
			{PriceAtSale: price(25000), Line: domain.ProductLine{ProductID: 1, Amount: 2}},
			{PriceAtSale: price(10000), Notes: "door", Line: domain.CustomLine{Name: "Shipping", Price: 10000}},
		},
	}
}

func newRepo() (domain.OrderRepository, *memory.ProductCatalog) {
	catalog := memory.NewProductCatalog(domain.Product{ID: 1, Name: "Cake", Price: 25000})
	return memory.NewOrderRepository(catalog), catalog
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, newOrder(time.Now().UTC()))
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, stored.ID)
	require.Len(t, stored.Items, 2)

	first := stored.Items[0]
	require.Equal(t, id, first.OrderID)
	require.NotZero(t, first.ID)
	line := first.Line.(domain.ProductLine)
	require.NotNil(t, line.Product)
	require.Equal(t, "Cake", line.Product.Name)

	require.Equal(t, domain.CustomLine{Name: "Shipping", Price: 10000}, stored.Items[1].Line)
}

func TestOrderRepository_GetNotFound(t *testing.T) {
	repo, _ := newRepo()

	_, err := repo.Get(context.Background(), 99)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_MissingProductNotJoined(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	order := newOrder(time.Now().UTC())
	order.Items = []domain.LineItem{{Line: domain.ProductLine{ProductID: 404, Amount: 1}}}
	id, err := repo.Create(ctx, order)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, stored.Items[0].Line.(domain.ProductLine).Product)
	require.Nil(t, stored.Items[0].PriceAtSale)
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older, err := repo.Create(ctx, newOrder(base))
	require.NoError(t, err)
	newer, err := repo.Create(ctx, newOrder(base.Add(time.Hour)))
	require.NoError(t, err)

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, newer, orders[0].ID)
	require.Equal(t, older, orders[1].ID)
}

func TestOrderRepository_UpdateReplacesItems(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, newOrder(time.Now().UTC()))
	require.NoError(t, err)
	before, err := repo.Get(ctx, id)
	require.NoError(t, err)

	notes := "call first"
	updatedAt := time.Now().UTC().Add(time.Minute)
	err = repo.Update(ctx, id, domain.OrderUpdate{
		Header:       domain.HeaderPatch{Notes: &notes},
		ReplaceItems: true,
		Items: []domain.LineItem{
			{PriceAtSale: price(5000), Line: domain.CustomLine{Name: "Wrap", Price: 5000}},
		},
		UpdatedAt: updatedAt,
	})
	require.NoError(t, err)

	after, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "call first", after.Notes)
	require.Equal(t, "Alice", after.CustomerName)
	require.Equal(t, updatedAt, after.UpdatedAt)
	require.Len(t, after.Items, 1)
	for _, old := range before.Items {
		require.NotEqual(t, old.ID, after.Items[0].ID)
	}
}

func TestOrderRepository_UpdateRejectsBrokenItemsWithoutChanges(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, newOrder(time.Now().UTC()))
	require.NoError(t, err)

	name := "Mallory"
	err = repo.Update(ctx, id, domain.OrderUpdate{
		Header:       domain.HeaderPatch{CustomerName: &name},
		ReplaceItems: true,
		Items: []domain.LineItem{
			{PriceAtSale: price(1), Line: domain.CustomLine{Name: "ok", Price: 1}},
			{},
		},
	})
	require.ErrorIs(t, err, domain.ErrUnknownItemVariant)

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Alice", stored.CustomerName)
	require.Len(t, stored.Items, 2)
}

func TestOrderRepository_UpdateNotFound(t *testing.T) {
	repo, _ := newRepo()

	err := repo.Update(context.Background(), 5, domain.OrderUpdate{})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_DeleteCascades(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	id, err := repo.Create(ctx, newOrder(time.Now().UTC()))
	require.NoError(t, err)

	header, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, header.ID)
	require.Nil(t, header.Items)

	_, err = repo.Get(ctx, id)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = repo.Delete(ctx, id)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_StoredCopyIsIsolated(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	order := newOrder(time.Now().UTC())
	id, err := repo.Create(ctx, order)
	require.NoError(t, err)

	*order.Items[0].PriceAtSale = 1
	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(25000), *stored.Items[0].PriceAtSale)
}

func TestProductCatalog(t *testing.T) {
	catalog := memory.NewProductCatalog()
	ctx := context.Background()

	_, err := catalog.GetProduct(ctx, 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	catalog.Put(domain.Product{ID: 1, Name: "Cake", Price: 1})
	p, err := catalog.GetProduct(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Cake", p.Name)
}
