package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-quickcart/internal/orders"
)

func TestStore_MissingFilesLoadEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", "data"))
	require.NoError(t, err)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Orders)
	assert.NotNil(t, snap.Users)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	l := orders.NewLedger()
	admin, err := l.RegisterIdentity("ada", "pw", "Admin")
	require.NoError(t, err)
	cust, err := l.RegisterIdentity("carol", "pw", "Customer")
	require.NoError(t, err)
	rider, err := l.RegisterIdentity("rick", "pw", "Rider")
	require.NoError(t, err)
	p, err := l.AddProduct(admin, "Widget", decimal.RequireFromString("10.5"), 5)
	require.NoError(t, err)
	o, err := l.PlaceOrder(cust, p.ID, 2)
	require.NoError(t, err)
	_, err = l.AcceptOrder(rider, o.ID)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, l.Snapshot()))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	l2, rep := orders.Restore(snap)
	assert.Zero(t, rep.Dropped())

	all, err := l2.AllOrders(admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, orders.StatusAccepted, all[0].Status())
	assert.Equal(t, "rick", all[0].Rider())

	got, ok := l2.Product(p.ID)
	require.True(t, ok)
	assert.Equal(t, 3, got.Stock())
	assert.True(t, got.Price.Equal(decimal.RequireFromString("10.5")))

	leftovers, err := filepath.Glob(filepath.Join(s.Dir(), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStore_WritesPriceAsNumber(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	snap := orders.NewSnapshot()
	snap.Products["1"] = orders.ProductEntry{Name: "Widget", Price: decimal.NewFromInt(10), Stock: 5}
	snap.Products["2"] = orders.ProductEntry{Name: "Gadget", Price: decimal.RequireFromString("2.50"), Stock: 1}
	require.NoError(t, s.Save(ctx, snap))

	b, err := os.ReadFile(filepath.Join(s.Dir(), ProductsFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price": 10.0,`)
	assert.Contains(t, string(b), `"price": 2.5,`)
	assert.NotContains(t, string(b), `"price": "`)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Products["1"].Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.Products["2"].Price.Equal(decimal.RequireFromString("2.5")))
}

func TestStore_ReadsHandWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write(UsersFile, `{"carol": {"password": "pw", "role": "Customer"}}`)
	write(ProductsFile, `{"1": {"name": "Widget", "price": 10.0, "stock": 5}}`)
	write(OrdersFile, `{"1": {"id": 1, "customer": "carol", "product_id": 1, "quantity": 3, "status": "PENDING", "rider": null}}`)

	s, err := Open(dir)
	require.NoError(t, err)
	snap, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Customer", snap.Users["carol"].Role)
	assert.Equal(t, 5, snap.Products["1"].Stock)
	assert.True(t, snap.Products["1"].Price.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, snap.Orders["1"].Rider)
	assert.Equal(t, 3, snap.Orders["1"].Quantity)
}

func TestStore_CorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProductsFile), []byte("{not json"), 0o644))
	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	assert.ErrorContains(t, err, ProductsFile)
}
