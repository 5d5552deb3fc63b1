package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
)

func newProductFixture(ps ...model.Product) (*ProductUsecase, *memProducts, *memAuditLogs) {
	products := newMemProducts(ps...)
	audits := &memAuditLogs{}
	tx := &memTx{products: products, carts: newMemCarts(), orders: newMemOrders(), audits: audits}
	uc := NewProductUsecase(tx, products, &seqIDs{}, &fixedClock{t: testNow})
	return uc, products, audits
}

func validProductInput() AdminProductInput {
	return AdminProductInput{
		SKU:      " hoodie-01 ",
		Name:     "Hoodie",
		Price:    5000,
		Discount: 1000,
		Category: "men",
		Type:     "Sweatshirt",
		Sizes:    []string{"m", "L", " M "},
		Stock:    3,
		IsActive: true,
	}
}

func TestProductUsecase_AdminCreateNormalizes(t *testing.T) {
	uc, products, _ := newProductFixture()
	ctx := context.Background()

	out, err := uc.AdminCreateProduct(ctx, "admin-1", validProductInput())
	require.NoError(t, err)
	assert.Equal(t, "HOODIE-01", out.SKU)
	assert.Equal(t, model.CategoryMen, out.Category)
	assert.Equal(t, []model.Size{model.SizeM, model.SizeL}, out.Sizes)
	assert.Equal(t, int64(4000), out.SellingPrice)

	stored := products.get(out.ID)
	assert.Equal(t, "HOODIE-01", stored.SKU)
	assert.Equal(t, testNow, stored.CreatedAt)

	_, err = uc.AdminCreateProduct(ctx, "admin-1", validProductInput())
	assert.True(t, IsKind(err, KindConflict))
}

func TestProductUsecase_AdminCreateValidation(t *testing.T) {
	uc, _, _ := newProductFixture()
	ctx := context.Background()

	mutate := []struct {
		name string
		fn   func(*AdminProductInput)
	}{
		{"sku", func(in *AdminProductInput) { in.SKU = "  " }},
		{"name", func(in *AdminProductInput) { in.Name = "" }},
		{"type", func(in *AdminProductInput) { in.Type = "" }},
		{"category", func(in *AdminProductInput) { in.Category = "PETS" }},
		{"size", func(in *AdminProductInput) { in.Sizes = []string{"M", "HUGE"} }},
		{"negative price", func(in *AdminProductInput) { in.Price = -1 }},
		{"negative stock", func(in *AdminProductInput) { in.Stock = -1 }},
		{"discount above price", func(in *AdminProductInput) { in.Discount = 6000 }},
	}
	for _, tt := range mutate {
		t.Run(tt.name, func(t *testing.T) {
			in := validProductInput()
			tt.fn(&in)
			_, err := uc.AdminCreateProduct(ctx, "admin-1", in)
			assert.True(t, IsKind(err, KindValidation), "got %v", err)
		})
	}

	_, err := uc.AdminCreateProduct(ctx, "", validProductInput())
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestProductUsecase_AdminUpdateKeepsRatingAndAudits(t *testing.T) {
	p := tshirt()
	p.AverageRating = 4.5
	p.ReviewCount = 2
	uc, products, audits := newProductFixture(p)
	ctx := context.Background()

	in := validProductInput()
	in.SKU = "TEE-001"
	in.Name = "Better Tee"
	out, err := uc.AdminUpdateProduct(ctx, "admin-1", "p-tee", in)
	require.NoError(t, err)
	assert.Equal(t, "Better Tee", out.Name)
	assert.Equal(t, 4.5, out.AverageRating)

	stored := products.get("p-tee")
	assert.Equal(t, "Better Tee", stored.Name)
	assert.Equal(t, int64(2), stored.ReviewCount)

	require.Len(t, audits.logs, 1)
	l := audits.logs[0]
	assert.Equal(t, model.AuditActionUpdateProduct, l.Action)
	assert.Equal(t, model.AuditResourceProduct, l.ResourceType)
	assert.Contains(t, l.BeforeJSON, `"name":"Basic Tee"`)
	assert.Contains(t, l.AfterJSON, `"name":"Better Tee"`)
}

func TestProductUsecase_AdminUpdateErrors(t *testing.T) {
	uc, _, audits := newProductFixture(tshirt(), baseballCap())
	ctx := context.Background()

	_, err := uc.AdminUpdateProduct(ctx, "admin-1", "missing", validProductInput())
	assert.True(t, IsKind(err, KindNotFound))

	in := validProductInput()
	in.SKU = "cap-001"
	_, err = uc.AdminUpdateProduct(ctx, "admin-1", "p-tee", in)
	assert.True(t, IsKind(err, KindConflict))
	assert.Empty(t, audits.logs)
}

func TestProductUsecase_AdminDeleteHidesProduct(t *testing.T) {
	uc, _, audits := newProductFixture(tshirt())
	ctx := context.Background()

	require.NoError(t, uc.AdminDeleteProduct(ctx, "admin-1", "p-tee"))
	require.Len(t, audits.logs, 1)
	assert.Equal(t, model.AuditActionDeleteProduct, audits.logs[0].Action)

	_, err := uc.GetProductDetail(ctx, "p-tee")
	assert.True(t, IsKind(err, KindNotFound))
	_, err = uc.GetBySKU(ctx, "tee-001")
	assert.True(t, IsKind(err, KindNotFound))

	err = uc.AdminDeleteProduct(ctx, "admin-1", "p-tee")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestProductUsecase_PublicLookups(t *testing.T) {
	hidden := baseballCap()
	hidden.IsActive = false
	uc, _, _ := newProductFixture(tshirt(), hidden)
	ctx := context.Background()

	got, err := uc.GetBySKU(ctx, " tee-001 ")
	require.NoError(t, err)
	assert.Equal(t, "p-tee", got.ID)
	assert.Equal(t, int64(1000), got.SellingPrice)

	_, err = uc.GetProductDetail(ctx, "p-cap")
	assert.True(t, IsKind(err, KindNotFound))

	list, err := uc.ListPublicProducts(ctx, ListProductsInput{Page: 1, Limit: 20, Category: "unisex"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "p-tee", list.Items[0].ID)
}

func TestProductUsecase_ListValidation(t *testing.T) {
	uc, _, _ := newProductFixture()
	ctx := context.Background()
	neg := int64(-1)
	lo, hi := int64(500), int64(100)

	bad := []ListProductsInput{
		{Page: 0, Limit: 10},
		{Page: 1, Limit: 0},
		{Page: 1, Limit: 101},
		{Page: 1, Limit: 10, MinPrice: &neg},
		{Page: 1, Limit: 10, MinPrice: &lo, MaxPrice: &hi},
		{Page: 1, Limit: 10, Sort: "random"},
		{Page: 1, Limit: 10, Category: "pets"},
	}
	for _, in := range bad {
		_, err := uc.ListPublicProducts(ctx, in)
		assert.True(t, IsKind(err, KindValidation), "%+v", in)
	}
}
