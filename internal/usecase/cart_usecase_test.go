package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
)

func newCartFixture(ps ...model.Product) (*CartUsecase, *memCarts, *memProducts) {
	carts := newMemCarts()
	products := newMemProducts(ps...)
	uc := NewCartUsecase(carts, products, &seqIDs{}, &fixedClock{t: testNow})
	return uc, carts, products
}

func TestCartUsecase_AddUpdateRemoveScenario(t *testing.T) {
	uc, _, _ := newCartFixture(tshirt())
	ctx := context.Background()
	selling := tshirt().SellingPrice()

	res, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 2, Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, 2*selling, res.TotalPrice)

	res, err = uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: " m "})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(3), res.Items[0].Quantity)
	assert.Equal(t, 3*selling, res.TotalPrice)

	res, err = uc.RemoveItem(ctx, "u1", RemoveCartItemInput{ProductID: "p-tee", Size: "M"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(2), res.Items[0].Quantity)
	assert.Equal(t, 2*selling, res.TotalPrice)

	// 商品情報が付く
	assert.Equal(t, "TEE-001", res.Items[0].SKU)
	assert.Equal(t, "Basic Tee", res.Items[0].Name)
	assert.True(t, res.Items[0].Available)
}

func TestCartUsecase_TotalMatchesLinesAcrossOperations(t *testing.T) {
	uc, carts, _ := newCartFixture(tshirt(), baseballCap())
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "S"})
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 2, Size: "L"})
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-cap", Quantity: 1, Size: "FREE"})
	require.NoError(t, err)
	_, err = uc.UpdateItem(ctx, "u1", UpdateCartItemInput{ProductID: "p-cap", Quantity: 4, Size: "free"})
	require.NoError(t, err)
	res, err := uc.RemoveItem(ctx, "u1", RemoveCartItemInput{ProductID: "p-tee", Size: "S"})
	require.NoError(t, err)

	var sum int64
	for _, it := range res.Items {
		sum += it.Price * it.Quantity
	}
	assert.Equal(t, sum, res.TotalPrice)
	assert.Len(t, res.Items, 2)

	stored, err := carts.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, res.TotalPrice, stored.TotalPrice)
}

func TestCartUsecase_RemoveLastUnitDeletesLine(t *testing.T) {
	uc, _, _ := newCartFixture(tshirt())
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)
	res, err := uc.RemoveItem(ctx, "u1", RemoveCartItemInput{ProductID: "p-tee", Size: "M"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, int64(0), res.TotalPrice)

	_, err = uc.RemoveItem(ctx, "u1", RemoveCartItemInput{ProductID: "p-tee", Size: "M"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCartUsecase_AddItemValidation(t *testing.T) {
	inactive := baseballCap()
	inactive.ID = "p-old"
	inactive.SKU = "OLD-1"
	inactive.IsActive = false
	uc, _, _ := newCartFixture(tshirt(), inactive)
	ctx := context.Background()

	tests := []struct {
		name string
		in   AddCartItemInput
		kind ErrorKind
	}{
		{"missing product", AddCartItemInput{Quantity: 1, Size: "M"}, KindValidation},
		{"missing size", AddCartItemInput{ProductID: "p-tee", Quantity: 1}, KindValidation},
		{"unknown size", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "XXS"}, KindValidation},
		{"size not offered", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "XL"}, KindValidation},
		{"zero quantity", AddCartItemInput{ProductID: "p-tee", Quantity: 0, Size: "M"}, KindValidation},
		{"unknown product", AddCartItemInput{ProductID: "nope", Quantity: 1, Size: "M"}, KindNotFound},
		{"inactive product", AddCartItemInput{ProductID: "p-old", Quantity: 1, Size: "FREE"}, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.AddItem(ctx, "u1", tt.in)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestCartUsecase_QuantityUpperBound(t *testing.T) {
	uc, carts, _ := newCartFixture(tshirt())
	ctx := context.Background()
	selling := tshirt().SellingPrice()

	_, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1 << 62, Size: "M"})
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: model.MaxCartLineQuantity, Size: "M"})
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = uc.UpdateItem(ctx, "u1", UpdateCartItemInput{ProductID: "p-tee", Quantity: model.MaxCartLineQuantity + 1, Size: "M"})
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	stored, err := carts.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(model.MaxCartLineQuantity), stored.Items[0].Quantity)
	assert.Equal(t, selling*model.MaxCartLineQuantity, stored.TotalPrice)
}

func TestCartUsecase_UpdateItemErrors(t *testing.T) {
	uc, _, _ := newCartFixture(tshirt())
	ctx := context.Background()

	_, err := uc.UpdateItem(ctx, "u1", UpdateCartItemInput{ProductID: "p-tee", Quantity: 2, Size: "M"})
	assert.True(t, IsKind(err, KindNotFound), "no cart yet")

	_, err = uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)

	_, err = uc.UpdateItem(ctx, "u1", UpdateCartItemInput{ProductID: "p-tee", Quantity: 0, Size: "M"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = uc.UpdateItem(ctx, "u1", UpdateCartItemInput{ProductID: "p-tee", Quantity: 2, Size: "L"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCartUsecase_GetCartWithoutCart(t *testing.T) {
	uc, _, _ := newCartFixture()
	res, err := uc.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.UserID)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, int64(0), res.TotalPrice)
}

func TestCartUsecase_RetriesOnVersionConflict(t *testing.T) {
	uc, carts, _ := newCartFixture(tshirt())
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)

	// 2回横取りされても3回目で書ける
	carts.interleave = 2
	res, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Items[0].Quantity)
	assert.Equal(t, 0, carts.interleave)
}

func TestCartUsecase_GivesUpAfterMaxAttempts(t *testing.T) {
	uc, carts, _ := newCartFixture(tshirt())
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)

	carts.interleave = cartMaxAttempts
	_, err = uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, ae.Status())
}

func TestCartUsecase_PriceIsSellingPriceAtAddTime(t *testing.T) {
	uc, _, products := newCartFixture(tshirt())
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)

	products.setPrice("p-tee", 3000)
	res, err := uc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(1000), res.Items[0].Price)
	assert.Equal(t, int64(2500), res.Items[0].SellingPrice)
	assert.Equal(t, int64(1000), res.TotalPrice)
}
