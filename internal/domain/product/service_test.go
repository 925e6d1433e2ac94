package product

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &ProductVariant{}, &ProductImage{}, &Collection{}))

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestDB(t), &config.Config{})
}

func shirtRequest(handle string) *CreateProductRequest {
	return &CreateProductRequest{
		Handle:      handle,
		Title:       "Test Shirt",
		Description: "A shirt for testing",
		Vendor:      "Acme",
		ProductType: "shirt",
		Variants: []CreateVariantRequest{
			{Title: "S", Price: "19.99", SKU: handle + "-S", InventoryQuantity: 10},
			{Title: "M", Price: "21.50", SKU: handle + "-M", InventoryQuantity: 5},
		},
		Images: []ProductImage{
			{URL: "https://cdn.example.com/shirt.png", Position: 2},
			{URL: "https://cdn.example.com/shirt-front.png", Position: 1},
		},
	}
}

func TestCreateProduct(t *testing.T) {
	svc := newTestService(t)

	p, err := svc.CreateProduct(shirtRequest("test-shirt"))
	require.NoError(t, err)

	assert.Equal(t, "test-shirt", p.Handle)
	assert.True(t, p.AvailableForSale)
	require.Len(t, p.Variants, 2)
	assert.True(t, p.Variants[0].Price.Equal(decimal.RequireFromString("19.99")))
	assert.Len(t, p.Images, 2)
}

func TestCreateProductDuplicateHandle(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateProduct(shirtRequest("dup-shirt"))
	require.NoError(t, err)

	req := shirtRequest("dup-shirt")
	req.Variants[0].SKU = "dup-shirt-S2"
	req.Variants[1].SKU = "dup-shirt-M2"
	_, err = svc.CreateProduct(req)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestCreateProductInvalidPrice(t *testing.T) {
	svc := newTestService(t)

	req := shirtRequest("bad-price")
	req.Variants[0].Price = "-1.00"
	_, err := svc.CreateProduct(req)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	req = shirtRequest("unparseable-price")
	req.Variants[0].Price = "abc"
	_, err = svc.CreateProduct(req)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetProduct(999)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.GetProductByHandle("missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateProductPartial(t *testing.T) {
	svc := newTestService(t)

	p, err := svc.CreateProduct(shirtRequest("update-shirt"))
	require.NoError(t, err)

	newTitle := "Renamed Shirt"
	unavailable := false
	updated, err := svc.UpdateProduct(p.ID, &UpdateProductRequest{
		Title:            &newTitle,
		AvailableForSale: &unavailable,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed Shirt", updated.Title)
	assert.False(t, updated.AvailableForSale)
	// Untouched fields survive
	assert.Equal(t, "A shirt for testing", updated.Description)
	assert.Equal(t, "Acme", updated.Vendor)
}

func TestDeleteProduct(t *testing.T) {
	svc := newTestService(t)

	p, err := svc.CreateProduct(shirtRequest("delete-shirt"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(p.ID))

	_, err = svc.GetProduct(p.ID)
	assert.True(t, errors.IsNotFound(err))

	err = svc.DeleteProduct(p.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetProductsPagination(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateProduct(shirtRequest(fmt.Sprintf("page-shirt-%d", i)))
		require.NoError(t, err)
	}

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(5), resp.Total)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, 3, resp.Pages)

	resp, err = svc.GetProducts(&ProductListRequest{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 1)
}

func TestGetProductsByCollection(t *testing.T) {
	svc := newTestService(t)

	coll, err := svc.CreateCollection(&Collection{Handle: "summer", Title: "Summer", Published: true})
	require.NoError(t, err)

	req := shirtRequest("summer-shirt")
	req.CollectionIDs = []uint{coll.ID}
	_, err = svc.CreateProduct(req)
	require.NoError(t, err)

	_, err = svc.CreateProduct(shirtRequest("plain-shirt"))
	require.NoError(t, err)

	resp, err := svc.GetProducts(&ProductListRequest{Collection: "summer"})
	require.NoError(t, err)

	require.Len(t, resp.Products, 1)
	assert.Equal(t, "summer-shirt", resp.Products[0].Handle)
}

func TestCreateCollectionDuplicateHandle(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateCollection(&Collection{Handle: "sale", Title: "Sale", Published: true})
	require.NoError(t, err)

	_, err = svc.CreateCollection(&Collection{Handle: "sale", Title: "Sale Again", Published: true})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestGetCollectionByHandle(t *testing.T) {
	svc := newTestService(t)

	coll, err := svc.CreateCollection(&Collection{Handle: "featured", Title: "Featured", Published: true})
	require.NoError(t, err)

	req := shirtRequest("featured-shirt")
	req.CollectionIDs = []uint{coll.ID}
	_, err = svc.CreateProduct(req)
	require.NoError(t, err)

	found, err := svc.GetCollectionByHandle("featured")
	require.NoError(t, err)

	assert.Equal(t, "/search/featured", found.Path())
	require.Len(t, found.Products, 1)
	assert.Len(t, found.Products[0].Variants, 2)
}

func TestSetVariantInventory(t *testing.T) {
	svc := newTestService(t)

	p, err := svc.CreateProduct(shirtRequest("stock-shirt"))
	require.NoError(t, err)

	variant, err := svc.SetVariantInventory(p.Variants[0].ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, variant.InventoryQuantity)

	_, err = svc.SetVariantInventory(p.Variants[0].ID, -1)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestPriceRange(t *testing.T) {
	p := Product{
		Variants: []ProductVariant{
			{Price: decimal.RequireFromString("30.00")},
			{Price: decimal.RequireFromString("10.00")},
			{Price: decimal.RequireFromString("20.00")},
		},
	}

	pr := p.GetPriceRange()
	assert.True(t, pr.MinPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, pr.MaxPrice.Equal(decimal.RequireFromString("30.00")))

	empty := Product{}
	pr = empty.GetPriceRange()
	assert.True(t, pr.MinPrice.IsZero())
	assert.True(t, pr.MaxPrice.IsZero())
}

func TestFeaturedImage(t *testing.T) {
	p := Product{
		Images: []ProductImage{
			{URL: "second.png", Position: 2},
			{URL: "first.png", Position: 1},
		},
	}

	img := p.FeaturedImage()
	require.NotNil(t, img)
	assert.Equal(t, "first.png", img.URL)

	empty := Product{}
	assert.Nil(t, empty.FeaturedImage())
}

func TestCanFulfill(t *testing.T) {
	v := ProductVariant{InventoryQuantity: 3, AvailableForSale: true}

	assert.True(t, v.CanFulfill(3))
	assert.False(t, v.CanFulfill(4))

	v.AvailableForSale = false
	assert.False(t, v.CanFulfill(1))
}
