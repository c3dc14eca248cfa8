package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/trezcool/datagrid/core"
	"github.com/trezcool/datagrid/core/product"
	"github.com/trezcool/datagrid/storage/database/inmem"
)

// Day0 is the creation date of the first fixture product.
var Day0 = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// NewConfig returns a TEST config that does not read the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Env:      "TEST",
		Build:    "test",
		TestMode: true,
		AppName:  "Datagrid",
		Server:   core.ServerConfig{DisableReqLogs: true, ShutdownTimeout: time.Second},
		Database: core.DatabaseConfig{InMemory: true},
		Grid: core.GridConfig{
			PageSize:        product.DefaultLimit,
			Locales:         []string{"ru", "en"},
			ScrollThreshold: 3,
			RowLinkPrefix:   "/products",
		},
	}
}

// Products returns n products p000..p<n-1>, one created per day from Day0.
// Sales grow with the index and titles shrink, prices cycle over 3 values.
func Products(n int) []product.Product {
	products := make([]product.Product, n)
	for i := range products {
		products[i] = product.Product{
			ID:        fmt.Sprintf("p%03d", i),
			Title:     fmt.Sprintf("Product %03d", n-i),
			Images:    product.Images{{URL: fmt.Sprintf("https://img.test/%03d.png", i), Source: "test"}},
			Quantity:  10 + i,
			Price:     float64(100 * (i%3 + 1)),
			Status:    product.Status(i % 2),
			Sales:     i,
			CreatedAt: Day0.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return products
}

// NewProductRepo returns an in-memory repository holding products.
func NewProductRepo(t *testing.T, products ...product.Product) product.Repository {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	repo := inmemdb.NewProductRepository(db)
	if err = repo.CreateProducts(context.Background(), products...); err != nil {
		t.Fatalf("CreateProducts() failed: %v", err)
	}
	return repo
}
