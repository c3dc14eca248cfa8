package inmemdb

import (
	"sync"

	"github.com/trezcool/datagrid/core/product"
)

type (
	DB struct {
		product *productTable
	}

	productTable struct {
		sync.RWMutex
		table map[string]*product.Product
	}
)

func Open() (*DB, error) {
	db := &DB{
		product: &productTable{table: make(map[string]*product.Product)},
	}
	return db, nil
}
