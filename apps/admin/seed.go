package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/datagrid/core/product"
)

var (
	nowFunc = time.Now // mockable
	rnd     = rand.New(rand.NewSource(time.Now().UnixNano()))

	adjectives = []string{"Wooden", "Red", "Smart", "Tiny", "Вечный", "Синий", "Ergonomic", "Rustic", "Складной"}
	nouns      = []string{"Chair", "Lamp", "Table", "Kettle", "Стул", "Чайник", "Phone", "Backpack", "Зонт"}
)

const seedBatch = 500

func randomProduct(now time.Time, days int) product.Product {
	title := adjectives[rnd.Intn(len(adjectives))] + " " + nouns[rnd.Intn(len(nouns))]
	age := time.Duration(rnd.Int63n(int64(days) * int64(24*time.Hour)))
	return product.Product{
		Title: title,
		Images: product.Images{{
			URL:    fmt.Sprintf("https://picsum.photos/seed/%d/200", rnd.Intn(1000)),
			Source: "picsum",
		}},
		Quantity:  rnd.Intn(100),
		Price:     float64(rnd.Intn(100000)) / 100,
		Discount:  float64(rnd.Intn(30)),
		Status:    product.Status(rnd.Intn(2)),
		Sales:     rnd.Intn(1000),
		CreatedAt: now.Add(-age),
	}
}

func (cli *commandLine) seed(count, days int) error {
	ctx := context.Background()
	now := nowFunc().UTC()

	for created := 0; created < count; {
		n := count - created
		if n > seedBatch {
			n = seedBatch
		}
		products := make([]product.Product, n)
		for i := range products {
			products[i] = randomProduct(now, days)
		}
		if _, err := cli.svc.Create(ctx, products...); err != nil {
			return errors.Wrap(err, "seeding products")
		}
		created += n
	}

	total, err := cli.svc.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "created %d products, %d in total\n", count, total)
	return nil
}
