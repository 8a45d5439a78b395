package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedVariant struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	SKU   string `yaml:"sku"`
}

type seedProduct struct {
	SKU           string           `yaml:"sku"`
	Name          string           `yaml:"name"`
	Description   string           `yaml:"description"`
	Category      string           `yaml:"category"`
	Price         decimal.Decimal  `yaml:"price"`
	DiscountPrice *decimal.Decimal `yaml:"discount_price"`
	Stock         int              `yaml:"stock"`
	Inactive      bool             `yaml:"inactive"`
	Featured      bool             `yaml:"featured"`
	Variants      []seedVariant    `yaml:"variants"`
}

type seedAdmin struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type catalog struct {
	Admin    *seedAdmin    `yaml:"admin"`
	Products []seedProduct `yaml:"products"`
}

func (p seedProduct) toInput() service.CreateProductInput {
	variants := make([]service.VariantInput, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, service.VariantInput{Name: v.Name, Value: v.Value, SKU: v.SKU})
	}
	return service.CreateProductInput{
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.Stock,
		Active:        !p.Inactive,
		Featured:      p.Featured,
		Variants:      variants,
	}
}

func loadCatalog(path string) (*catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &c, nil
}

// 重複執行時已存在的 sku 與 admin 會略過
func main() {
	path := flag.String("catalog", "cmd/seed/catalog.yaml", "catalog yaml path")
	flag.Parse()

	c, err := loadCatalog(*path)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	app, err := appcontext.NewApplicationContext(ctx, config.GetConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Shutdown(shutdownCtx)
	}()

	created, skipped := 0, 0
	for _, p := range c.Products {
		product, err := app.ProductService.CreateProduct(ctx, p.toInput())
		if errors.Is(err, errs.ErrDuplicateSKU) {
			skipped++
			continue
		}
		if err != nil {
			app.Logger.Error().Err(err).Str("sku", p.SKU).Msg("seed product failed")
			continue
		}
		created++
		app.Logger.Info().Str("sku", product.SKU).Str("product_id", product.ProductID).Msg("product seeded")
	}
	app.Logger.Info().Int("created", created).Int("skipped", skipped).Msg("catalog seeded")

	if c.Admin != nil {
		admin, err := app.UserService.EnsureUser(ctx, service.SignUpInput{
			Email:     c.Admin.Email,
			Password:  c.Admin.Password,
			FirstName: c.Admin.FirstName,
			LastName:  c.Admin.LastName,
		}, model.UserRoleAdmin)
		if err != nil {
			app.Logger.Error().Err(err).Msg("seed admin failed")
			return
		}
		app.Logger.Info().Int("user_id", admin.UserID).Str("email", admin.Email).Msg("admin ready")
	}
}
