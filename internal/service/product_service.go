package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ProductQuery struct {
	Page            int
	Limit           int
	Category        string
	Featured        *bool
	Search          string
	IncludeInactive bool
}

type VariantInput struct {
	Name  string
	Value string
	SKU   string
}

type CreateProductInput struct {
	SKU           string
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int
	Active        bool
	Featured      bool
	Variants      []VariantInput
}

// UpdateProductInput nil 代表不修改, 庫存只能透過 Restock 或訂單異動
type UpdateProductInput struct {
	SKU           *string
	Name          *string
	Description   *string
	Category      *string
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	ClearDiscount bool
	Active        *bool
	Featured      *bool
}

type Availability struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	InStock   bool   `json:"in_stock"`
}

type IProductService interface {
	ListProducts(ctx context.Context, query ProductQuery) (*model.Page[model.Product], error)
	GetProduct(ctx context.Context, productID string, includeInactive bool) (*model.Product, error)
	GetAvailability(ctx context.Context, productID string) (*Availability, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID string, input UpdateProductInput) (*model.Product, error)
	Restock(ctx context.Context, productID string, quantity int) (*model.Product, error)
	ListCategories(ctx context.Context) ([]db.CategoryCount, error)
}

type ProductService struct {
	productRepo db.IProductRepository
	ledger      *StockLedger
	cache       redis_repo.IProductCache
	logger      *zerolog.Logger
}

// cache 可以是 nil, 此時每次都讀 db
func NewProductService(productRepo db.IProductRepository, ledger *StockLedger, cache redis_repo.IProductCache, logger *zerolog.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		ledger:      ledger,
		cache:       cache,
		logger:      nopIfNil(logger),
	}
}

var _ IProductService = (*ProductService)(nil)

func (s *ProductService) ListProducts(ctx context.Context, query ProductQuery) (*model.Page[model.Product], error) {
	page, limit := model.NormalizePaging(query.Page, query.Limit)
	products, total, err := s.productRepo.ListProducts(ctx, db.ProductFilter{
		ActiveOnly: !query.IncludeInactive,
		Featured:   query.Featured,
		Category:   strings.TrimSpace(query.Category),
		Query:      query.Search,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return model.NewPage(products, total, page, limit), nil
}

func (s *ProductService) ListCategories(ctx context.Context) ([]db.CategoryCount, error) {
	return s.productRepo.ListCategories(ctx)
}

// GetProduct 先讀快取, miss 時讀 db 並回填
// 快取內的庫存可能落後, 需要即時庫存請用 GetAvailability
func (s *ProductService) GetProduct(ctx context.Context, productID string, includeInactive bool) (*model.Product, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active && !includeInactive {
		return nil, errs.New(errs.NotFoundCode, "product not found")
	}
	return product, nil
}

func (s *ProductService) loadProduct(ctx context.Context, productID string) (*model.Product, error) {
	if s.cache != nil {
		product, err := s.cache.GetProduct(ctx, productID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, redis_repo.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("product_id", productID).Msg("read product cache failed")
		}
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn().Err(err).Str("product_id", productID).Msg("write product cache failed")
		}
	}
	return product, nil
}

func (s *ProductService) GetAvailability(ctx context.Context, productID string) (*Availability, error) {
	available, err := s.ledger.GetAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &Availability{
		ProductID: productID,
		Available: available,
		InStock:   available > 0,
	}, nil
}

// 欄位為 DECIMAL(12,2)
var maxPrice = decimal.RequireFromString("9999999999.99")

func validatePrices(price decimal.Decimal, discount *decimal.Decimal) error {
	if !price.IsPositive() {
		return invalidArgument("price must be positive")
	}
	if !isCents(price) || price.GreaterThan(maxPrice) {
		return invalidArgument("price must have at most 2 decimal places and not exceed %s", maxPrice)
	}
	if discount != nil {
		if discount.IsNegative() || discount.GreaterThan(price) {
			return invalidArgument("discount price must be between 0 and price")
		}
		if !isCents(*discount) {
			return invalidArgument("discount price must have at most 2 decimal places")
		}
	}
	return nil
}

// isCents 10.000 這種補零的寫法視為合法
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// CreateProduct SKU 先檢查一次, 同時建立的情況由 unique index 擋下
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" || strings.TrimSpace(input.Name) == "" {
		return nil, invalidArgument("sku and name are required")
	}
	if err := validatePrices(input.Price, input.DiscountPrice); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, invalidArgument("stock must not be negative")
	}

	_, err := s.productRepo.GetProductBySKU(ctx, sku)
	if err == nil {
		return nil, errs.Newf(errs.DuplicateSKUCode, "sku %s already exists", sku)
	}
	if !errors.Is(err, db.ErrProductNotFound) {
		return nil, err
	}

	product := &model.Product{
		ProductID:     uuid.NewString(),
		SKU:           sku,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Category:      strings.TrimSpace(input.Category),
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Stock:         input.Stock,
		Active:        input.Active,
		Featured:      input.Featured,
	}
	for _, v := range input.Variants {
		if strings.TrimSpace(v.Name) == "" || strings.TrimSpace(v.Value) == "" {
			return nil, invalidArgument("variant name and value are required")
		}
		product.Variants = append(product.Variants, model.ProductVariant{
			VariantID: uuid.NewString(),
			ProductID: product.ProductID,
			Name:      strings.TrimSpace(v.Name),
			Value:     strings.TrimSpace(v.Value),
			SKU:       strings.TrimSpace(v.SKU),
		})
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		return nil, translateRepoError(err)
	}
	s.logger.Info().Str("product_id", product.ProductID).Str("sku", product.SKU).Msg("product created")
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, productID string, input UpdateProductInput) (*model.Product, error) {
	current, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	fields := map[string]any{}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, invalidArgument("sku must not be empty")
		}
		if sku != current.SKU {
			if _, err := s.productRepo.GetProductBySKU(ctx, sku); err == nil {
				return nil, errs.Newf(errs.DuplicateSKUCode, "sku %s already exists", sku)
			} else if !errors.Is(err, db.ErrProductNotFound) {
				return nil, err
			}
		}
		fields["sku"] = sku
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, invalidArgument("name must not be empty")
		}
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Category != nil {
		fields["category"] = strings.TrimSpace(*input.Category)
	}

	price := current.Price
	if input.Price != nil {
		price = *input.Price
		fields["price"] = price
	}
	discount := current.DiscountPrice
	switch {
	case input.ClearDiscount:
		discount = nil
		fields["discount_price"] = nil
	case input.DiscountPrice != nil:
		discount = input.DiscountPrice
		fields["discount_price"] = *discount
	}
	if err := validatePrices(price, discount); err != nil {
		return nil, err
	}

	if input.Active != nil {
		fields["active"] = *input.Active
	}
	if input.Featured != nil {
		fields["featured"] = *input.Featured
	}

	if err := s.productRepo.UpdateProductFields(ctx, productID, fields); err != nil {
		return nil, translateRepoError(err)
	}
	s.ledger.Invalidate(ctx, productID)

	updated, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return updated, nil
}

func (s *ProductService) Restock(ctx context.Context, productID string, quantity int) (*model.Product, error) {
	if err := s.ledger.Restock(ctx, productID, quantity); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return product, nil
}
