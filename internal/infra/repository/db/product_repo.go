package db

import (
	"context"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrProductStockNotEnough 商品庫存不足
	ErrProductStockNotEnough = errors.New("product stock not enough")
	// ErrProductSKUExists sku 重複
	ErrProductSKUExists = errors.New("product sku already exists")
)

type ProductFilter struct {
	ActiveOnly bool
	Featured   *bool
	Category   string
	Query      string // name, description, sku 子字串, 不分大小寫
	Offset     int
	Limit      int
}

// CategoryCount 分類與其啟用中商品數
type CategoryCount struct {
	Category     string `json:"category"`
	ProductCount int64  `json:"product_count"`
}

type ProductRepo struct {
	db *DbDao
}

func NewProductRepo(db *DbDao) *ProductRepo {
	return &ProductRepo{db: db}
}

func (s *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	err := s.db.WithContext(ctx).Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrProductSKUExists
	}
	return err
}

func (s *ProductRepo) GetProductByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).Preload("Variants").Where("product_id = ?", productID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductRepo) GetProductBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).Preload("Variants").Where("sku = ?", sku).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductRepo) GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error) {
	var products []model.Product
	if len(productIDs) == 0 {
		return products, nil
	}
	err := s.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&products).Error
	return products, err
}

// UpdateProductFields 部分更新, stock 不允許從這裡改, 只能走庫存相關操作
func (s *ProductRepo) UpdateProductFields(ctx context.Context, productID string, fields map[string]any) error {
	delete(fields, "stock")
	if len(fields) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(&model.Product{}).Where("product_id = ?", productID).Updates(fields)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return ErrProductSKUExists
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// 分頁查詢商品, 回傳符合條件的總數
func (s *ProductRepo) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Product{})
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern, pattern)
	}

	// Session 讓同一組條件可以重複用在 Count 與 Find
	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Variants").
		Order("created_at DESC").
		Order("product_id").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&products).Error

	return products, total, err
}

// ListCategories 只算啟用中的商品, 沒有分類的不列
func (s *ProductRepo) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	categories := []CategoryCount{}
	err := s.db.WithContext(ctx).Model(&model.Product{}).
		Select("category, COUNT(*) AS product_count").
		Where("active = ? AND category <> ?", true, "").
		Group("category").
		Order("category").
		Scan(&categories).Error
	return categories, err
}

func (s *ProductRepo) CountProducts(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error
	return total, err
}

func (s *ProductRepo) GetProductStock(ctx context.Context, productID string) (int, error) {
	var stock int
	result := s.db.WithContext(ctx).Model(&model.Product{}).
		Select("stock").
		Where("product_id = ?", productID).
		Limit(1).
		Scan(&stock)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrProductNotFound
	}
	return stock, nil
}

// DeductProductStock 原子性扣減庫存
// 檢查與扣除在同一個 UPDATE 內完成, 不會有先讀再寫的競爭
// 錯誤:
//   - ErrProductNotFound: 商品不存在
//   - ErrProductStockNotEnough: 庫存不足
func (s *ProductRepo) DeductProductStock(ctx context.Context, productID string, quantity int) error {
	result := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// 沒有更新到, 區分商品不存在或庫存不足
	if _, err := s.GetProductStock(ctx, productID); err != nil {
		return err
	}
	return ErrProductStockNotEnough
}

// AddProductStock 歸還或補充庫存, 沒有上限檢查
func (s *ProductRepo) AddProductStock(ctx context.Context, productID string, quantity int) error {
	result := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
