package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ICartService interface {
	GetCart(ctx context.Context, userID int) (*model.CartView, error)
	AddLine(ctx context.Context, userID int, productID, variantID string, quantity int) (*model.CartView, error)
	UpdateLine(ctx context.Context, userID int, cartItemID string, quantity int) (*model.CartView, error)
	RemoveLine(ctx context.Context, userID int, cartItemID string) (*model.CartView, error)
	Clear(ctx context.Context, userID int) error
}

type cartRepository interface {
	db.ICartRepository
	db.IProductRepository
}

// CartService 購物車不預留庫存, 這裡的庫存檢查只是提示, 下單時會重新檢查
type CartService struct {
	repo   cartRepository
	logger *zerolog.Logger
}

func NewCartService(repo cartRepository, logger *zerolog.Logger) *CartService {
	return &CartService{repo: repo, logger: nopIfNil(logger)}
}

var _ ICartService = (*CartService)(nil)

func (s *CartService) GetCart(ctx context.Context, userID int) (*model.CartView, error) {
	items, err := s.repo.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &model.CartView{
		UserID:   userID,
		Lines:    make([]model.CartLine, 0, len(items)),
		Subtotal: decimal.Zero,
	}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		price := item.Product.EffectivePrice()
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Lines = append(view.Lines, model.CartLine{
			CartItemID:  item.CartItemID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			SKU:         item.Product.SKU,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   price,
			LineTotal:   lineTotal,
			Available:   item.Product.Stock,
			InStock:     item.Product.Active && item.Quantity <= item.Product.Stock,
		})
		view.Subtotal = view.Subtotal.Add(lineTotal)
		view.ItemCount += item.Quantity
	}
	return view, nil
}

// AddLine 同一個(product, variant)會累加到既有的項目
// 錯誤:
//   - InvalidArgument: quantity <= 0 或 variant 不屬於此商品
//   - NotFound: 商品不存在或已下架
//   - InsufficientStock: 累加後超過目前庫存
func (s *CartService) AddLine(ctx context.Context, userID int, productID, variantID string, quantity int) (*model.CartView, error) {
	if quantity <= 0 {
		return nil, invalidArgument("quantity must be positive")
	}

	product, err := s.purchasableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if variantID != "" && !product.HasVariant(variantID) {
		return nil, invalidArgument("variant %s does not belong to product %s", variantID, productID)
	}

	current := 0
	existing, err := s.repo.FindCartItem(ctx, userID, productID, variantID)
	switch {
	case err == nil:
		current = existing.Quantity
	case !errors.Is(err, db.ErrCartItemNotFound):
		return nil, err
	}

	if current+quantity > product.Stock {
		return nil, newInsufficientStockError([]model.StockShortage{{
			ProductID: product.ProductID,
			SKU:       product.SKU,
			Requested: current + quantity,
			Available: product.Stock,
		}})
	}

	err = s.repo.UpsertCartItem(ctx, &model.CartItem{
		CartItemID: uuid.NewString(),
		UserID:     userID,
		ProductID:  productID,
		VariantID:  variantID,
		Quantity:   quantity,
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// UpdateLine quantity <= 0 視為刪除
func (s *CartService) UpdateLine(ctx context.Context, userID int, cartItemID string, quantity int) (*model.CartView, error) {
	if quantity <= 0 {
		return s.RemoveLine(ctx, userID, cartItemID)
	}

	item, err := s.repo.GetCartItem(ctx, userID, cartItemID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if item.Product == nil {
		return nil, errs.New(errs.NotFoundCode, "product not found")
	}
	if quantity > item.Product.Stock {
		return nil, newInsufficientStockError([]model.StockShortage{{
			ProductID: item.ProductID,
			SKU:       item.Product.SKU,
			Requested: quantity,
			Available: item.Product.Stock,
		}})
	}

	if err := s.repo.UpdateCartItemQuantity(ctx, userID, cartItemID, quantity); err != nil {
		return nil, translateRepoError(err)
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveLine(ctx context.Context, userID int, cartItemID string) (*model.CartView, error) {
	if err := s.repo.DeleteCartItem(ctx, userID, cartItemID); err != nil {
		return nil, translateRepoError(err)
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID int) error {
	return s.repo.ClearCart(ctx, userID)
}

func (s *CartService) purchasableProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if !product.Active {
		return nil, errs.New(errs.NotFoundCode, "product is not available")
	}
	return product, nil
}
