package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/RoyceAzure/lab/storefront/internal/service"

type PlaceOrderInput struct {
	ShippingAddress model.ShippingAddress
	PaymentMethod   string
}

func (in *PlaceOrderInput) validate() error {
	addr := in.ShippingAddress
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", addr.Name},
		{"street", addr.Street},
		{"city", addr.City},
		{"postal_code", addr.PostalCode},
		{"country", addr.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return invalidArgument("shipping address missing %s", strings.Join(missing, ", "))
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return invalidArgument("payment method is required")
	}
	return nil
}

type IOrderService interface {
	PlaceOrder(ctx context.Context, userID int, input PlaceOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, requester Requester, orderID string) (*model.Order, error)
	ListMyOrders(ctx context.Context, userID int, page, limit int) (*model.Page[model.Order], error)
	CancelOwnOrder(ctx context.Context, userID int, orderID string) (*model.Order, error)
}

// Requester 呼叫者身份, 用於訂單擁有者檢查
type Requester struct {
	UserID  int
	IsAdmin bool
}

type OrderService struct {
	db            db.UnifiedDB
	ledger        *StockLedger
	statusMachine *OrderStatusMachine
	settings      IStoreSettingsProvider
	producer      producer.IOrderEventProducer
	logger        *zerolog.Logger
	now           func() time.Time
}

func NewOrderService(
	unifiedDB db.UnifiedDB,
	ledger *StockLedger,
	statusMachine *OrderStatusMachine,
	settings IStoreSettingsProvider,
	eventProducer producer.IOrderEventProducer,
	logger *zerolog.Logger,
) *OrderService {
	if eventProducer == nil {
		eventProducer = producer.NoopOrderEventProducer{}
	}
	return &OrderService{
		db:            unifiedDB,
		ledger:        ledger,
		statusMachine: statusMachine,
		settings:      settings,
		producer:      eventProducer,
		logger:        nopIfNil(logger),
		now:           time.Now,
	}
}

var _ IOrderService = (*OrderService)(nil)

// PlaceOrder 購物車轉訂單
// 整個流程在同一個交易內, 任何一步失敗全部 rollback
// 錯誤:
//   - InvalidArgument: 地址或付款方式不完整
//   - EmptyCart: 購物車沒有商品
//   - InsufficientStock: 列出所有庫存不足的商品, 庫存與購物車都不會變動
func (s *OrderService) PlaceOrder(ctx context.Context, userID int, input PlaceOrderInput) (*model.Order, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "OrderService.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", userID))

	if err := input.validate(); err != nil {
		return nil, err
	}

	settings := s.settings.StoreSettings()
	var order *model.Order
	var productIDs []string

	err := s.db.ExecTx(ctx, func(tx db.UnifiedDB) error {
		items, err := tx.GetCartItems(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return errs.ErrEmptyCart
		}

		ids, quantities := productQuantities(items, func(item model.CartItem) (string, int) {
			return item.ProductID, item.Quantity
		})
		productIDs = ids

		products, err := tx.GetProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		productMap := make(map[string]*model.Product, len(products))
		for i := range products {
			productMap[products[i].ProductID] = &products[i]
		}

		ledger := s.ledger.WithTx(tx)
		var shortages []model.StockShortage
		for _, id := range ids {
			product, ok := productMap[id]
			if !ok || !product.Active {
				shortage := model.StockShortage{ProductID: id, Requested: quantities[id]}
				if ok {
					shortage.SKU = product.SKU
				}
				shortages = append(shortages, shortage)
				continue
			}

			err := ledger.Reserve(ctx, id, quantities[id])
			if errors.Is(err, errs.ErrInsufficientStock) {
				available := 0
				if short := InsufficientStockItems(err); len(short) == 1 {
					available = short[0].Available
				}
				shortages = append(shortages, model.StockShortage{
					ProductID: id,
					SKU:       product.SKU,
					Requested: quantities[id],
					Available: available,
				})
				continue
			}
			if err != nil {
				return err
			}
		}
		if len(shortages) > 0 {
			return newInsufficientStockError(shortages)
		}

		order = s.buildOrder(userID, input, settings, items, productMap)
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		if errs.CodeOf(err) == errs.InternalCode {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.OrderID))
	s.logger.Info().
		Str("order_id", order.OrderID).
		Int("user_id", userID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order placed")

	s.ledger.Invalidate(ctx, productIDs...)
	if err := s.producer.ProduceOrderPlaced(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("publish order placed event failed")
	}
	return order, nil
}

// buildOrder 價格取交易內讀到的商品價格, 之後商品調價不影響訂單
func (s *OrderService) buildOrder(
	userID int,
	input PlaceOrderInput,
	settings model.StoreSettings,
	items []model.CartItem,
	products map[string]*model.Product,
) *model.Order {
	orderID := uuid.NewString()
	placedAt := s.now().UTC()

	lines := make([]model.CartItem, len(items))
	copy(lines, items)
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].VariantID < lines[j].VariantID
	})

	subtotal := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		product := products[line.ProductID]
		unitPrice := product.EffectivePrice()
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, model.OrderItem{
			OrderItemID: uuid.NewString(),
			OrderID:     orderID,
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			SKU:         product.SKU,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
	}

	tax, shipping := settings.Charges(subtotal)
	return &model.Order{
		OrderID:         orderID,
		UserID:          userID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		Currency:        settings.Currency,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCost:    shipping,
		TotalAmount:     subtotal.Add(tax).Add(shipping),
		ShippingAddress: input.ShippingAddress,
		PlacedAt:        placedAt,
		OrderItems:      orderItems,
		StatusHistory: []model.OrderStatusHistory{{
			OrderID:  orderID,
			ToStatus: model.OrderStatusPending,
			Actor:    userActor(userID),
			Note:     "order placed",
		}},
	}
}

// GetOrder 非本人且非管理員一律當作不存在
func (s *OrderService) GetOrder(ctx context.Context, requester Requester, orderID string) (*model.Order, error) {
	order, err := s.db.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if !requester.IsAdmin && order.UserID != requester.UserID {
		return nil, errs.New(errs.NotFoundCode, "order not found")
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID int, page, limit int) (*model.Page[model.Order], error) {
	page, limit = model.NormalizePaging(page, limit)
	orders, total, err := s.db.ListOrders(ctx, db.OrderFilter{
		UserID: userID,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return model.NewPage(orders, total, page, limit), nil
}

// CancelOwnOrder 客戶只能取消自己 PENDING 的訂單
func (s *OrderService) CancelOwnOrder(ctx context.Context, userID int, orderID string) (*model.Order, error) {
	if _, err := s.GetOrder(ctx, Requester{UserID: userID}, orderID); err != nil {
		return nil, err
	}
	return s.statusMachine.transition(ctx, TransitionInput{
		OrderID:      orderID,
		To:           model.OrderStatusCancelled,
		Actor:        userActor(userID),
		Note:         "cancelled by customer",
		RequiredFrom: model.OrderStatusPending,
	})
}

func userActor(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}
