package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type TransitionInput struct {
	OrderID string
	To      model.OrderStatus
	Actor   string
	Note    string
	// RequiredFrom 非空時, 訂單目前狀態必須等於它
	RequiredFrom model.OrderStatus
}

type IOrderStatusMachine interface {
	Transition(ctx context.Context, orderID string, to model.OrderStatus, actor, note string) (*model.Order, error)
}

type OrderStatusMachine struct {
	db       db.UnifiedDB
	ledger   *StockLedger
	producer producer.IOrderEventProducer
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewOrderStatusMachine(unifiedDB db.UnifiedDB, ledger *StockLedger, eventProducer producer.IOrderEventProducer, logger *zerolog.Logger) *OrderStatusMachine {
	if eventProducer == nil {
		eventProducer = producer.NoopOrderEventProducer{}
	}
	return &OrderStatusMachine{
		db:       unifiedDB,
		ledger:   ledger,
		producer: eventProducer,
		logger:   nopIfNil(logger),
		now:      time.Now,
	}
}

var _ IOrderStatusMachine = (*OrderStatusMachine)(nil)

// Transition 依轉換表修改訂單狀態
// 進入 CANCELLED 或 REFUNDED 時在同一個交易內歸還庫存, stock_released 保證只歸還一次
// 錯誤:
//   - InvalidArgument: 未知的狀態
//   - NotFound: 訂單不存在
//   - InvalidTransition: 轉換表不允許, 包含轉換到相同狀態
//   - ConcurrencyConflict: 讀取後狀態已被其他請求修改
func (m *OrderStatusMachine) Transition(ctx context.Context, orderID string, to model.OrderStatus, actor, note string) (*model.Order, error) {
	return m.transition(ctx, TransitionInput{
		OrderID: orderID,
		To:      to,
		Actor:   actor,
		Note:    note,
	})
}

func (m *OrderStatusMachine) transition(ctx context.Context, in TransitionInput) (*model.Order, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "OrderStatusMachine.Transition",
		trace.WithAttributes(
			attribute.String("order.id", in.OrderID),
			attribute.String("order.status.to", string(in.To)),
		),
	)
	defer span.End()

	to, ok := model.ParseOrderStatus(string(in.To))
	if !ok {
		return nil, invalidArgument("unknown order status %q", in.To)
	}

	var event *producer.OrderStatusChangedEvent
	var released []string

	err := m.db.ExecTx(ctx, func(tx db.UnifiedDB) error {
		order, err := tx.GetOrderForUpdate(ctx, in.OrderID)
		if err != nil {
			return translateRepoError(err)
		}

		from := order.Status
		if in.RequiredFrom != "" && from != in.RequiredFrom {
			return errs.Newf(errs.InvalidTransitionCode, "order is %s, only %s orders can be changed here", from, in.RequiredFrom)
		}
		if from == to {
			return errs.Newf(errs.InvalidTransitionCode, "order is already %s", to)
		}
		if !from.CanTransitionTo(to) {
			return errs.Newf(errs.InvalidTransitionCode, "cannot change order from %s to %s", from, to)
		}

		update := db.OrderStatusUpdate{
			From:          from,
			To:            to,
			StockReleased: to.ReleasesStock() && !order.StockReleased,
		}
		paymentStatus := order.PaymentStatus
		switch to {
		case model.OrderStatusRefunded:
			update.PaymentStatus = model.PaymentStatusRefunded
			paymentStatus = model.PaymentStatusRefunded
		case model.OrderStatusDelivered:
			update.PaymentStatus = model.PaymentStatusCompleted
			paymentStatus = model.PaymentStatusCompleted
		}

		swapped, err := tx.CompareAndSetOrderStatus(ctx, order.OrderID, update)
		if err != nil {
			return err
		}
		if !swapped {
			return errs.Newf(errs.ConcurrencyConflictCode, "order %s was modified concurrently", order.OrderID)
		}

		if update.StockReleased {
			ids, quantities := productQuantities(order.OrderItems, func(item model.OrderItem) (string, int) {
				return item.ProductID, item.Quantity
			})
			ledger := m.ledger.WithTx(tx)
			for _, id := range ids {
				if err := ledger.Release(ctx, id, quantities[id]); err != nil {
					return err
				}
			}
			released = ids
		}

		err = tx.AppendOrderStatusHistory(ctx, &model.OrderStatusHistory{
			OrderID:    order.OrderID,
			FromStatus: from,
			ToStatus:   to,
			Actor:      in.Actor,
			Note:       in.Note,
		})
		if err != nil {
			return err
		}

		event = &producer.OrderStatusChangedEvent{
			OrderID:       order.OrderID,
			UserID:        order.UserID,
			From:          from,
			To:            to,
			PaymentStatus: paymentStatus,
			StockReleased: order.StockReleased || update.StockReleased,
			Actor:         in.Actor,
			ChangedAt:     m.now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("order_id", event.OrderID).
		Str("from", string(event.From)).
		Str("to", string(event.To)).
		Str("actor", event.Actor).
		Bool("stock_released", len(released) > 0).
		Msg("order status changed")

	m.ledger.Invalidate(ctx, released...)
	if err := m.producer.ProduceOrderStatusChanged(ctx, event); err != nil {
		m.logger.Error().Err(err).Str("order_id", event.OrderID).Msg("publish order status changed event failed")
	}

	order, err := m.db.GetOrderByID(ctx, in.OrderID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return order, nil
}
