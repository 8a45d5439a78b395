package producer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	mock_producer "github.com/RoyceAzure/lab/storefront/internal/infra/producer/mock"
	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testOrder() *model.Order {
	return &model.Order{
		OrderID:     "order-1",
		UserID:      7,
		Currency:    "USD",
		TotalAmount: decimal.RequireFromString("31.59"),
		PlacedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		OrderItems: []model.OrderItem{
			{ProductID: "p1", SKU: "SKU-1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}
}

func TestProduceOrderPlaced(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockWriter(ctrl)

	var written []kafka.Message
	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msgs ...kafka.Message) error {
			written = append(written, msgs...)
			return nil
		}).Times(1)

	p := producer.NewOrderEventProducer(writer, 2)
	require.NoError(t, p.ProduceOrderPlaced(context.Background(), testOrder()))

	require.Len(t, written, 1)
	require.Equal(t, "order-1", string(written[0].Key))
	require.Equal(t, "event_type", written[0].Headers[0].Key)
	require.Equal(t, string(producer.OrderPlacedEventType), string(written[0].Headers[0].Value))

	var event producer.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(written[0].Value, &event))
	require.Equal(t, 7, event.UserID)
	require.Len(t, event.Items, 1)
	require.Equal(t, "SKU-1", event.Items[0].SKU)
	require.True(t, event.TotalAmount.Equal(decimal.RequireFromString("31.59")))
}

func TestProduce_RetryTemporaryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockWriter(ctrl)

	gomock.InOrder(
		writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(kafka.LeaderNotAvailable),
		writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil),
	)

	p := producer.NewOrderEventProducer(writer, 2)
	require.NoError(t, p.ProduceOrderStatusChanged(context.Background(), &producer.OrderStatusChangedEvent{
		OrderID: "order-1",
		From:    model.OrderStatusPending,
		To:      model.OrderStatusCancelled,
	}))
}

func TestProduce_RetryWaitsBetweenAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockWriter(ctrl)

	var calls []time.Time
	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msgs ...kafka.Message) error {
			calls = append(calls, time.Now())
			return kafka.LeaderNotAvailable
		}).Times(3)

	p := producer.NewOrderEventProducer(writer, 2).WithBackoff(20*time.Millisecond, 40*time.Millisecond)
	err := p.ProduceOrderPlaced(context.Background(), testOrder())
	require.ErrorIs(t, err, kafka.LeaderNotAvailable)

	require.Len(t, calls, 3)
	require.GreaterOrEqual(t, calls[1].Sub(calls[0]), 20*time.Millisecond)
	require.GreaterOrEqual(t, calls[2].Sub(calls[1]), 40*time.Millisecond)
}

func TestProduce_BackoffStopsOnContextCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockWriter(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, ...kafka.Message) error {
			cancel()
			return kafka.LeaderNotAvailable
		}).Times(1)

	p := producer.NewOrderEventProducer(writer, 5).WithBackoff(time.Second, time.Second)
	start := time.Now()
	err := p.ProduceOrderPlaced(ctx, testOrder())
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestProduce_NonTemporaryErrorStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockWriter(ctrl)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("boom")).Times(1)

	p := producer.NewOrderEventProducer(writer, 3)
	err := p.ProduceOrderPlaced(context.Background(), testOrder())
	require.Error(t, err)
}

func TestProduce_Closed(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockWriter(ctrl)
	writer.EXPECT().Close().Return(nil).Times(1)

	p := producer.NewOrderEventProducer(writer, 0)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	require.ErrorIs(t, p.ProduceOrderPlaced(context.Background(), testOrder()), producer.ErrProducerClosed)
}
