package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("producer is closed")

// Writer kafka.Writer 的子集, 方便測試替換
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers       []string
	Topic         string
	BatchTimeout  time.Duration
	RetryAttempts int
}

func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka brokers is empty")
	}
	if c.Topic == "" {
		return errors.New("kafka topic is empty")
	}
	return nil
}

// NewKafkaWriter 同步寫入, 每個 order id 固定落在同一個 partition
func NewKafkaWriter(cfg Config, logger *zerolog.Logger) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka producer error: "+msg, args...)
		}),
		Compression: kafka.Snappy,
	}
}

// IOrderEventProducer 只在交易 commit 之後呼叫, 失敗不影響訂單結果
type IOrderEventProducer interface {
	ProduceOrderPlaced(ctx context.Context, order *model.Order) error
	ProduceOrderStatusChanged(ctx context.Context, event *OrderStatusChangedEvent) error
	Close() error
}

const (
	defaultRetryBackoffMin = 50 * time.Millisecond
	defaultRetryBackoffMax = 500 * time.Millisecond
)

type OrderEventProducer struct {
	writer        Writer
	retryAttempts int
	backoffMin    time.Duration
	backoffMax    time.Duration
	closed        atomic.Bool
}

func NewOrderEventProducer(writer Writer, retryAttempts int) *OrderEventProducer {
	return &OrderEventProducer{
		writer:        writer,
		retryAttempts: retryAttempts,
		backoffMin:    defaultRetryBackoffMin,
		backoffMax:    defaultRetryBackoffMax,
	}
}

// WithBackoff 重試間隔從 min 開始每次加倍, 最多 max
func (p *OrderEventProducer) WithBackoff(min, max time.Duration) *OrderEventProducer {
	if min > 0 {
		p.backoffMin = min
	}
	if max >= p.backoffMin {
		p.backoffMax = max
	}
	return p
}

// calculateBackoff 計算第 attempt 次重試前的等待時間
func (p *OrderEventProducer) calculateBackoff(attempt int) time.Duration {
	backoff := p.backoffMin
	for i := 0; i < attempt && backoff < p.backoffMax; i++ {
		backoff *= 2
	}
	if backoff > p.backoffMax {
		backoff = p.backoffMax
	}
	return backoff
}

var _ IOrderEventProducer = (*OrderEventProducer)(nil)

func (p *OrderEventProducer) ProduceOrderPlaced(ctx context.Context, order *model.Order) error {
	return p.produce(ctx, NewOrderPlacedEvent(order))
}

func (p *OrderEventProducer) ProduceOrderStatusChanged(ctx context.Context, event *OrderStatusChangedEvent) error {
	return p.produce(ctx, event)
}

func (p *OrderEventProducer) produce(ctx context.Context, event Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	msg, err := convertToMessage(event)
	if err != nil {
		return err
	}

	for attempt := 0; attempt <= p.retryAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.calculateBackoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("produce %s: %w", event.Type(), ctx.Err())
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return fmt.Errorf("produce %s: %w", event.Type(), ctx.Err())
		}
		err = p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		if !isTemporary(err) {
			break
		}
	}
	return fmt.Errorf("produce %s: %w", event.Type(), err)
}

func (p *OrderEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func convertToMessage(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   "event_type",
				Value: []byte(event.Type()),
			},
		},
	}, nil
}

func isTemporary(err error) bool {
	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) {
		return kafkaErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// NoopOrderEventProducer 沒有設定 kafka 時使用
type NoopOrderEventProducer struct{}

func (NoopOrderEventProducer) ProduceOrderPlaced(context.Context, *model.Order) error { return nil }
func (NoopOrderEventProducer) ProduceOrderStatusChanged(context.Context, *OrderStatusChangedEvent) error {
	return nil
}
func (NoopOrderEventProducer) Close() error { return nil }
