package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront/internal/usecase"
)

// 注文確定イベント
type OrderPlacedEvent struct {
	Type string `json:"type"`
	usecase.OrderNotice
}

const EventOrderPlaced = "order.placed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier は注文IDをキーにイベントを送る。
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func (n *KafkaNotifier) NotifyOrderPlaced(ctx context.Context, notice usecase.OrderNotice) error {
	data, err := json.Marshal(OrderPlacedEvent{Type: EventOrderPlaced, OrderNotice: notice})
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notice.OrderID),
		Value: data,
		Time:  time.Now(),
	})
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
