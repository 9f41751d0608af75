package broker

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// Producer writes JSON events to one topic asynchronously. Write failures
// are logged and never returned to the caller.
type Producer struct {
	l     *slog.Logger
	w     *kafka.Writer
	topic string
}

func NewProducer(l *slog.Logger, brokers []string, topic string) *Producer {
	l = l.WithGroup("kafka").With("topic", topic)

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Async:                  true,
		Logger:                 kafka.LoggerFunc(func(msg string, args ...any) { l.Debug(msg, "args", args) }),
		ErrorLogger:            kafka.LoggerFunc(func(msg string, args ...any) { l.Error(msg, "args", args) }),
		AllowAutoTopicCreation: true,
	}
	return &Producer{l: l, w: w, topic: topic}
}

// Publish keys messages so events for the same entity stay ordered.
func (p *Producer) Publish(ctx context.Context, key string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.l.ErrorContext(ctx, "marshal event", "err", err)
		return
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		p.l.ErrorContext(ctx, "write kafka message", "err", err)
	}
}

func (p *Producer) Close() {
	if err := p.w.Close(); err != nil {
		p.l.Error("close kafka writer", "err", err)
	}
}

// Nop discards events. It stands in when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) {}

func (Nop) Close() {}
