package broker

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestNopPublisher(t *testing.T) {
	var p interface {
		Publish(ctx context.Context, key string, event any)
		Close()
	} = Nop{}
	p.Publish(context.Background(), "k", map[string]string{"type": "user.created"})
	p.Close()
}

func TestPublishUnmarshalableEventIsDropped(t *testing.T) {
	p := NewProducer(slog.New(slog.NewTextHandler(io.Discard, nil)), []string{"127.0.0.1:1"}, "events")
	defer p.Close()
	p.Publish(context.Background(), "k", make(chan int))
}
