package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher buffers events and writes them from a single goroutine, so
// request handlers never wait on the broker.
type KafkaPublisher struct {
	w     messageWriter
	inbox chan kafka.Message
	done  chan struct{}
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 5 * time.Second,
	}, buf)
}

func newKafkaPublisher(w messageWriter, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w:     w,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

// Start runs the write loop until ctx is cancelled, then flushes what is
// still buffered and closes the writer.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				p.flush()
				if err := p.w.Close(); err != nil {
					zap.L().Error("can't close kafka writer", zap.Error(err))
				}
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) flush() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			return
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		zap.L().Error("can't publish event", zap.ByteString("key", m.Key), zap.Error(err))
	}
}

func (p *KafkaPublisher) Publish(_ context.Context, eventType, key string, payload any) {
	env, err := NewEnvelope(eventType, key, payload)
	if err != nil {
		zap.L().Error("can't encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		zap.L().Error("can't encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    env.OccurredAt,
		Headers: []kafka.Header{{Key: "x-event-type", Value: []byte(eventType)}},
	}
	select {
	case p.inbox <- msg:
	default:
		zap.L().Warn("event buffer full, dropping event", zap.String("type", eventType), zap.String("key", key))
	}
}

// WaitClosed blocks until the write loop has flushed and exited.
func (p *KafkaPublisher) WaitClosed() {
	<-p.done
}
