package kafka

import (
	"context"
	"encoding/json"

	"github.com/BearBump/TrackNotify/internal/broker/messages"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w     messageWriter
	topic string
}

func NewProducer(brokers []string, topic string) *Producer {
	if topic == "" {
		topic = messages.TopicParcelStatusChanged
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: false,
		},
		topic: topic,
	}
}

func newProducerWithWriter(w messageWriter, topic string) *Producer {
	return &Producer{w: w, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// PublishStatusChanged writes msg to the producer's topic keyed by tracking
// number, so changes of one parcel stay ordered within a partition.
func (p *Producer) PublishStatusChanged(ctx context.Context, msg messages.ParcelStatusChanged) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal status changed")
	}
	return p.Publish(ctx, p.topic, []byte(msg.TrackingNumber), value)
}

func (p *Producer) Close() error {
	return p.w.Close()
}
