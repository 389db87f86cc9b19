package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// Producer publishes booking action messages keyed by booking uid, so one
// booking's events land on one partition in emit order.
type Producer struct {
	client *kgo.Client
	topic  string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka producer needs brokers and topic")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: topic}, nil
}

func (p *Producer) Publish(ctx context.Context, msg domain.BookingActionMessage) error {
	rec, err := NewRecord(p.topic, msg)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce booking action %s: %w", msg.OperationID, err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}

// NewRecord encodes msg as a Kafka record for topic.
func NewRecord(topic string, msg domain.BookingActionMessage) (*kgo.Record, error) {
	value, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode booking action: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(msg.BookingUID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "operation-id", Value: []byte(msg.OperationID)},
			{Key: "action", Value: []byte(msg.Action)},
		},
	}, nil
}
