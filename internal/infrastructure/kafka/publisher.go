package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

type ReservationPublisher interface {
	PublishReservation(event ReservationEvent) error
}

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(brokers []string, topic string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishReservation keys messages by vendor so one vendor's events stay
// ordered within a partition.
func (k *DefaultKafkaPublisher) PublishReservation(event ReservationEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.VendorID),
		Value: msg,
		Time:  time.Now(),
	})
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
