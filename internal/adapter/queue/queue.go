package queue

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MessageQueue carries session lifecycle events to other processes.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
	DriverMemory   = "memory"
)

// New connects the broker selected by driver.
func New(driver, url string, log *zap.Logger) (MessageQueue, error) {
	switch strings.ToLower(driver) {
	case DriverNATS:
		return NewNATSQueue(url, log)
	case DriverRabbitMQ:
		return NewRabbitMQQueue(url, log)
	case DriverMemory, "":
		return NewMemoryQueue(log), nil
	default:
		return nil, fmt.Errorf("unknown broker driver %q", driver)
	}
}
