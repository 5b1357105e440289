package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message is the transport-neutral view of a consumed record.
type Message struct {
	Key       string
	EventID   string
	EventType string
	Payload   []byte
	Time      time.Time
}

// HandlerFunc processes one message. A returned error makes the consumer
// retry the same message before moving on.
type HandlerFunc func(ctx context.Context, msg Message) error

const (
	defaultHandleAttempts = 3
	defaultRetryDelay     = 500 * time.Millisecond
)

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader     *kafka.Reader
	logger     *zap.Logger
	attempts   int
	retryDelay time.Duration
}

// NewConsumer builds a group consumer for topic.
func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if topic == "" || groupID == "" {
		return nil, errors.New("kafka topic and group id are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: 0,
	})
	return &Consumer{reader: reader, logger: logger, attempts: defaultHandleAttempts, retryDelay: defaultRetryDelay}, nil
}

// Run fetches messages until ctx is cancelled. A failing message is retried in
// place. Once the attempts are spent it is logged and its offset committed:
// group offsets are positional, so a skipped message is never redelivered.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		msgCtx := ExtractTrace(ctx, msg)
		if err := handleWithRetry(msgCtx, handle, Decode(msg), c.attempts, c.retryDelay); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Sugar().Errorw("change feed message dropped",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Sugar().Warnw("commit failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

func handleWithRetry(ctx context.Context, handle HandlerFunc, msg Message, attempts int, delay time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = handle(ctx, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Decode maps a kafka record onto Message, defaulting the event id to the key
// and the type to the topic.
func Decode(msg kafka.Message) Message {
	out := Message{
		Key:       string(msg.Key),
		EventID:   HeaderValue(msg.Headers, HeaderEventID),
		EventType: HeaderValue(msg.Headers, HeaderEventType),
		Payload:   msg.Value,
		Time:      msg.Time,
	}
	if out.EventID == "" {
		out.EventID = out.Key
	}
	if out.EventType == "" {
		out.EventType = msg.Topic
	}
	return out
}
