// Package kafka implements the change feed on a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	"github.com/Apurer/retail-ops/internal/platform/changefeed/memory"
)

// DefaultTopic carries every collection; the document id is the message key so a
// document's changes stay ordered within its partition.
const DefaultTopic = "retail.changes"

// ErrNoBrokers is returned when the broker list is empty.
var ErrNoBrokers = errors.New("kafka change feed requires at least one broker")

var _ changefeed.Feed = (*Feed)(nil)

// Feed writes changes to Kafka and fans the topic out to local subscribers.
type Feed struct {
	writer *kafka.Writer
	reader *kafka.Reader
	local  *memory.Broker
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Open connects the writer and starts a reader in a consumer group unique to this
// process, so every replica observes every change.
func Open(brokers []string, topic, groupPrefix string, logger *slog.Logger) (*Feed, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		topic = DefaultTopic
	}
	if groupPrefix == "" {
		groupPrefix = "retail-ops"
	}
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupPrefix + "-" + uuid.NewString(),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	f := &Feed{
		writer: writer,
		reader: reader,
		local:  memory.NewBroker(),
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.pump(ctx)
	return f, nil
}

// Publish writes the change keyed by document id.
func (f *Feed) Publish(ctx context.Context, change changefeed.Change) error {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}
	data, err := changefeed.Encode(change)
	if err != nil {
		return err
	}
	return f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(change.Collection + "/" + change.DocumentID),
		Value: data,
		Time:  change.At,
	})
}

// Subscribe registers a local subscriber.
func (f *Feed) Subscribe(ctx context.Context, filter changefeed.Filter) (<-chan changefeed.Change, func(), error) {
	return f.local.Subscribe(ctx, filter)
}

// Close stops the reader and flushes the writer.
func (f *Feed) Close() error {
	f.cancel()
	<-f.done
	return errors.Join(f.reader.Close(), f.writer.Close(), f.local.Close())
}

func (f *Feed) pump(ctx context.Context) {
	defer close(f.done)
	for {
		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.logger.Warn("kafka change feed read failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		change, err := changefeed.Decode(msg.Value)
		if err != nil {
			f.logger.Warn("discarding malformed change message", slog.String("error", err.Error()), slog.Int64("offset", msg.Offset))
			continue
		}
		_ = f.local.Publish(ctx, change)
	}
}
