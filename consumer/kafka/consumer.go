// Package kafka ingests domain events from a Kafka topic and feeds them
// through an UpdateProcessor. Offsets commit only after a batch processed
// successfully, so delivery is at-least-once; reconciliation makes the
// reprocessing harmless.
package kafka

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/terraskye/projections"
)

type Consumer struct {
	reader    *kafkago.Reader
	logger    *slog.Logger
	processor projections.UpdateProcessor
	batchSize int
	interval  time.Duration
}

// New builds a group consumer for the configured topic.
func New(logger *slog.Logger, cfg Config, processor projections.UpdateProcessor) (*Consumer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader:    reader,
		logger:    logger,
		processor: processor,
		batchSize: cfg.BatchSize,
		interval:  cfg.BatchInterval,
	}, nil
}

// Run consumes until the context is canceled or a batch fails permanently.
// A permanent failure leaves the batch uncommitted and returns, so a restart
// resumes at the failed batch.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msgs, err := c.fetchBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("kafka fetch error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		envelopes := c.decode(msgs)
		if len(envelopes) == 0 {
			// Nothing processable in this batch; commit so the skipped
			// messages are not refetched forever.
			if err := c.commit(ctx, msgs); err != nil {
				return err
			}
			continue
		}

		updates, err := projections.BuildReadModelUpdates(envelopes)
		if err != nil {
			c.logger.Error("build updates failed", "err", err)
			return err
		}

		if err := c.processor.ProcessUpdates(ctx, updates); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("process updates failed", "err", err)
			return err
		}

		if err := c.commit(ctx, msgs); err != nil {
			return err
		}
	}
}

// fetchBatch blocks for the first message, then drains up to batchSize
// messages or until the batch interval elapses.
func (c *Consumer) fetchBatch(ctx context.Context) ([]kafkago.Message, error) {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	msgs := []kafkago.Message{first}

	deadline, cancel := context.WithTimeout(ctx, c.interval)
	defer cancel()
	for len(msgs) < c.batchSize {
		msg, err := c.reader.FetchMessage(deadline)
		if err != nil {
			break
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// decode turns messages into envelopes. Messages that cannot be decoded, or
// that carry event types nothing registered, are logged and skipped: appliers
// ignore foreign event types anyway, and a gap left at the front of a batch
// comes back through backfill.
func (c *Consumer) decode(msgs []kafkago.Message) []projections.Envelope {
	envelopes := make([]projections.Envelope, 0, len(msgs))
	for _, msg := range msgs {
		env, err := DecodeEnvelope(msg.Value)
		if err != nil {
			c.logger.Warn("skipping message", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
			continue
		}
		envelopes = append(envelopes, env)
	}
	return envelopes
}

func (c *Consumer) commit(ctx context.Context, msgs []kafkago.Message) error {
	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Error("commit offsets failed", "err", err)
		return err
	}
	return nil
}
