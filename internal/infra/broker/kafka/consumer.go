package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

const (
	handleTimeout   = 30 * time.Second
	handleAttempts  = 5
	retryBackoff    = 500 * time.Millisecond
	maxRetryBackoff = 10 * time.Second
)

// MessageHandler processes one record. Returning nil marks it consumed.
type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// ConsumerConfig starts new groups at the oldest offset so a fresh replica
// replays the calendar history it missed.
func ConsumerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	return cfg
}

// Consumer drives a MessageHandler from a consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = ConsumerConfig("")
	}
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: group, handler: handler, logger: logger}, nil
}

// Run blocks until ctx ends. Consume returns on every rebalance and after a
// claim gave up on a record, so it is called in a loop; the next session
// resumes from the last committed offset.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	claims := claimHandler{handler: c.handler, logger: c.logger, attempts: handleAttempts, backoff: retryBackoff}
	for ctx.Err() == nil {
		err := c.group.Consume(ctx, topics, claims)
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return nil
		case err != nil:
			return err
		}
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type claimHandler struct {
	handler  MessageHandler
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

func (claimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks records strictly in order. A record that still fails
// after its retries ends the claim unmarked, so nothing after it commits and
// the next session redelivers it.
func (h claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(sess.Context(), msg); err != nil {
				return err
			}
			sess.MarkMessage(msg, "")
		}
	}
}

// process retries with doubling backoff. It returns the last error once the
// attempts are spent or the session ends.
func (h claimHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) error {
	attempts := max(h.attempts, 1)
	wait := h.backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = h.handle(ctx, msg); err == nil {
			return nil
		}
		h.logger.Error("kafka message failed",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		wait = min(wait*2, maxRetryBackoff)
	}
	return err
}

func (h claimHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()
	return h.handler.Handle(ctx, msg)
}
