package worker

import (
	"context"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// MessageSource delivers order events to a handler until its context ends
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// OrderHistoryWorker records order events into the order history
type OrderHistoryWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewOrderHistoryWorker creates a new order history worker
func NewOrderHistoryWorker(consumer MessageSource, history *service.OrderHistory) *OrderHistoryWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderPlaced(history.HandleOrderPlaced)
	eventHandler.OnOrderFailed(history.HandleOrderFailed)

	return &OrderHistoryWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger().Named("order-history-worker"),
	}
}

// Start blocks consuming events until ctx is cancelled
func (w *OrderHistoryWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order history worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the consumer
func (w *OrderHistoryWorker) Stop() error {
	w.logger.Info("Stopping order history worker")
	return w.consumer.Close()
}

// Sweeper evicts idle sessions
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// SessionSweeper periodically evicts idle sessions from memory
type SessionSweeper struct {
	sessions Sweeper
	interval time.Duration
	maxIdle  time.Duration
	logger   *zap.Logger
}

// NewSessionSweeper creates a sweeper running every interval
func NewSessionSweeper(sessions Sweeper, interval, maxIdle time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   util.GetLogger().Named("session-sweeper"),
	}
}

// Start blocks sweeping until ctx is cancelled
func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(s.maxIdle); n > 0 {
				s.logger.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
