package notification

import (
	"context"
	"log/slog"
)

const (
	// KindDeposit is emitted after a committed deposit.
	KindDeposit = "deposit"
	// KindWithdrawal is emitted after a committed withdrawal.
	KindWithdrawal = "withdrawal"
	// KindTransferSent is emitted to the source account holder.
	KindTransferSent = "transfer_sent"
	// KindTransferReceived is emitted to the destination account holder.
	KindTransferReceived = "transfer_received"
)

// Message describes a notification payload.
type Message struct {
	Kind          string
	AccountNumber int64
	Destination   string
	Body          string
}

// Notifier delivers notifications to downstream systems. Delivery happens after
// the transaction committed, so failures never roll anything back.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("kind", message.Kind),
		slog.Int64("account_number", message.AccountNumber),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	)
	return nil
}
