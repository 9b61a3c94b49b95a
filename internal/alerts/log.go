package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender sends alerts to the logger
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the alert
func (s *LogSender) Send(ctx context.Context, chatID int64, event *Event) error {
	s.log.WithFields(logrus.Fields{
		"kind":      event.Kind,
		"chat_id":   chatID,
		"tx_hash":   event.TransactionHash,
		"log_index": event.LogIndex,
		"amount":    event.Amount.String(),
		"usd_value": event.USDValue.String(),
		"to":        ShortenAddress(event.To),
	}).Info("Alert generated")
	return nil
}
