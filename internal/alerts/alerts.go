package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies an alert stream
type Kind string

const (
	KindBurn Kind = "burn"
	KindBuy  Kind = "buy"
)

// ErrForbidden marks a delivery rejected by the chat itself: the bot was
// blocked, kicked, or the chat no longer exists. Dispatchers treat it as a
// signal to drop the subscription rather than retry.
var ErrForbidden = errors.New("chat forbids delivery")

// Event contains all information for one alert
type Event struct {
	Kind            Kind
	TransactionHash string
	LogIndex        string
	From            string
	To              string
	Amount          decimal.Decimal
	USDValue        decimal.Decimal
	WCOValue        decimal.Decimal
	Method          string
	Timestamp       time.Time
	ExplorerURL     string
}

// ID returns the event's transfer identifier
func (e *Event) ID() string {
	return e.TransactionHash + ":" + e.LogIndex
}

// Sender defines the interface for alert senders
type Sender interface {
	Send(ctx context.Context, chatID int64, event *Event) error
}
