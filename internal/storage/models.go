package storage

import (
	"time"

	"github.com/SerxWco/OG88/internal/alerts"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription records a chat subscribed to an alert stream
type Subscription struct {
	Kind      string `gorm:"primaryKey;size:16"`
	ChatID    int64  `gorm:"primaryKey"`
	CreatedTS int64  `gorm:"not null;index"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// AlertEvent stores dispatched alerts for history and auditing
type AlertEvent struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Kind            string `gorm:"size:16;not null;index"`
	TransactionHash string `gorm:"size:128;not null;index"`
	LogIndex        string `gorm:"size:16;not null"`
	FromAddress     string `gorm:"size:128"`
	ToAddress       string `gorm:"size:128;index"`
	Amount          string `gorm:"type:decimal(38,18);not null"`
	USDValue        string `gorm:"type:decimal(20,6)"`
	WCOValue        string `gorm:"type:decimal(38,18)"`
	Method          string `gorm:"size:64"`
	TransferTS      int64  `gorm:"index"`
	CreatedTS       int64  `gorm:"not null;index"`
}

func (AlertEvent) TableName() string {
	return "alert_events"
}

// Event converts a stored row back into the in-memory alert shape. The
// explorer link is rebuilt from explorerTxBase since it is not persisted.
func (a AlertEvent) Event(explorerTxBase string) *alerts.Event {
	ev := &alerts.Event{
		Kind:            alerts.Kind(a.Kind),
		TransactionHash: a.TransactionHash,
		LogIndex:        a.LogIndex,
		From:            a.FromAddress,
		To:              a.ToAddress,
		Amount:          parseDecimal(a.Amount),
		USDValue:        parseDecimal(a.USDValue),
		WCOValue:        parseDecimal(a.WCOValue),
		Method:          a.Method,
	}
	if a.TransferTS != 0 {
		ev.Timestamp = time.Unix(a.TransferTS, 0).UTC()
	}
	if explorerTxBase != "" {
		ev.ExplorerURL = explorerTxBase + "/tx/" + a.TransactionHash
	}
	return ev
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// BeforeCreate hook for timestamps
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedTS == 0 {
		s.CreatedTS = time.Now().Unix()
	}
	return nil
}

func (a *AlertEvent) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().Unix()
	}
	return nil
}
