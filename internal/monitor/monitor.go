package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SerxWco/OG88/internal/alerts"
	"github.com/SerxWco/OG88/internal/convert"
	"github.com/SerxWco/OG88/internal/dedup"
	"github.com/SerxWco/OG88/internal/metrics"
	"github.com/SerxWco/OG88/internal/registry"
	"github.com/SerxWco/OG88/internal/wchain"
	"github.com/sirupsen/logrus"
)

// Fetcher is the slice of the explorer client the monitor needs.
type Fetcher interface {
	TokenTransfers(ctx context.Context, address string, direction wchain.Direction) ([]wchain.Transfer, error)
	Price(ctx context.Context) (*wchain.Quote, error)
}

// Options configures a Monitor for one alert stream.
type Options struct {
	Kind alerts.Kind

	// BurnAddress is watched for inbound transfers (burn stream).
	BurnAddress string

	// LiquidityAddresses are watched for outbound transfers (buy stream).
	// Transfers landing back in a liquidity or burn address are internal
	// pool movements, not buys.
	LiquidityAddresses []string

	Interval     time.Duration
	GraceTimeout time.Duration
	DedupWindow  int

	// ExplorerTxBase prefixes transaction hashes to build alert links.
	ExplorerTxBase string
}

// Monitor polls one transfer stream, deduplicates what the explorer returns,
// and fans qualifying transfers out to all subscribed chats. Each Monitor
// runs on its own goroutine and owns its dedup window exclusively.
type Monitor struct {
	opts      Options
	fetcher   Fetcher
	converter *convert.Converter
	window    *dedup.Window
	registry  *registry.Registry
	sender    alerts.Sender
	log       *logrus.Logger

	liquidity map[string]struct{}
	burn      string
}

// New creates a Monitor for one alert stream.
func New(opts Options, fetcher Fetcher, converter *convert.Converter, reg *registry.Registry, sender alerts.Sender, log *logrus.Logger) *Monitor {
	liquidity := make(map[string]struct{}, len(opts.LiquidityAddresses))
	for _, addr := range opts.LiquidityAddresses {
		liquidity[strings.ToLower(addr)] = struct{}{}
	}
	return &Monitor{
		opts:      opts,
		fetcher:   fetcher,
		converter: converter,
		window:    dedup.NewWindow(opts.DedupWindow),
		registry:  reg,
		sender:    sender,
		log:       log,
		liquidity: liquidity,
		burn:      strings.ToLower(opts.BurnAddress),
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately so the dedup window seeds at startup rather than one full
// interval later.
func (m *Monitor) Run(ctx context.Context) {
	m.log.WithFields(logrus.Fields{
		"kind":     m.opts.Kind,
		"interval": m.opts.Interval,
	}).Info("Monitor started")

	m.runCycle(ctx)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.WithField("kind", m.opts.Kind).Info("Monitor stopped")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, m.opts.GraceTimeout)
	defer cancel()

	err := m.poll(pollCtx)
	metrics.RecordPollCycle(string(m.opts.Kind), err)
	if err != nil && !errors.Is(err, context.Canceled) {
		m.log.WithError(err).WithField("kind", m.opts.Kind).Warn("Poll cycle failed")
	}
}

// poll runs one cycle. A fetch failure aborts the cycle before any dedup
// state changes, so the next cycle retries the same transfers.
func (m *Monitor) poll(ctx context.Context) error {
	candidates, err := m.fetchCandidates(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(candidates))
	byID := make(map[string]wchain.Transfer, len(candidates))
	for i, tr := range candidates {
		ids[i] = tr.ID()
		byID[tr.ID()] = tr
	}

	// Cold start: absorb the current snapshot without alerting. Historical
	// transfers predate the monitor and must not flood subscribers.
	if !m.window.Seeded() {
		m.window.Seed(ids)
		m.log.WithFields(logrus.Fields{
			"kind":     m.opts.Kind,
			"seen_txs": len(ids),
		}).Info("Monitor seeded from current snapshot")
		return nil
	}

	freshIDs := m.window.FilterNew(ids)
	metrics.TransfersObserved.WithLabelValues(string(m.opts.Kind), "duplicate").
		Add(float64(len(ids) - len(freshIDs)))
	if len(freshIDs) == 0 {
		return nil
	}

	fresh := make([]wchain.Transfer, 0, len(freshIDs))
	for _, id := range freshIDs {
		fresh = append(fresh, byID[id])
	}

	quote := m.fetchQuote(ctx)

	qualifying := fresh
	if m.opts.Kind == alerts.KindBuy {
		qualifying = m.filterAboveThreshold(fresh, quote)
	}
	metrics.TransfersObserved.WithLabelValues(string(m.opts.Kind), "new").
		Add(float64(len(qualifying)))

	// Every fresh transfer is consumed, qualifying or not. A buy below
	// today's threshold must not alert next cycle when the price moves.
	m.window.MarkSeen(freshIDs)

	// The feed is newest-first; deliver oldest-first so subscribers read
	// events in chain order.
	for i := len(qualifying) - 1; i >= 0; i-- {
		m.dispatch(ctx, m.buildEvent(&qualifying[i], quote))
	}
	return nil
}

func (m *Monitor) fetchCandidates(ctx context.Context) ([]wchain.Transfer, error) {
	if m.opts.Kind == alerts.KindBurn {
		transfers, err := m.fetcher.TokenTransfers(ctx, m.opts.BurnAddress, wchain.DirectionTo)
		if err != nil {
			return nil, fmt.Errorf("fetch burn transfers: %w", err)
		}
		return transfers, nil
	}

	var candidates []wchain.Transfer
	for _, pool := range m.opts.LiquidityAddresses {
		transfers, err := m.fetcher.TokenTransfers(ctx, pool, wchain.DirectionFrom)
		if err != nil {
			return nil, fmt.Errorf("fetch pool transfers for %s: %w", pool, err)
		}
		for _, tr := range transfers {
			if m.isBuy(&tr) {
				candidates = append(candidates, tr)
			}
		}
	}
	return candidates, nil
}

// isBuy excludes pool-internal movements: a transfer from a pool into
// another pool or into the burn address is not a buyer taking tokens out.
func (m *Monitor) isBuy(tr *wchain.Transfer) bool {
	to := strings.ToLower(tr.To.Hash)
	if to == "" {
		return false
	}
	if _, ok := m.liquidity[to]; ok {
		return false
	}
	return to != m.burn
}

func (m *Monitor) fetchQuote(ctx context.Context) *wchain.Quote {
	quote, err := m.fetcher.Price(ctx)
	if err != nil {
		m.log.WithError(err).WithField("kind", m.opts.Kind).Warn("Price unavailable for this cycle")
		return nil
	}
	return quote
}

func (m *Monitor) filterAboveThreshold(transfers []wchain.Transfer, quote *wchain.Quote) []wchain.Transfer {
	threshold := m.converter.TokenThreshold(quote)
	var qualifying []wchain.Transfer
	for _, tr := range transfers {
		if tr.Amount().GreaterThan(threshold) {
			qualifying = append(qualifying, tr)
			continue
		}
		metrics.RecordTransfer(string(m.opts.Kind), "below_threshold")
	}
	return qualifying
}

func (m *Monitor) buildEvent(tr *wchain.Transfer, quote *wchain.Quote) *alerts.Event {
	amount := tr.Amount()
	return &alerts.Event{
		Kind:            m.opts.Kind,
		TransactionHash: tr.TransactionHash,
		LogIndex:        tr.LogIndex.String(),
		From:            tr.From.Hash,
		To:              tr.To.Hash,
		Amount:          amount,
		USDValue:        m.converter.USDValue(amount, quote),
		WCOValue:        m.converter.WCOValue(amount, quote),
		Method:          tr.Method,
		Timestamp:       tr.Time(),
		ExplorerURL:     m.opts.ExplorerTxBase + "/tx/" + tr.TransactionHash,
	}
}

// dispatch records the event and fans it out. Delivery failures are isolated
// per chat; a forbidden chat is dropped from the stream.
func (m *Monitor) dispatch(ctx context.Context, event *alerts.Event) {
	m.registry.RecordEvent(ctx, event)

	for _, chatID := range m.registry.Subscribers(event.Kind) {
		err := m.sender.Send(ctx, chatID, event)
		if err == nil {
			metrics.RecordDispatch(string(event.Kind), nil)
			continue
		}
		if errors.Is(err, alerts.ErrForbidden) {
			m.registry.Unsubscribe(ctx, event.Kind, chatID)
			metrics.RecordForbidden(string(event.Kind))
			m.log.WithFields(logrus.Fields{
				"kind":    event.Kind,
				"chat_id": chatID,
			}).Warn("Removed chat from alerts (forbidden)")
			continue
		}
		metrics.RecordDispatch(string(event.Kind), err)
		m.log.WithError(err).WithFields(logrus.Fields{
			"kind":    event.Kind,
			"chat_id": chatID,
			"tx_hash": event.TransactionHash,
		}).Warn("Failed to deliver alert")
	}
}
