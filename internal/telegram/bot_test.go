package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SerxWco/OG88/internal/alerts"
	"github.com/SerxWco/OG88/internal/convert"
	"github.com/SerxWco/OG88/internal/registry"
	"github.com/SerxWco/OG88/internal/wchain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelegram struct {
	sent         []tgbotapi.MessageConfig
	memberStatus string
	memberErr    error
	updates      chan tgbotapi.Update
	stopped      bool
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if f.memberErr != nil {
		return tgbotapi.ChatMember{}, f.memberErr
	}
	return tgbotapi.ChatMember{Status: f.memberStatus}, nil
}

func (f *fakeTelegram) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if f.updates != nil {
		return f.updates
	}
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeTelegram) StopReceivingUpdates() {
	f.stopped = true
}

func (f *fakeTelegram) lastReply() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

type fakeData struct {
	quote      *wchain.Quote
	quoteErr   error
	overview   *wchain.SupplyOverview
	counters   *wchain.Counters
	supplyErr  error
	counterErr error
}

func (f *fakeData) Price(ctx context.Context) (*wchain.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeData) SupplyOverview(ctx context.Context, burnAddresses []string) (*wchain.SupplyOverview, error) {
	return f.overview, f.supplyErr
}

func (f *fakeData) TokenCounters(ctx context.Context) (*wchain.Counters, error) {
	return f.counters, f.counterErr
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testBot(t *testing.T, tg *fakeTelegram, data *fakeData, reg *registry.Registry) *Bot {
	t.Helper()
	converter, err := convert.New(decimal.NewFromInt(50), decimal.NewFromInt(2500))
	require.NoError(t, err)
	if reg == nil {
		reg = registry.New(nil, 25, quietLog())
	}
	return &Bot{
		api:       tg,
		client:    data,
		converter: converter,
		registry:  reg,
		opts: Options{
			TokenAddress:        "0xToken",
			BurnWalletAddress:   "0xdead",
			BurnAddresses:       []string{"0xdead"},
			LiquidityConfigured: true,
			FiatThreshold:       decimal.NewFromInt(50),
		},
		log: quietLog(),
	}
}

func command(chatType, text string) tgbotapi.Update {
	length := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		length = i
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
			Chat:      &tgbotapi.Chat{ID: 42, Type: chatType},
			From:      &tgbotapi.User{ID: 7},
		},
	}
}

func TestPriceCommand(t *testing.T) {
	tg := &fakeTelegram{}
	data := &fakeData{quote: &wchain.Quote{
		PriceUSD:    decimal.RequireFromString("0.02"),
		MarketCap:   decimal.NewFromInt(1500000),
		LastUpdated: "2026-08-01T12:00:00Z",
	}}
	bot := testBot(t, tg, data, nil)

	bot.handleUpdate(context.Background(), command("private", "/price"))

	reply := tg.lastReply()
	assert.Contains(t, reply, "$0.020000")
	assert.Contains(t, reply, "1.50M")
	assert.Contains(t, reply, "2026-08-01T12:00:00Z")
}

func TestPriceCommandFailure(t *testing.T) {
	tg := &fakeTelegram{}
	bot := testBot(t, tg, &fakeData{quoteErr: errors.New("feed down")}, nil)

	bot.handleUpdate(context.Background(), command("private", "/price"))
	assert.Contains(t, tg.lastReply(), "Unable to fetch OG88 price")
}

func TestSupplyCommand(t *testing.T) {
	tg := &fakeTelegram{}
	data := &fakeData{overview: &wchain.SupplyOverview{
		TotalSupply: decimal.NewFromInt(88000000),
		Burned:      decimal.NewFromInt(8000000),
		Circulating: decimal.NewFromInt(80000000),
	}}
	bot := testBot(t, tg, data, nil)

	bot.handleUpdate(context.Background(), command("private", "/supply"))

	reply := tg.lastReply()
	assert.Contains(t, reply, "Circulating: 80,000,000 OG88")
	assert.Contains(t, reply, "Burned: 8,000,000 OG88")
	assert.Contains(t, reply, "Total ever: ONLY 88,000,000 OG88")
}

func TestHoldersCommand(t *testing.T) {
	tg := &fakeTelegram{}
	data := &fakeData{counters: &wchain.Counters{
		TokenHoldersCount: "1234",
		TransfersCount:    "56789",
	}}
	bot := testBot(t, tg, data, nil)

	bot.handleUpdate(context.Background(), command("private", "/holders"))

	reply := tg.lastReply()
	assert.Contains(t, reply, "Total Holders: 1,234")
	assert.Contains(t, reply, "Transfers Recorded: 56,789")
}

func TestContractCommand(t *testing.T) {
	tg := &fakeTelegram{}
	bot := testBot(t, tg, &fakeData{}, nil)

	bot.handleUpdate(context.Background(), command("private", "/ca"))
	assert.Contains(t, tg.lastReply(), "`0xToken`")
}

func TestBurnwatchSubscribeInPrivateChat(t *testing.T) {
	tg := &fakeTelegram{}
	reg := registry.New(nil, 25, quietLog())
	bot := testBot(t, tg, &fakeData{}, reg)

	bot.handleUpdate(context.Background(), command("private", "/burnwatch"))

	assert.True(t, reg.IsSubscribed(alerts.KindBurn, 42))
	assert.Contains(t, tg.lastReply(), "Burn alerts enabled")

	// Second subscribe reports already enabled.
	bot.handleUpdate(context.Background(), command("private", "/burnwatch"))
	assert.Contains(t, tg.lastReply(), "already enabled")
}

func TestBurnwatchOff(t *testing.T) {
	tg := &fakeTelegram{}
	reg := registry.New(nil, 25, quietLog())
	reg.Subscribe(context.Background(), alerts.KindBurn, 42)
	bot := testBot(t, tg, &fakeData{}, reg)

	bot.handleUpdate(context.Background(), command("private", "/burnwatch off"))

	assert.False(t, reg.IsSubscribed(alerts.KindBurn, 42))
	assert.Contains(t, tg.lastReply(), "Burn alerts disabled")
}

func TestBurnwatchStatusNeedsNoAdmin(t *testing.T) {
	tg := &fakeTelegram{memberStatus: "member"}
	reg := registry.New(nil, 25, quietLog())
	reg.Subscribe(context.Background(), alerts.KindBurn, 42)
	bot := testBot(t, tg, &fakeData{}, reg)

	bot.handleUpdate(context.Background(), command("group", "/burnwatch status"))
	assert.Contains(t, tg.lastReply(), "subscribed")
	assert.Contains(t, tg.lastReply(), "Total subscribers: 1")
}

func TestGroupSubscribeRequiresAdmin(t *testing.T) {
	tg := &fakeTelegram{memberStatus: "member"}
	reg := registry.New(nil, 25, quietLog())
	bot := testBot(t, tg, &fakeData{}, reg)

	bot.handleUpdate(context.Background(), command("group", "/burnwatch"))

	assert.False(t, reg.IsSubscribed(alerts.KindBurn, 42))
	assert.Contains(t, tg.lastReply(), "Only chat admins")
}

func TestGroupSubscribeAllowsAdmin(t *testing.T) {
	tg := &fakeTelegram{memberStatus: "administrator"}
	reg := registry.New(nil, 25, quietLog())
	bot := testBot(t, tg, &fakeData{}, reg)

	bot.handleUpdate(context.Background(), command("group", "/burnwatch"))
	assert.True(t, reg.IsSubscribed(alerts.KindBurn, 42))
}

func TestAdminVerificationFailureDenies(t *testing.T) {
	tg := &fakeTelegram{memberErr: errors.New("api down")}
	reg := registry.New(nil, 25, quietLog())
	bot := testBot(t, tg, &fakeData{}, reg)

	bot.handleUpdate(context.Background(), command("group", "/burnwatch"))

	assert.False(t, reg.IsSubscribed(alerts.KindBurn, 42))
	assert.Contains(t, tg.lastReply(), "couldn't verify your admin status")
}

func TestBuysRequiresLiquidityAddresses(t *testing.T) {
	tg := &fakeTelegram{}
	bot := testBot(t, tg, &fakeData{}, nil)
	bot.opts.LiquidityConfigured = false

	bot.handleUpdate(context.Background(), command("private", "/buys"))
	assert.Contains(t, tg.lastReply(), "require OG88 liquidity pool addresses")
}

func TestBuysSubscribeShowsThreshold(t *testing.T) {
	tg := &fakeTelegram{}
	data := &fakeData{quote: &wchain.Quote{PriceUSD: decimal.RequireFromString("0.02")}}
	reg := registry.New(nil, 25, quietLog())
	bot := testBot(t, tg, data, reg)

	bot.handleUpdate(context.Background(), command("private", "/buys"))

	assert.True(t, reg.IsSubscribed(alerts.KindBuy, 42))
	assert.Contains(t, tg.lastReply(), "$50.00 (~2,500 OG88)")
}

func TestBuysSubscribeWithoutPriceFeed(t *testing.T) {
	tg := &fakeTelegram{}
	reg := registry.New(nil, 25, quietLog())
	bot := testBot(t, tg, &fakeData{quoteErr: errors.New("feed down")}, reg)

	bot.handleUpdate(context.Background(), command("private", "/buys"))

	assert.True(t, reg.IsSubscribed(alerts.KindBuy, 42))
	assert.Contains(t, tg.lastReply(), "awaiting price feed")
}

func TestBuysLatest(t *testing.T) {
	tg := &fakeTelegram{}
	reg := registry.New(nil, 25, quietLog())
	reg.RecordEvent(context.Background(), &alerts.Event{
		Kind:            alerts.KindBuy,
		TransactionHash: "0xaaa",
		To:              "0xbuyer",
		Amount:          decimal.NewFromInt(5000),
		ExplorerURL:     "https://scan.w-chain.com/tx/0xaaa",
	})
	bot := testBot(t, tg, &fakeData{}, reg)

	bot.handleUpdate(context.Background(), command("private", "/buys latest"))

	reply := tg.lastReply()
	assert.Contains(t, reply, "Latest Big Buys")
	assert.Contains(t, reply, "`0xbuyer`")
	assert.Contains(t, reply, "*5,000 OG88*")
}

func TestBuysLatestEmpty(t *testing.T) {
	tg := &fakeTelegram{}
	bot := testBot(t, tg, &fakeData{}, nil)

	bot.handleUpdate(context.Background(), command("private", "/buys latest"))
	assert.Contains(t, tg.lastReply(), "No OG88 buys above $50.00")
}

func TestRunStopsReceivingOnContextCancel(t *testing.T) {
	tg := &fakeTelegram{updates: make(chan tgbotapi.Update)}
	bot := testBot(t, tg, &fakeData{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bot.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop after context cancellation")
	}
	assert.True(t, tg.stopped, "long polling must be stopped on shutdown")
}

func TestNonCommandMessagesAreIgnored(t *testing.T) {
	tg := &fakeTelegram{}
	bot := testBot(t, tg, &fakeData{}, nil)

	bot.handleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: "hello pandas",
			Chat: &tgbotapi.Chat{ID: 42, Type: "private"},
		},
	})
	assert.Empty(t, tg.sent)
}
