package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/SerxWco/OG88/internal/alerts"
	"github.com/SerxWco/OG88/internal/convert"
	"github.com/SerxWco/OG88/internal/registry"
	"github.com/SerxWco/OG88/internal/wchain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// api is the slice of the Telegram client the bot needs. Tests substitute a
// fake; production wires *tgbotapi.BotAPI.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// dataClient is the slice of the explorer client the commands need.
type dataClient interface {
	Price(ctx context.Context) (*wchain.Quote, error)
	SupplyOverview(ctx context.Context, burnAddresses []string) (*wchain.SupplyOverview, error)
	TokenCounters(ctx context.Context) (*wchain.Counters, error)
}

// Options carries the static pieces the command handlers reference.
type Options struct {
	TokenAddress        string
	BurnWalletAddress   string
	BurnAddresses       []string
	LiquidityConfigured bool
	FiatThreshold       decimal.Decimal
}

// Bot serves the command surface: price and supply lookups plus subscription
// management for the burn and big buy alert streams.
type Bot struct {
	api       api
	client    dataClient
	converter *convert.Converter
	registry  *registry.Registry
	opts      Options
	log       *logrus.Logger
}

// New creates the command bot
func New(a *tgbotapi.BotAPI, client dataClient, converter *convert.Converter, reg *registry.Registry, opts Options, log *logrus.Logger) *Bot {
	return &Bot{
		api:       a,
		client:    client,
		converter: converter,
		registry:  reg,
		opts:      opts,
		log:       log,
	}
}

// Run long-polls Telegram for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("Telegram command bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("Telegram command bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				b.log.Warn("Telegram update channel closed")
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	command := msg.Command()
	args := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))

	b.log.WithFields(logrus.Fields{
		"command": command,
		"chat_id": msg.Chat.ID,
	}).Debug("Handling command")

	switch command {
	case "start":
		b.reply(msg, b.startMessage())
	case "help":
		b.reply(msg, b.helpMessage())
	case "price":
		b.handlePrice(ctx, msg)
	case "supply":
		b.handleSupply(ctx, msg)
	case "holders":
		b.handleHolders(ctx, msg)
	case "info":
		b.handleInfo(ctx, msg)
	case "ca":
		b.reply(msg, fmt.Sprintf(
			"📜 **OG88 Contract Address**\n\n`%s`\n\nAdd it to your wallet or share with fellow pandas.",
			b.opts.TokenAddress,
		))
	case "burnwatch":
		b.handleSubscription(ctx, msg, alerts.KindBurn, args)
	case "buys":
		b.handleBuys(ctx, msg, args)
	}
}

func (b *Bot) startMessage() string {
	return fmt.Sprintf(`🐼 **OG88 Meme Bot**

Welcome to the OG88 panda command center.

/price - OG88 price lookup
/supply - Supply and burn stats
/holders - Holder count
/burnwatch - Toggle burn alerts for the panda furnace
/buys - Subscribe to >%s buy alerts
/ca - OG88 contract address

Use /price or /supply for the fastest status check. 🔥`,
		b.fiatThresholdDisplay())
}

func (b *Bot) helpMessage() string {
	return fmt.Sprintf(`📖 **OG88 Meme Bot Help**

**Core Commands**
/start - Quick intro and command list
/price - Spot price (USD + WCO) with timestamp
/supply - Total / burned / circulating snapshot
/holders - Total OG88 holder count
/burnwatch - Subscribe/unsubscribe from burn alerts
/buys - Subscribe/unsubscribe from big buy alerts (>%s)
/ca - Quick access to the OG88 contract

**Tips**
• Use `+"`/buys status`"+` or `+"`/burnwatch status`"+` to confirm subscriptions
• Use `+"`/buys latest`"+` to review the most recent big buys`,
		b.fiatThresholdDisplay())
}

func (b *Bot) handlePrice(ctx context.Context, msg *tgbotapi.Message) {
	quote, err := b.client.Price(ctx)
	if err != nil {
		b.reply(msg, "❌ Unable to fetch OG88 price. Please try again later.")
		return
	}

	capDisplay := "N/A"
	if quote.MarketCap.IsPositive() {
		capDisplay = "$" + alerts.FormatNumber(quote.MarketCap, 2)
	}

	response := "🚨 OG88 JUST WOKE UP HUNGRY AF 🐼🔥\n"
	response += fmt.Sprintf("💰 Price: %s – still stupid cheap, fix that\n", alerts.FormatPrice(quote.PriceUSD))
	response += fmt.Sprintf("💥 Market Cap: ONLY %s – about to get wrecked upwards\n", capDisplay)
	if quote.LastUpdated != "" {
		response += fmt.Sprintf("🕒 %s\n", quote.LastUpdated)
	} else {
		response += "🕒 Timestamp unavailable\n"
	}
	if quote.Stale {
		response += "⚠️ Price feed is lagging; showing the last known quote.\n"
	}
	response += "Buyback burns + panda army loading…"
	b.reply(msg, response)
}

func (b *Bot) handleSupply(ctx context.Context, msg *tgbotapi.Message) {
	overview, err := b.client.SupplyOverview(ctx, b.opts.BurnAddresses)
	if err != nil {
		b.reply(msg, "❌ Unable to fetch OG88 supply data. Please try again later.")
		return
	}

	response := "🐼 OG88 SUPPLY IS INSANE RIGHT NOW\n"
	response += fmt.Sprintf("✅ Circulating: %s OG88 (basically maxed)\n", alerts.FormatTokenAmount(overview.Circulating))
	response += fmt.Sprintf("🔥 Burned: %s OG88 sent to hell forever\n", alerts.FormatTokenAmount(overview.Burned))
	response += fmt.Sprintf("📦 Total ever: ONLY %s OG88\n", alerts.FormatTokenAmount(overview.TotalSupply))
	response += "Fixed supply + buybacks eating the rest = your bags about to get thicc 🚀\n"
	response += "#OG88 #PandaPrinter"
	b.reply(msg, response)
}

func (b *Bot) handleHolders(ctx context.Context, msg *tgbotapi.Message) {
	counters, err := b.client.TokenCounters(ctx)
	if err != nil {
		b.reply(msg, "❌ Unable to fetch holder information. Please try again later.")
		return
	}

	response := "👥 **OG88 Holders**\n\n"
	response += fmt.Sprintf("Total Holders: %s\n", formatCount(counters.TokenHoldersCount.String()))
	response += fmt.Sprintf("Transfers Recorded: %s\n", formatCount(counters.TransfersCount.String()))
	response += "\n📊 *Source: W-Chain Explorer Counters*"
	b.reply(msg, response)
}

func (b *Bot) handleInfo(ctx context.Context, msg *tgbotapi.Message) {
	priceDisplay, wcoDisplay, capDisplay := "N/A", "N/A", "N/A"
	var lastUpdated string
	if quote, err := b.client.Price(ctx); err == nil {
		if quote.PriceUSD.IsPositive() {
			priceDisplay = alerts.FormatPrice(quote.PriceUSD)
		}
		if quote.PriceWCO.IsPositive() {
			wcoDisplay = alerts.FormatWCOPrice(quote.PriceWCO) + " WCO"
		}
		if quote.MarketCap.IsPositive() {
			capDisplay = "$" + alerts.FormatNumber(quote.MarketCap, 2)
		}
		lastUpdated = quote.LastUpdated
	}

	totalDisplay, burnedDisplay, circulatingDisplay := "N/A", "N/A", "N/A"
	if overview, err := b.client.SupplyOverview(ctx, b.opts.BurnAddresses); err == nil {
		totalDisplay = alerts.FormatTokenAmount(overview.TotalSupply)
		burnedDisplay = alerts.FormatTokenAmount(overview.Burned)
		circulatingDisplay = alerts.FormatTokenAmount(overview.Circulating)
	}

	holdersDisplay, transfersDisplay := "N/A", "N/A"
	if counters, err := b.client.TokenCounters(ctx); err == nil {
		holdersDisplay = formatCount(counters.TokenHoldersCount.String())
		transfersDisplay = formatCount(counters.TransfersCount.String())
	}

	response := "🐼 **OG88 Quick Info**\n\n"
	response += fmt.Sprintf("💰 Price: %s | %s\n", priceDisplay, wcoDisplay)
	response += fmt.Sprintf("🏦 Market Cap: %s\n", capDisplay)
	response += fmt.Sprintf("📦 Total Supply: %s OG88\n", totalDisplay)
	response += fmt.Sprintf("🔥 Burned: %s OG88\n", burnedDisplay)
	response += fmt.Sprintf("🚀 Circulating: %s OG88\n", circulatingDisplay)
	response += fmt.Sprintf("👥 Holders: %s\n", holdersDisplay)
	response += fmt.Sprintf("🔁 Transfers: %s\n", transfersDisplay)
	if lastUpdated != "" {
		response += fmt.Sprintf("🕒 Updated: %s\n", lastUpdated)
	}
	response += fmt.Sprintf("📜 Contract: `%s`\n", b.opts.TokenAddress)
	b.reply(msg, response)
}

// handleSubscription serves /burnwatch and the subscribe/unsubscribe half of
// /buys. Subscribing and unsubscribing change chat-level settings, so in
// groups only admins may do it; status is open to everyone.
func (b *Bot) handleSubscription(ctx context.Context, msg *tgbotapi.Message, kind alerts.Kind, action string) {
	chatID := msg.Chat.ID

	switch action {
	case "off", "stop", "unsubscribe":
		if !b.ensureChatAdmin(msg, "enable or disable "+kindLabel(kind)+" alerts") {
			return
		}
		if b.registry.Unsubscribe(ctx, kind, chatID) {
			b.reply(msg, fmt.Sprintf("🛑 %s alerts disabled for this chat.", kindTitle(kind)))
		} else {
			b.reply(msg, fmt.Sprintf("ℹ️ %s alerts are already disabled here.", kindTitle(kind)))
		}
		return

	case "status":
		status := "not subscribed"
		if b.registry.IsSubscribed(kind, chatID) {
			status = "subscribed"
		}
		b.reply(msg, fmt.Sprintf("📊 %s alert status: %s. Total subscribers: %d.",
			kindTitle(kind), status, b.registry.Count(kind)))
		return
	}

	if !b.ensureChatAdmin(msg, "enable or disable "+kindLabel(kind)+" alerts") {
		return
	}

	if !b.registry.Subscribe(ctx, kind, chatID) {
		b.reply(msg, fmt.Sprintf("✅ %s alerts already enabled for this chat.", kindTitle(kind)))
		return
	}

	if kind == alerts.KindBurn {
		b.reply(msg, fmt.Sprintf(
			"🔥 Burn alerts enabled! You'll be notified whenever OG88 tokens reach the burn wallet `%s`.",
			b.opts.BurnWalletAddress,
		))
	} else {
		b.reply(msg, fmt.Sprintf(
			"🐼 Panda scouts activated! You'll be pinged whenever buys exceed %s.",
			b.thresholdSummary(ctx),
		))
	}
}

func (b *Bot) handleBuys(ctx context.Context, msg *tgbotapi.Message, action string) {
	if !b.opts.LiquidityConfigured {
		b.reply(msg, "⚠️ Big buy alerts require OG88 liquidity pool addresses. "+
			"Please set OG88_LIQUIDITY_ADDRESSES in your environment.")
		return
	}

	if action == "latest" || action == "recent" {
		b.handleLatestBuys(msg)
		return
	}

	b.handleSubscription(ctx, msg, alerts.KindBuy, action)
}

func (b *Bot) handleLatestBuys(msg *tgbotapi.Message) {
	limit := 3
	events := b.registry.RecentEvents(alerts.KindBuy, limit)
	if len(events) == 0 {
		b.reply(msg, fmt.Sprintf("ℹ️ No OG88 buys above %s observed yet.", b.fiatThresholdDisplay()))
		return
	}

	var sb strings.Builder
	sb.WriteString("🐋 **Latest Big Buys**\n\n")
	for _, event := range events {
		buyer := event.To
		if buyer == "" {
			buyer = "Unknown"
		}
		sb.WriteString(fmt.Sprintf("• `%s` scooped *%s OG88*\n  🕒 %s\n  🔗 [Transaction](%s)\n",
			buyer,
			alerts.FormatTokenAmount(event.Amount),
			alerts.FormatTimestamp(event.Timestamp),
			event.ExplorerURL,
		))
	}
	b.reply(msg, sb.String())
}

// ensureChatAdmin allows everything in private chats; in groups the caller
// must be an administrator or the creator. Verification failures deny rather
// than allow.
func (b *Bot) ensureChatAdmin(msg *tgbotapi.Message, actionDescription string) bool {
	if msg.Chat.IsPrivate() {
		return true
	}
	if msg.From == nil {
		return false
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: msg.Chat.ID,
			UserID: msg.From.ID,
		},
	})
	if err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{
			"chat_id": msg.Chat.ID,
			"user_id": msg.From.ID,
		}).Warn("Unable to verify admin status")
		b.reply(msg, "⚠️ I couldn't verify your admin status. Please try again.")
		return false
	}

	if member.Status != "administrator" && member.Status != "creator" {
		b.reply(msg, fmt.Sprintf("❌ Only chat admins can %s.", actionDescription))
		return false
	}
	return true
}

func (b *Bot) fiatThresholdDisplay() string {
	return "$" + b.opts.FiatThreshold.StringFixed(2)
}

// thresholdSummary renders the USD threshold with its token equivalent when
// a price is available.
func (b *Bot) thresholdSummary(ctx context.Context) string {
	quote, err := b.client.Price(ctx)
	if err != nil || quote == nil || !quote.PriceUSD.IsPositive() {
		return b.fiatThresholdDisplay() + " (awaiting price feed for OG88 amount)"
	}
	tokenThreshold := b.converter.TokenThreshold(quote)
	return fmt.Sprintf("%s (~%s OG88)", b.fiatThresholdDisplay(), alerts.FormatTokenAmount(tokenThreshold))
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(reply); err != nil {
		b.log.WithError(err).WithField("chat_id", msg.Chat.ID).Warn("Failed to send reply")
	}
}

func kindLabel(kind alerts.Kind) string {
	if kind == alerts.KindBurn {
		return "burn"
	}
	return "big buy"
}

func kindTitle(kind alerts.Kind) string {
	if kind == alerts.KindBurn {
		return "Burn"
	}
	return "Big buy"
}

// formatCount inserts thousands separators into a plain integer string.
func formatCount(s string) string {
	if s == "" {
		return "N/A"
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
