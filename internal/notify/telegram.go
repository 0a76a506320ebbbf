// Package notify delivers alert notifications via Telegram.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"solana-lp-watch/internal/alerting"
	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
)

// TelegramNotifier sends alert messages to a Telegram chat. It applies
// a second quality gate at delivery time so that liquidity rotations
// which slipped past the engine never reach the channel.
type TelegramNotifier struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	mode           string
	thresholds     filter.Thresholds
	maxRetries     int
	retryDelayBase time.Duration
	logger         *log.Logger
}

// TelegramOptions configures a TelegramNotifier.
type TelegramOptions struct {
	Token      string
	ChatID     string
	Mode       string
	Thresholds filter.Thresholds
	MaxRetries int
	RetryDelay time.Duration
	Logger     *log.Logger
}

// NewTelegramNotifier creates a notifier backed by the Telegram Bot API.
func NewTelegramNotifier(opts TelegramOptions) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	chatID, err := strconv.ParseInt(opts.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %w", err)
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeTest
	}
	th := opts.Thresholds
	if th.SignalWindow == 0 {
		th = filter.DefaultThresholds()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &TelegramNotifier{
		bot:            bot,
		chatID:         chatID,
		mode:           mode,
		thresholds:     th,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelay,
		logger:         logger,
	}, nil
}

// Compile-time interface check.
var _ alerting.Notifier = (*TelegramNotifier)(nil)

// Notify formats and delivers one alert. Returns nil when the
// delivery-time gate suppresses the message.
func (n *TelegramNotifier) Notify(ctx context.Context, ev *domain.EnrichedEvent, decision filter.Decision) error {
	if reason := suppressionReason(ev, n.thresholds); reason != "" {
		n.logger.Printf("suppressed %s: %s", ev.Fact.Signature, reason)
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatAlertMessage(ev, decision, n.mode))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = alertKeyboard(ev)

	return n.sendWithRetry(ctx, msg)
}

// sendWithRetry sends a message with linear-backoff retry.
func (n *TelegramNotifier) sendWithRetry(ctx context.Context, msg tgbotapi.MessageConfig) error {
	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelayBase * time.Duration(i)):
			}
		}
		if _, err := n.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("send after %d retries: %w", n.maxRetries, lastErr)
}

// suppressionReason is the delivery-time second gate. The engine's
// corroboration window can pass a large add into an established pool;
// re-classifying here keeps rotations out of the channel.
func suppressionReason(ev *domain.EnrichedEvent, th filter.Thresholds) string {
	if ev == nil || ev.Fact == nil {
		return "no event"
	}
	if ev.HasMarketData && ev.MarketCapUSD >= th.HardRejectMarketCapUSD {
		return fmt.Sprintf("market cap $%.0f at delivery", ev.MarketCapUSD)
	}
	q := filter.ClassifyQuality(ev.LPBeforeSOL(), ev.Fact.QuoteAmountSOL, ev.PairAge, ev.PairAgeKnown)
	if q == filter.QualityRotation {
		return "classified as liquidity rotation"
	}
	return ""
}

// alertKeyboard builds the chart and trade links for a token.
func alertKeyboard(ev *domain.EnrichedEvent) tgbotapi.InlineKeyboardMarkup {
	mint := ev.Fact.TokenMint
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("DexScreener",
				fmt.Sprintf("https://dexscreener.com/solana/%s", mint)),
			tgbotapi.NewInlineKeyboardButtonURL("Photon",
				fmt.Sprintf("https://photon-sol.tinyastro.io/en/lp/%s", ev.Fact.PoolAddress)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Birdeye",
				fmt.Sprintf("https://birdeye.so/token/%s?chain=solana", mint)),
			tgbotapi.NewInlineKeyboardButtonURL("Jupiter",
				fmt.Sprintf("https://jup.ag/swap/SOL-%s", mint)),
		),
	)
}
