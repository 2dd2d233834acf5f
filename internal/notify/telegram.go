package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alias1177/zonescan/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sender is the part of *tgbotapi.BotAPI the notifier needs
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram pushes accepted signals at or above a minimum tier to one chat.
// Rejections are never sent.
type Telegram struct {
	bot     sender
	chatID  int64
	minTier models.Tier
	logger  zerolog.Logger
}

// NewTelegram connects the bot API with the given token
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return newTelegram(bot, chatID), nil
}

func newTelegram(bot sender, chatID int64) *Telegram {
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		minTier: models.TierNotify,
		logger:  log.With().Str("component", "telegram").Logger(),
	}
}

func (t *Telegram) EmitAccepted(ctx context.Context, sig *models.AcceptedSignal) error {
	if sig.Quality.Tier.Rank() < t.minTier.Rank() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatSignal(sig))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending signal %s: %w", sig.ID, err)
	}

	t.logger.Info().Str("id", sig.ID).Str("tier", string(sig.Quality.Tier)).Msg("Signal pushed to telegram")
	return nil
}

func (t *Telegram) EmitRejection(context.Context, *models.Rejection) error {
	return nil
}

// FormatSignal renders the chat message for an accepted signal
func FormatSignal(sig *models.AcceptedSignal) string {
	var b strings.Builder

	arrow := "🔻"
	if sig.Direction == models.Bullish {
		arrow = "🔺"
	}
	fmt.Fprintf(&b, "%s *%s %s* %s\n", arrow, sig.Symbol, sig.Timeframe, strings.ToUpper(string(sig.Direction)))
	fmt.Fprintf(&b, "Tier: *%s* (%.2f)\n\n", sig.Quality.Tier, sig.Quality.FinalScore)
	fmt.Fprintf(&b, "Entry: %g\n", sig.EntryPrice)
	fmt.Fprintf(&b, "Stop loss: %g\n", sig.StopLoss)
	fmt.Fprintf(&b, "Take profit: %g\n", sig.TakeProfit)
	fmt.Fprintf(&b, "Zone: %g - %g\n", sig.Zone.Lower, sig.Zone.Upper)
	if sig.NeedsLiveExecution {
		b.WriteString("\n_Break candle still forming, levels finalize on fill_\n")
	}
	fmt.Fprintf(&b, "\n%s UTC", sig.DetectedAt.UTC().Format("2006-01-02 15:04"))
	return b.String()
}
