// Package telegram sends purchase notifications to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/models"
)

// Sender is the part of the bot API used by the notifier.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts a summary of every completed purchase to one chat. currency
// is used when the buyer has none configured.
type Notifier struct {
	api      Sender
	chatID   int64
	currency string
	logger   *logrus.Logger
}

// NewNotifier authorizes against the Telegram bot API and returns a notifier
// that posts to chatID.
func NewNotifier(token string, chatID int64, currency string, logger *logrus.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return newNotifier(api, chatID, currency, logger), nil
}

func newNotifier(api Sender, chatID int64, currency string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		api:      api,
		chatID:   chatID,
		currency: currency,
		logger:   logger,
	}
}

// NotifyPurchase sends the purchase summary of detail with amounts in
// currency.
func (n *Notifier) NotifyPurchase(ctx context.Context, detail *models.ListDetail, currency string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if currency == "" {
		currency = n.currency
	}

	if err := n.SendMessage(FormatPurchase(detail, currency)); err != nil {
		return err
	}

	n.logger.WithFields(logrus.Fields{
		"list_id": detail.ID,
		"chat_id": n.chatID,
	}).Debug("purchase notification sent")

	return nil
}

// SendMessage sends a Markdown message to the configured chat
func (n *Notifier) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := n.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// FormatPurchase renders a completed list as a Markdown message.
func FormatPurchase(detail *models.ListDetail, currency string) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }

	var sb strings.Builder
	fmt.Fprintf(&sb, "\U0001F6D2 *%s* purchased by %s\n\n", esc(detail.Name), esc(detail.UserName))

	for _, p := range detail.Products {
		fmt.Fprintf(&sb, "• %s × %s = %s %s\n",
			esc(p.Name), p.Quantity.String(), p.Subtotal.StringFixed(2), currency)
	}

	fmt.Fprintf(&sb, "\n*Total:* %s %s (%s products)",
		detail.TotalCost.StringFixed(2), currency, detail.TotalProductsCount.String())

	return sb.String()
}
