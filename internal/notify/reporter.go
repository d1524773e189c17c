package notify

import (
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/checkout"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// Sender is the part of *tele.Bot the reporter uses.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// NewBot builds an offline telebot client; the reporter only sends, it never polls.
func NewBot(token string) (*tele.Bot, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telebot: %w", err)
	}
	return bot, nil
}

// Reporter posts settled payments and exhausted retries to a Telegram report chat.
type Reporter struct {
	checkout.NopObserver

	sender Sender
	chat   tele.ChatID
	logger *zap.Logger
}

func NewReporter(sender Sender, chat int64, logger *zap.Logger) *Reporter {
	return &Reporter{sender: sender, chat: tele.ChatID(chat), logger: logger}
}

func (r *Reporter) StatusChanged(txID string, from, to models.PaymentStatus, message string) {
	switch {
	case to == models.StatusFailed:
		r.report(fmt.Sprintf("❌ Payment failed\nTransaction: <code>%s</code>\n%s", html.EscapeString(txID), html.EscapeString(message)))
	case to == models.StatusExpired:
		r.report(fmt.Sprintf("⌛ Payment window expired\nTransaction: <code>%s</code>", html.EscapeString(txID)))
	case from == models.StatusProcessing && to == models.StatusPending && message == checkout.MessageRetryExhausted:
		r.report(fmt.Sprintf("⚠️ Confirmation retries exhausted, waiting on status polling\nTransaction: <code>%s</code>", html.EscapeString(txID)))
	}
}

func (r *Reporter) PaymentCompleted(txID string, _ map[string]interface{}) {
	r.report(fmt.Sprintf("✅ Payment confirmed\nTransaction: <code>%s</code>\nTime: %s",
		html.EscapeString(txID), time.Now().Format("2006-01-02 15:04:05")))
}

// Report posts an arbitrary HTML report to the report chat.
func (r *Reporter) Report(text string) {
	r.report(text)
}

// report sends in the background so a slow Telegram API never holds up a session.
func (r *Reporter) report(text string) {
	go func() {
		defer r.recoverFromPanic("report")
		if _, err := r.sender.Send(r.chat, text, tele.ModeHTML); err != nil {
			r.logger.Warn("Payment report not delivered", zap.Error(err))
		}
	}()
}

func (r *Reporter) recoverFromPanic(name string) {
	if rec := recover(); rec != nil {
		r.logger.Error("Reporter panicked", zap.String("job", name), zap.Any("error", rec))
	}
}
