package alert

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gopkg.in/gomail.v2"
)

// Sender delivers one message to one address on its platform.
type Sender interface {
	Platform() Platform
	Send(ctx context.Context, address, subject, body string) error
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramSender struct {
	bot botAPI
}

// NewTelegramSender authorizes the bot token against the Bot API.
func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

func NewTelegramSenderWithBot(bot botAPI) *TelegramSender {
	return &TelegramSender{bot: bot}
}

func (s *TelegramSender) Platform() Platform { return PlatformTelegram }

func (s *TelegramSender) Send(ctx context.Context, address, subject, body string) error {
	chatID, err := strconv.ParseInt(address, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", address, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type EmailSender struct {
	from   string
	dialer mailDialer
}

func NewEmailSender(config EmailConfig) *EmailSender {
	return &EmailSender{
		from:   config.From,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}
}

func NewEmailSenderWithDialer(from string, dialer mailDialer) *EmailSender {
	return &EmailSender{from: from, dialer: dialer}
}

func (s *EmailSender) Platform() Platform { return PlatformEmail }

func (s *EmailSender) Send(ctx context.Context, address, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support; the dial runs in the background and
	// is abandoned when ctx ends first.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
