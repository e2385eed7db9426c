// Package share posts captures to a Telegram chat.
package share

import (
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"screen-vision/src/report"
	"screen-vision/src/session"
)

// MaxCaption is Telegram's caption limit, in characters.
const MaxCaption = 1024

const captionTags = 8

// Sender is the part of *tgbotapi.BotAPI the target uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api    Sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id are required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	log.Printf("Share: authorized on telegram account %s", api.Self.UserName)
	return &Telegram{api: api, chatID: chatID}, nil
}

// NewTelegramWithSender is used when the bot client already exists.
func NewTelegramWithSender(api Sender, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID}
}

// OnSuccess sends the captured image with the caption and top tags.
func (t *Telegram) OnSuccess(res session.Result) error {
	if len(res.PNG) == 0 {
		return errors.New("share: capture has no image data")
	}
	photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileBytes{Name: "capture.png", Bytes: res.PNG})
	photo.Caption = Truncate(report.Caption(res.Analysis, captionTags), MaxCaption)
	if _, err := t.api.Send(photo); err != nil {
		return fmt.Errorf("share: send photo: %w", err)
	}
	return nil
}

func (t *Telegram) OnFailure(err error) error {
	return nil
}

// Truncate shortens s to at most n characters, ending with an ellipsis
// when something was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
