package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"neubott/internal/facts"
)

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	action, token, ok := parseCallback(cb.Data)
	if !ok {
		b.ack(cb, "")
		return
	}

	b.log.Info("callback",
		"action", action,
		"token", token,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	var decision facts.Decision
	switch action {
	case actionConfirm:
		decision = facts.Confirm
	case actionCancel:
		decision = facts.Cancel
	default:
		b.ack(cb, "")
		return
	}

	pending, ok := b.confirms.get(token)
	if !ok {
		b.ack(cb, "This prompt has expired.")
		return
	}

	user := userKey(cb.From.ID)
	if user != pending.requester {
		b.ack(cb, "Only the person who asked can answer this.")
	} else {
		b.ack(cb, "")
	}
	pending.deliver(facts.Reaction{UserID: user, Decision: decision})
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery, text string) {
	// answerCallbackQuery returns a bool, which Send cannot decode.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
}
