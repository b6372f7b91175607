package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"neubott/internal/facts"
)

const (
	actionConfirm = "fact_confirm"
	actionCancel  = "fact_cancel"
)

// pendingConfirms tracks delete prompts that still wait for an answer,
// keyed by the token embedded in their callback data.
type pendingConfirms struct {
	mu      sync.Mutex
	seq     int64
	byToken map[int64]*telegramConfirm
}

func newPendingConfirms() *pendingConfirms {
	return &pendingConfirms{byToken: make(map[int64]*telegramConfirm)}
}

func (r *pendingConfirms) add(p *telegramConfirm) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.token = r.seq
	r.byToken[p.token] = p
	return p.token
}

func (r *pendingConfirms) get(token int64) (*telegramConfirm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byToken[token]
	return p, ok
}

func (r *pendingConfirms) remove(token int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byToken, token)
}

func (r *pendingConfirms) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

// confirmSink renders delete prompts as a message with ✔/❌ inline buttons.
type confirmSink struct {
	b      *Bot
	chatID int64
}

// Ask sends the prompt and registers it for callbacks.
func (s confirmSink) Ask(_ context.Context, p facts.Prompt) (facts.Pending, error) {
	if !fitsMessage(p.Candidates) {
		return nil, facts.ErrResponseTooLarge
	}
	text := FormatConfirmPrompt(p.Candidates)

	pending := &telegramConfirm{
		b:         s.b,
		chatID:    s.chatID,
		requester: p.RequesterID,
		reactions: make(chan facts.Reaction, 8),
	}
	token := s.b.confirms.add(pending)

	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✔", fmt.Sprintf("%s:%d", actionConfirm, token)),
			tgbotapi.NewInlineKeyboardButtonData("❌", fmt.Sprintf("%s:%d", actionCancel, token)),
		),
	)
	sent, err := s.b.api.Send(msg)
	if err != nil {
		s.b.confirms.remove(token)
		if isTooLong(err) {
			return nil, facts.ErrResponseTooLarge
		}
		return nil, fmt.Errorf("send prompt: %w", err)
	}
	pending.messageID = sent.MessageID
	return pending, nil
}

func isTooLong(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "too long")
}

// telegramConfirm is one prompt on screen.
type telegramConfirm struct {
	b         *Bot
	chatID    int64
	messageID int
	token     int64
	requester string
	reactions chan facts.Reaction
}

func (p *telegramConfirm) Reactions() <-chan facts.Reaction {
	return p.reactions
}

// deliver hands a button press to the waiting flow. Presses beyond the
// buffer are dropped.
func (p *telegramConfirm) deliver(r facts.Reaction) {
	select {
	case p.reactions <- r:
	default:
	}
}

// Finish unregisters the prompt and replaces it with the outcome, removing the buttons.
func (p *telegramConfirm) Finish(o facts.Outcome) {
	p.b.confirms.remove(p.token)

	edit := tgbotapi.NewEditMessageText(p.chatID, p.messageID, FormatConfirmResult(o))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := p.b.api.Send(edit); err != nil {
		p.b.log.Error("edit prompt", "chat_id", p.chatID, "message_id", p.messageID, "error", err)
	}
}

func parseCallback(data string) (action string, token int64, ok bool) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	token, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return parts[0], token, true
}
