package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"neubott/internal/config"
	"neubott/internal/facts"
	"neubott/internal/schedule"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Schedules is the source of Splatoon 2 summaries.
type Schedules interface {
	Rotation(ctx context.Context) (schedule.RotationSummary, error)
	Shift(ctx context.Context) (schedule.ShiftSummary, error)
}

// factsAlias matches /facts, /botfacts, /bott_facts, /bucketfacts, /neubott_facts...
var factsAlias = regexp.MustCompile(`^((bott?|bucket|neubott)_?)?facts$`)

// Bot is the Telegram bot serving the facts and splatoon commands.
type Bot struct {
	api       telegramAPI
	facts     *facts.Service
	schedules Schedules
	cfg       *config.Config
	log       *slog.Logger

	confirms  *pendingConfirms
	cooldowns *cooldowns
	now       func() time.Time
	wg        sync.WaitGroup
}

// New creates a Bot with the given Telegram token, fact service, schedule source and config.
func New(token string, svc *facts.Service, sched Schedules, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("authorized", "username", api.Self.UserName)

	return newBot(api, svc, sched, cfg, log), nil
}

func newBot(api telegramAPI, svc *facts.Service, sched Schedules, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:       api,
		facts:     svc,
		schedules: sched,
		cfg:       cfg,
		log:       log,
		confirms:  newPendingConfirms(),
		cooldowns: newCooldowns(cfg.SplatoonCooldown),
		now:       time.Now,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled
// and every running delete confirmation has finished.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a plain text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) replyHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := strings.ToLower(msg.Command())
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch {
	case cmd == "start":
		b.handleStart(chatID)
	case cmd == "help":
		b.handleHelp(chatID)
	case cmd == "splatoon" || cmd == "splat":
		b.handleSplatoon(ctx, chatID, userKey(msg.From.ID))
	case factsAlias.MatchString(cmd):
		b.handleFacts(ctx, chatID, msg.From.ID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

func guildKey(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func userKey(userID int64) string { return strconv.FormatInt(userID, 10) }
