package bot

import (
	"context"
	"errors"
	"fmt"
	"math"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"neubott/internal/facts"
	"neubott/internal/storage"
)

const (
	msgNotFound  = iconErr + " There aren't any facts for this search!"
	msgDuplicate = iconErr + " I already have that! :D"
	msgNoSearch  = iconErr + " Are you really going to ask me to delete something without knowing what you want to delete?"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Hi, I'm Neubott!

I keep a list of totally true real facts and know the current Splatoon 2 stages.

Quick start:
1. /facts: a random fact
2. /facts add <text>: teach me a new one
3. /splatoon: current stages and Salmon Run

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Facts:
/facts: show a random fact
/facts <text>: show a fact with exactly this text
/facts add <text>: add a fact to this chat
/facts add !global <text>: add a fact for every chat (bot owner only)
/facts remove <search>: delete facts containing <search>, after confirmation
/facts remove undo: delete the most recently added fact
/botfacts, /bucketfacts, /neubott_facts work the same as /facts.

This chat sees its own facts and the global ones.

Splatoon 2:
/splatoon or /splat: current stages and Salmon Run shift`)
}

func (b *Bot) handleFacts(ctx context.Context, chatID, userID int64, args string) {
	parsed := ParseFactsCommand(args)
	guild := guildKey(chatID)

	switch parsed.Action {
	case FactsAdd:
		b.handleAddFact(ctx, chatID, userID, parsed)
	case FactsUndo:
		b.handleUndo(ctx, chatID)
	case FactsRemove:
		b.startRemove(ctx, chatID, userID, parsed.Text)
	default:
		f, err := b.facts.RandomFact(ctx, guild, parsed.Text)
		if errors.Is(err, storage.ErrNotFound) {
			b.reply(chatID, msgNotFound)
			return
		}
		if err != nil {
			b.log.Error("random fact", "chat_id", chatID, "error", err)
			b.reply(chatID, iconErr+" I think that there aren't any facts to find.")
			return
		}
		b.reply(chatID, FormatFact(f))
	}
}

func (b *Bot) handleAddFact(ctx context.Context, chatID, userID int64, parsed FactsArgs) {
	global := parsed.Global
	if global && !b.cfg.IsOwner(userID) {
		b.reply(chatID, "Ignoring `!global` tag as you are not the bot owner.")
		global = false
	}

	f, err := b.facts.AddFact(ctx, parsed.Text, userKey(userID), guildKey(chatID), global)
	switch {
	case errors.Is(err, facts.ErrEmptyContent):
		b.reply(chatID, "Usage: /facts add [!global] <text>")
		return
	case errors.Is(err, storage.ErrDuplicateContent):
		b.reply(chatID, msgDuplicate)
		return
	case err != nil:
		b.log.Error("add fact", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("%s Failed to save fact: %v", iconErr, err))
		return
	}

	total, err := b.facts.CountFacts(ctx)
	if err != nil {
		b.log.Warn("count facts", "error", err)
		total = f.ID
	}
	b.reply(chatID, FormatAdded(f, total))
}

func (b *Bot) handleUndo(ctx context.Context, chatID int64) {
	f, err := b.facts.DeleteLast(ctx, guildKey(chatID))
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, msgNotFound)
		return
	}
	if err != nil {
		b.log.Error("undo fact", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("%s Failed to delete fact: %v", iconErr, err))
		return
	}
	b.reply(chatID, "Undid your mistake.\n\n"+f.Content)
}

// startRemove runs the delete flow in the background so the update loop
// can keep delivering the button presses that answer it.
func (b *Bot) startRemove(ctx context.Context, chatID, userID int64, search string) {
	if search == "" {
		b.reply(chatID, msgNoSearch)
		return
	}

	req := facts.RemoveRequest{
		GuildID:     guildKey(chatID),
		RequesterID: userKey(userID),
		Search:      search,
	}
	b.wg.Go(func() {
		out, err := b.facts.RemoveMatching(ctx, req, confirmSink{b: b, chatID: chatID})
		switch {
		case errors.Is(err, facts.ErrEmptySearch):
			b.reply(chatID, msgNoSearch)
		case errors.Is(err, context.Canceled):
		case err != nil:
			b.log.Error("remove facts", "chat_id", chatID, "error", err)
			b.reply(chatID, fmt.Sprintf("%s Failed to delete facts: %v", iconErr, err))
		case out.State == facts.StateNotFound:
			b.reply(chatID, msgNotFound)
		case out.State == facts.StateTooLarge:
			b.reply(chatID, fmt.Sprintf("%s That's too many items (%d)!", iconErr, len(out.Candidates)))
		}
	})
}

func (b *Bot) handleSplatoon(ctx context.Context, chatID int64, user string) {
	if wait := b.cooldowns.take(user, b.now()); wait > 0 {
		b.reply(chatID, fmt.Sprintf("Please wait %d more seconds before using /splatoon again.", int(math.Ceil(wait.Seconds()))))
		return
	}

	// The shift is looked up even when the rotation failed.
	rotation, err := b.schedules.Rotation(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("%s Problem with request: `%v`", iconErr, err))
	} else {
		b.replyHTML(chatID, FormatRotation(rotation))
	}

	shift, err := b.schedules.Shift(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("%s Problem with SR request: `%v`", iconErr, err))
		return
	}
	if !shift.Open || shift.StageImage == "" {
		b.replyHTML(chatID, FormatShift(shift))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(shift.StageImage))
	photo.Caption = FormatShift(shift)
	photo.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(photo); err != nil {
		b.log.Warn("send shift photo", "chat_id", chatID, "error", err)
		b.replyHTML(chatID, FormatShift(shift))
	}
}
