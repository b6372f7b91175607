package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"neubott/internal/facts"
	"neubott/internal/model"
	"neubott/internal/schedule"
)

const (
	factIcon = "🎙"
	iconOK   = "✅"
	iconErr  = "❌"

	// maxMessageLength is the Telegram limit for a text message, in characters.
	maxMessageLength = 4096
)

// FormatFact formats a single fact as a chat reply.
func FormatFact(f *model.Fact) string {
	return factIcon + " " + f.Content
}

// FormatAdded formats the reply to a successful add.
func FormatAdded(f *model.Fact, total int64) string {
	noun := "facts"
	if total == 1 {
		noun = "fact"
	}
	return fmt.Sprintf("%s Item added successfully\nNow I have %d %s.\n\n%s", iconOK, total, noun, f.Content)
}

// FormatConfirmPrompt formats the delete question for the given candidates.
func FormatConfirmPrompt(candidates []model.Fact) string {
	return confirmTitle(candidates) + "\n\n" + candidatesBody(candidates) + "\n\nPress ✔ or ❌ below."
}

// FormatConfirmResult formats the prompt once the flow has finished.
func FormatConfirmResult(o facts.Outcome) string {
	var b strings.Builder
	if o.State == facts.StateDeleted {
		b.WriteString("<b>Item deleted.</b>")
	} else {
		b.WriteString("<b>Delete cancelled.</b>")
	}
	b.WriteString("\n\n")
	b.WriteString(candidatesBody(o.Candidates))
	if o.TimedOut {
		b.WriteString("\n\n<i>The deletion was not confirmed in time.</i>")
	}
	return b.String()
}

// renderedLength counts the characters Telegram sees once HTML markup is
// parsed. Fact content is escaped, so every '<' in text opens one of our tags.
func renderedLength(text string) int {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return utf8.RuneCountInString(html.UnescapeString(b.String()))
}

// fitsMessage reports whether the delete prompt and every edit that may
// replace it stay within the message limit.
func fitsMessage(candidates []model.Fact) bool {
	longest := FormatConfirmResult(facts.Outcome{State: facts.StateCancelled, Candidates: candidates, TimedOut: true})
	return renderedLength(FormatConfirmPrompt(candidates)) <= maxMessageLength &&
		renderedLength(longest) <= maxMessageLength
}

func confirmTitle(candidates []model.Fact) string {
	if len(candidates) == 1 {
		return "<b>Found your fact. Delete?</b>"
	}
	return fmt.Sprintf("<b>Matched %d facts. Delete?</b>", len(candidates))
}

func candidatesBody(candidates []model.Fact) string {
	lines := make([]string, len(candidates))
	for i, f := range candidates {
		lines[i] = html.EscapeString(f.Content)
	}
	return strings.Join(lines, "\n")
}

// FormatRotation formats the current battle stages.
func FormatRotation(s schedule.RotationSummary) string {
	var b strings.Builder
	b.WriteString("<b>Splatoon 2: Current Stages</b>\n")
	fmt.Fprintf(&b, "This schedule is valid for the next <b>%d</b> minutes.\n", int(s.Remaining/time.Minute))
	writeMode(&b, "Turf War", s.TurfWar)
	writeMode(&b, fmt.Sprintf("Ranked (%s)", s.Ranked.Rule), s.Ranked)
	writeMode(&b, fmt.Sprintf("League (%s)", s.League.Rule), s.League)
	b.WriteString("\n")
	b.WriteString(footer(s.Cached, s.Elapsed))
	return b.String()
}

func writeMode(b *strings.Builder, title string, m schedule.Mode) {
	fmt.Fprintf(b, "\n<b>%s</b>\n%s\n%s\n",
		html.EscapeString(title), html.EscapeString(m.Stages[0]), html.EscapeString(m.Stages[1]))
}

// FormatShift formats the current Salmon Run shift. Special weapons are italic.
func FormatShift(s schedule.ShiftSummary) string {
	if !s.Open {
		return fmt.Sprintf("<b>Grizzco will open in %d hours.</b>\n<i>Processed in %dms</i>",
			int(s.UntilOpen/time.Hour), s.Elapsed.Milliseconds())
	}

	var b strings.Builder
	b.WriteString("<b>Splatoon 2: Salmon Run Shift</b>\n")
	fmt.Fprintf(&b, "This schedule is valid for the next <b>%d</b> hours\n", int(s.Remaining/time.Hour))
	fmt.Fprintf(&b, "\n<b>Stage</b>\n%s\n", html.EscapeString(s.Stage))
	b.WriteString("\n<b>Weapons</b>\n")
	for _, w := range s.Weapons {
		b.WriteString(FormatWeapon(w))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(footer(s.Cached, s.Elapsed))
	return b.String()
}

// FormatWeapon renders one weapon slot.
func FormatWeapon(w schedule.Loadout) string {
	name := html.EscapeString(w.Name)
	if w.Special {
		return "<i>" + name + "</i>"
	}
	return name
}

func footer(cached bool, elapsed time.Duration) string {
	source := "Data provided by Splatoon2.ink"
	if cached {
		source = "Cached data provided by Splatoon2.ink"
	}
	return fmt.Sprintf("<i>%s, processed in %dms</i>", source, elapsed.Milliseconds())
}
