package bot

import (
	"regexp"
	"strings"
	"unicode"
)

// FactsAction is the subcommand of /facts.
type FactsAction int

// Subcommands of /facts.
const (
	FactsRandom FactsAction = iota
	FactsAdd
	FactsRemove
	FactsUndo
)

// FactsArgs holds the parsed arguments of a /facts command.
type FactsArgs struct {
	Action FactsAction
	Global bool
	Text   string
}

// shareSuffix is the "?s=20" tracking tail of shared tweet links.
var shareSuffix = regexp.MustCompile(`\?s=\d{2}(\s|$)`)

// ParseFactsCommand parses the arguments of /facts.
// Formats:
//
//	[exact text]
//	add [!global] <text...>
//	remove|delete <search...>
//	remove|delete undo
func ParseFactsCommand(args string) FactsArgs {
	word, rest := cutWord(args)
	switch strings.ToLower(word) {
	case "add":
		out := FactsArgs{Action: FactsAdd}
		if tag, text := cutWord(rest); tag == "!global" {
			out.Global = true
			rest = text
		}
		out.Text = strings.TrimSpace(shareSuffix.ReplaceAllString(rest, "$1"))
		return out
	case "remove", "delete":
		if strings.EqualFold(rest, "undo") {
			return FactsArgs{Action: FactsUndo}
		}
		return FactsArgs{Action: FactsRemove, Text: rest}
	default:
		return FactsArgs{Action: FactsRandom, Text: strings.TrimSpace(args)}
	}
}

// cutWord splits s at the first run of whitespace, keeping the remainder intact.
func cutWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
