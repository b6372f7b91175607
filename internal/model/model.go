// Package model defines the domain types used across the application.
package model

import "time"

// Fact is a single community fact.
type Fact struct {
	ID        int64
	Content   string
	GuildID   string
	Global    bool
	AddedBy   string
	CreatedAt time.Time
}

// VisibleIn reports whether the fact may be shown in the given guild.
// Global facts are visible everywhere, the rest only where they were added.
func (f Fact) VisibleIn(guildID string) bool {
	return f.Global || f.GuildID == guildID
}
