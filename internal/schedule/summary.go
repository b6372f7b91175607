package schedule

import "time"

// Mode is the current period of one battle mode.
type Mode struct {
	Rule   string
	Stages [2]string
}

// RotationSummary is what the chat shows for the battle rotation.
type RotationSummary struct {
	Remaining time.Duration
	TurfWar   Mode
	Ranked    Mode
	League    Mode
	Cached    bool
	Elapsed   time.Duration
}

// Loadout is a resolved weapon slot.
type Loadout struct {
	Name    string
	Special bool
}

// ShiftSummary is what the chat shows for Salmon Run. When Open is false
// only UntilOpen is set.
type ShiftSummary struct {
	Open       bool
	UntilOpen  time.Duration
	Remaining  time.Duration
	Stage      string
	StageImage string
	Weapons    []Loadout
	Cached     bool
	Elapsed    time.Duration
}

// SummarizeRotation derives display fields from the first period of each mode.
func SummarizeRotation(s *Schedules, now time.Time) RotationSummary {
	mode := func(r Rotation) Mode {
		return Mode{Rule: r.Rule.Name, Stages: [2]string{r.StageA.Name, r.StageB.Name}}
	}
	return RotationSummary{
		Remaining: time.Unix(s.Regular[0].EndTime, 0).Sub(now),
		TurfWar:   mode(s.Regular[0]),
		Ranked:    mode(s.Gachi[0]),
		League:    mode(s.League[0]),
	}
}

// SummarizeShift derives display fields from the current shift. Stage
// and weapons are skipped while the shift has not started yet.
func SummarizeShift(c *CoopSchedules, now time.Time, assetBase string) ShiftSummary {
	d := c.Details[0]
	start := time.Unix(d.StartTime, 0)
	if now.Before(start) {
		return ShiftSummary{UntilOpen: start.Sub(now)}
	}

	weapons := make([]Loadout, 0, len(d.Weapons))
	for _, w := range d.Weapons {
		weapons = append(weapons, w.Resolve())
	}
	return ShiftSummary{
		Open:       true,
		Remaining:  time.Unix(d.EndTime, 0).Sub(now),
		Stage:      d.Stage.Name,
		StageImage: assetBase + d.Stage.Image,
		Weapons:    weapons,
	}
}

// Resolve picks the weapon name for the slot. Negative slot ids carry a
// special weapon; everything else a regular one.
func (w WeaponSlot) Resolve() Loadout {
	if w.ID.Special() {
		if w.CoopSpecialWeapon != nil {
			return Loadout{Name: w.CoopSpecialWeapon.Name, Special: true}
		}
		return Loadout{Name: "Random", Special: true}
	}
	if w.Weapon != nil {
		return Loadout{Name: w.Weapon.Name}
	}
	return Loadout{Name: "?"}
}
