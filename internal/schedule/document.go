package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var errEmptySchedule = errors.New("schedule has no current period")

// Stage is a map descriptor.
type Stage struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Rule is a battle rule or game mode.
type Rule struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Rotation is one period of a battle mode.
type Rotation struct {
	ID        int64 `json:"id"`
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
	GameMode  Rule  `json:"game_mode"`
	Rule      Rule  `json:"rule"`
	StageA    Stage `json:"stage_a"`
	StageB    Stage `json:"stage_b"`
}

// Schedules is the rotation document (/data/schedules.json).
// The first element of each list is the current period.
type Schedules struct {
	Regular []Rotation `json:"regular"`
	Gachi   []Rotation `json:"gachi"`
	League  []Rotation `json:"league"`
}

func (s *Schedules) window() (time.Time, time.Time, error) {
	if len(s.Regular) == 0 || len(s.Gachi) == 0 || len(s.League) == 0 {
		return time.Time{}, time.Time{}, errEmptySchedule
	}
	r := s.Regular[0]
	return time.Unix(r.StartTime, 0), time.Unix(r.EndTime, 0), nil
}

// SlotID is a weapon slot identifier. Negative values mark special
// "random" slots. The API serves it as a string, older dumps as a number.
type SlotID int

// UnmarshalJSON accepts both 12 and "12".
func (id *SlotID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("weapon slot id %q: %w", data, err)
	}
	*id = SlotID(n)
	return nil
}

// Special reports whether the slot holds a special weapon instead of a named one.
func (id SlotID) Special() bool { return id < 0 }

// Weapon is a named weapon.
type Weapon struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// WeaponSlot is one of the four weapons supplied for a shift.
type WeaponSlot struct {
	ID                SlotID  `json:"id"`
	Weapon            *Weapon `json:"weapon,omitempty"`
	CoopSpecialWeapon *Weapon `json:"coop_special_weapon,omitempty"`
}

// Shift is one Salmon Run period with full details.
type Shift struct {
	StartTime int64        `json:"start_time"`
	EndTime   int64        `json:"end_time"`
	Stage     Stage        `json:"stage"`
	Weapons   []WeaponSlot `json:"weapons"`
}

// ShiftWindow is an upcoming shift without details.
type ShiftWindow struct {
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
}

// CoopSchedules is the shift document (/data/coop-schedules.json).
type CoopSchedules struct {
	Details   []Shift       `json:"details"`
	Schedules []ShiftWindow `json:"schedules,omitempty"`
}

func (c *CoopSchedules) window() (time.Time, time.Time, error) {
	if len(c.Details) == 0 {
		return time.Time{}, time.Time{}, errEmptySchedule
	}
	d := c.Details[0]
	return time.Unix(d.StartTime, 0), time.Unix(d.EndTime, 0), nil
}

type windowed interface {
	window() (start, end time.Time, err error)
}

// ParseSchedules decodes and validates a rotation document.
func ParseSchedules(raw []byte) (*Schedules, error) {
	var s Schedules
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	if _, _, err := s.window(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseCoopSchedules decodes and validates a shift document.
func ParseCoopSchedules(raw []byte) (*CoopSchedules, error) {
	var c CoopSchedules
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode coop schedules: %w", err)
	}
	if _, _, err := c.window(); err != nil {
		return nil, err
	}
	return &c, nil
}
