package bot

import (
	"html"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"neubott/internal/facts"
	"neubott/internal/model"
	"neubott/internal/schedule"
)

func TestFormatWeapon(t *testing.T) {
	tests := []struct {
		name string
		in   schedule.Loadout
		want string
	}{
		{name: "regular", in: schedule.Loadout{Name: "Splattershot"}, want: "Splattershot"},
		{name: "special", in: schedule.Loadout{Name: "Random", Special: true}, want: "<i>Random</i>"},
		{name: "escaped", in: schedule.Loadout{Name: "<Dualies>"}, want: "&lt;Dualies&gt;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatWeapon(tt.in)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatRotation(t *testing.T) {
	got := FormatRotation(schedule.RotationSummary{
		Remaining: 90*time.Minute + 59*time.Second,
		TurfWar:   schedule.Mode{Rule: "Turf War", Stages: [2]string{"The Reef", "Musselforge Fitness"}},
		Ranked:    schedule.Mode{Rule: "Splat Zones", Stages: [2]string{"Inkblot Art Academy", "Sturgeon Shipyard"}},
		League:    schedule.Mode{Rule: "Rainmaker", Stages: [2]string{"Moray Towers", "Port Mackerel"}},
		Elapsed:   12 * time.Millisecond,
	})

	want := `<b>Splatoon 2: Current Stages</b>
This schedule is valid for the next <b>90</b> minutes.

<b>Turf War</b>
The Reef
Musselforge Fitness

<b>Ranked (Splat Zones)</b>
Inkblot Art Academy
Sturgeon Shipyard

<b>League (Rainmaker)</b>
Moray Towers
Port Mackerel

<i>Data provided by Splatoon2.ink, processed in 12ms</i>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatShift(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		got := FormatShift(schedule.ShiftSummary{
			Open:      true,
			Remaining: 33*time.Hour + 30*time.Minute,
			Stage:     "Salmonid Smokeyard",
			Weapons: []schedule.Loadout{
				{Name: "Splattershot"},
				{Name: "E-liter 4K"},
				{Name: "Random", Special: true},
				{Name: "Random", Special: true},
			},
			Cached:  true,
			Elapsed: 3 * time.Millisecond,
		})

		want := `<b>Splatoon 2: Salmon Run Shift</b>
This schedule is valid for the next <b>33</b> hours

<b>Stage</b>
Salmonid Smokeyard

<b>Weapons</b>
Splattershot
E-liter 4K
<i>Random</i>
<i>Random</i>

<i>Cached data provided by Splatoon2.ink, processed in 3ms</i>`
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("closed", func(t *testing.T) {
		got := FormatShift(schedule.ShiftSummary{UntilOpen: 5*time.Hour + 10*time.Minute})
		want := "<b>Grizzco will open in 5 hours.</b>\n<i>Processed in 0ms</i>"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestFormatConfirm(t *testing.T) {
	one := []model.Fact{{ID: 1, Content: "a <b>bold</b> claim"}}
	two := []model.Fact{{ID: 1, Content: "blue squid"}, {ID: 2, Content: "red squid"}}

	got := FormatConfirmPrompt(one)
	if !strings.HasPrefix(got, "<b>Found your fact. Delete?</b>") {
		t.Errorf("unexpected title: %s", got)
	}
	if !strings.Contains(got, "a &lt;b&gt;bold&lt;/b&gt; claim") {
		t.Errorf("content not escaped: %s", got)
	}

	got = FormatConfirmPrompt(two)
	if !strings.Contains(got, "<b>Matched 2 facts. Delete?</b>\n\nblue squid\nred squid") {
		t.Errorf("unexpected prompt: %s", got)
	}

	got = FormatConfirmResult(facts.Outcome{State: facts.StateCancelled, Candidates: two, TimedOut: true})
	want := "<b>Delete cancelled.</b>\n\nblue squid\nred squid\n\n<i>The deletion was not confirmed in time.</i>"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderedLength(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "plain", in: "squid", want: 5},
		{name: "tags", in: "<b>Item deleted.</b>", want: 13},
		{name: "escapes", in: html.EscapeString("a <b> & c"), want: 9},
		{name: "emoji", in: "Press ✔ or ❌ below.", want: 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, renderedLength(tt.in)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFitsMessage(t *testing.T) {
	// The timed-out result adds more than the prompt's footer, so it sets the limit.
	overhead := renderedLength(FormatConfirmResult(facts.Outcome{
		State:      facts.StateCancelled,
		Candidates: []model.Fact{{Content: ""}},
		TimedOut:   true,
	}))
	edge := strings.Repeat("a", maxMessageLength-overhead)

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "result exactly at limit", content: edge, want: true},
		{name: "result one over limit", content: edge + "a", want: false},
		{name: "escaped content counted once", content: strings.Repeat("&", maxMessageLength-overhead), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := []model.Fact{{ID: 1, Content: tt.content}}
			if renderedLength(FormatConfirmPrompt(candidates)) > maxMessageLength {
				t.Fatal("prompt alone should fit")
			}
			if diff := cmp.Diff(tt.want, fitsMessage(candidates)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatAdded(t *testing.T) {
	f := &model.Fact{ID: 3, Content: "octopi"}
	want := "✅ Item added successfully\nNow I have 3 facts.\n\noctopi"
	if diff := cmp.Diff(want, FormatAdded(f, 3)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
