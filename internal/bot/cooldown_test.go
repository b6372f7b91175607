package bot

import (
	"testing"
	"time"
)

func TestCooldowns(t *testing.T) {
	c := newCooldowns(time.Minute)
	start := time.Unix(1700000000, 0)

	if wait := c.take("u1", start); wait != 0 {
		t.Fatalf("first use waited %v", wait)
	}
	if wait := c.take("u1", start.Add(15*time.Second)); wait != 45*time.Second {
		t.Errorf("wait = %v, want 45s", wait)
	}
	if wait := c.take("u2", start.Add(15*time.Second)); wait != 0 {
		t.Errorf("other user waited %v", wait)
	}
	if wait := c.take("u1", start.Add(time.Minute)); wait != 0 {
		t.Errorf("wait after period = %v", wait)
	}

	if wait := newCooldowns(0).take("u1", start); wait != 0 {
		t.Errorf("disabled cooldown waited %v", wait)
	}
}
