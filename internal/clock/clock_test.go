package clock

import "testing"

func TestDayClock_TickIncrements(t *testing.T) {
	var got []int
	c, err := New("@every 1h", func(day int) { got = append(got, day) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.tick()
	c.tick()
	c.tick()

	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("expected days 1..3, got %v", got)
	}
}

func TestDayClock_SetDayResumesFromSave(t *testing.T) {
	var got []int
	c, _ := New("@every 1h", func(day int) { got = append(got, day) })

	c.SetDay(41)
	c.tick()

	if len(got) != 1 || got[0] != 42 {
		t.Errorf("expected tick after SetDay(41) to advance to 42, got %v", got)
	}
}

func TestNew_InvalidSpec(t *testing.T) {
	if _, err := New("not a schedule", func(int) {}); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}
