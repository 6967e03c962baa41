package scheduling

import (
	"reflect"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func weekdayAvailability(t *testing.T, days, start, end string) Availability {
	t.Helper()
	av, ok := ParseAvailability(days, start, end)
	if !ok {
		t.Fatalf("expected availability %q %s-%s to parse", days, start, end)
	}
	return av
}

func TestParseAvailability_Malformed(t *testing.T) {
	cases := []struct {
		name             string
		days, start, end string
	}{
		{"empty days", "", "09:00", "17:00"},
		{"unknown days", "Someday,Funday", "09:00", "17:00"},
		{"missing start", "Monday", "", "17:00"},
		{"bad start", "Monday", "9am", "17:00"},
		{"end before start", "Monday", "17:00", "09:00"},
		{"end equals start", "Monday", "09:00", "09:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := ParseAvailability(tc.days, tc.start, tc.end); ok {
				t.Fatalf("expected parse to fail")
			}
		})
	}
}

func TestComputeSlots_UnavailableWeekday(t *testing.T) {
	calc := NewCalculator(&fakeClock{now: monday.AddDate(0, 0, -7)})
	av := weekdayAvailability(t, "Monday,Wednesday,Friday", "09:00", "17:00")

	tuesday := monday.AddDate(0, 0, 1)
	slots := calc.ComputeSlots(av, tuesday, nil)
	if len(slots) != 0 {
		t.Fatalf("expected empty grid for unavailable weekday, got %d slots", len(slots))
	}
}

func TestComputeSlots_FullDayNoBreak(t *testing.T) {
	calc := NewCalculator(&fakeClock{now: monday.AddDate(0, 0, -7)})
	calc.LunchStart, calc.LunchEnd = 0, 0
	av := weekdayAvailability(t, "Monday,Wednesday,Friday", "09:00", "17:00")

	slots := calc.ComputeSlots(av, monday, nil)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for 09:00-17:00 on a 30-minute grid, got %d", len(slots))
	}
	if slots[0].StartTime != "09:00" || slots[0].EndTime != "09:30" {
		t.Errorf("first slot = %s-%s, want 09:00-09:30", slots[0].StartTime, slots[0].EndTime)
	}
	last := slots[len(slots)-1]
	if last.StartTime != "16:30" || last.EndTime != "17:00" {
		t.Errorf("last slot = %s-%s, want 16:30-17:00", last.StartTime, last.EndTime)
	}
	for _, slot := range slots {
		if !slot.IsAvailable {
			t.Errorf("slot %s unexpectedly unavailable", slot.StartTime)
		}
	}
}

func TestComputeSlots_LunchBreakExcluded(t *testing.T) {
	calc := NewCalculator(&fakeClock{now: monday.AddDate(0, 0, -7)})
	av := weekdayAvailability(t, "Monday", "09:00", "17:00")

	slots := calc.ComputeSlots(av, monday, nil)
	// 16 raw slots minus the 12:30, 13:00 and 13:30 lunch slots.
	if len(slots) != 13 {
		t.Fatalf("expected 13 slots with the 12:30-14:00 break excluded, got %d", len(slots))
	}
	for _, slot := range slots {
		switch slot.StartTime {
		case "12:30", "13:00", "13:30":
			t.Errorf("slot %s overlaps the lunch break", slot.StartTime)
		}
	}
}

func TestComputeSlots_BookedSlotMarked(t *testing.T) {
	calc := NewCalculator(&fakeClock{now: monday.AddDate(0, 0, -7)})
	calc.LunchStart, calc.LunchEnd = 0, 0
	av := weekdayAvailability(t, "Monday", "09:00", "17:00")

	booked := []time.Time{monday.Add(10 * time.Hour)}
	slots := calc.ComputeSlots(av, monday, booked)

	for _, slot := range slots {
		wantAvailable := slot.StartTime != "10:00"
		if slot.IsAvailable != wantAvailable {
			t.Errorf("slot %s: IsAvailable = %v, want %v", slot.StartTime, slot.IsAvailable, wantAvailable)
		}
	}
}

func TestComputeSlots_PastSlotsOmittedToday(t *testing.T) {
	clock := &fakeClock{now: monday.Add(12 * time.Hour)} // Monday noon
	calc := NewCalculator(clock)
	calc.LunchStart, calc.LunchEnd = 0, 0
	av := weekdayAvailability(t, "Monday", "09:00", "17:00")

	slots := calc.ComputeSlots(av, monday, nil)
	if len(slots) == 0 {
		t.Fatal("expected remaining slots for the afternoon")
	}
	if slots[0].StartTime != "12:00" {
		t.Errorf("first remaining slot = %s, want 12:00", slots[0].StartTime)
	}
}

func TestComputeSlots_Idempotent(t *testing.T) {
	calc := NewCalculator(&fakeClock{now: monday.AddDate(0, 0, -7)})
	av := weekdayAvailability(t, "Monday", "09:00", "17:00")
	booked := []time.Time{monday.Add(9 * time.Hour)}

	first := calc.ComputeSlots(av, monday, booked)
	second := calc.ComputeSlots(av, monday, booked)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated computation with no intervening writes differed")
	}
}

func TestComputeSlots_ChronologicalOrder(t *testing.T) {
	calc := NewCalculator(&fakeClock{now: monday.AddDate(0, 0, -7)})
	av := weekdayAvailability(t, "Monday", "08:00", "18:00")

	slots := calc.ComputeSlots(av, monday, nil)
	for i := 1; i < len(slots); i++ {
		if !slots[i].DateTime.After(slots[i-1].DateTime) {
			t.Fatalf("slots out of order at index %d: %v then %v", i, slots[i-1].DateTime, slots[i].DateTime)
		}
	}
}
