package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Availability is a doctor's weekly recurring work pattern: the set of
// weekdays worked and the daily start/end window as offsets from
// midnight.
type Availability struct {
	Days  map[time.Weekday]bool
	Start time.Duration
	End   time.Duration
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseAvailability builds an Availability from the doctor row's
// comma-separated weekday names and HH:MM window bounds. ok is false
// when the pattern is absent or malformed; callers treat that as an
// empty slot grid rather than an error.
func ParseAvailability(days, start, end string) (Availability, bool) {
	av := Availability{Days: make(map[time.Weekday]bool)}

	for _, name := range strings.Split(days, ",") {
		wd, found := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !found {
			continue
		}
		av.Days[wd] = true
	}
	if len(av.Days) == 0 {
		return Availability{}, false
	}

	var ok bool
	if av.Start, ok = parseClockTime(start); !ok {
		return Availability{}, false
	}
	if av.End, ok = parseClockTime(end); !ok {
		return Availability{}, false
	}
	if av.End <= av.Start {
		return Availability{}, false
	}

	return av, true
}

func parseClockTime(s string) (time.Duration, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, true
}

func formatClockTime(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// TimeSlot is one bookable window on a doctor's calendar for a given
// date. Slots are computed transiently and never persisted.
type TimeSlot struct {
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	IsAvailable bool      `json:"isAvailable"`
	DateTime    time.Time `json:"dateTime"`
}

// Calculator produces the candidate slot grid for a doctor and date.
type Calculator struct {
	SlotDuration time.Duration
	// Midday break window, excluded from emission entirely. Disabled
	// when LunchEnd <= LunchStart.
	LunchStart time.Duration
	LunchEnd   time.Duration

	clock Clock
}

// Defaults matching the clinic's booking policy: 30-minute grid with a
// 12:30-14:00 lunch break.
const (
	DefaultSlotDuration = 30 * time.Minute
	defaultLunchStart   = 12*time.Hour + 30*time.Minute
	defaultLunchEnd     = 14 * time.Hour
)

// NewCalculator returns a Calculator with the default grid and break.
func NewCalculator(clock Clock) *Calculator {
	return &Calculator{
		SlotDuration: DefaultSlotDuration,
		LunchStart:   defaultLunchStart,
		LunchEnd:     defaultLunchEnd,
		clock:        clock,
	}
}

// ComputeSlots emits the ordered slot grid for date, marking each slot
// unavailable when an active appointment's start time overlaps its
// window. booked holds the start times of the doctor's active
// appointments on that date. The result is recomputed fresh each call.
//
// An availability pattern that does not cover date's weekday yields an
// empty grid. Past slots on today's grid are omitted.
func (c *Calculator) ComputeSlots(av Availability, date time.Time, booked []time.Time) []TimeSlot {
	slots := make([]TimeSlot, 0)
	if !av.Days[date.Weekday()] || av.End <= av.Start {
		return slots
	}

	now := c.clock.Now()
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	today := now.Year() == midnight.Year() && now.YearDay() == midnight.YearDay()

	for cur := av.Start; cur+c.SlotDuration <= av.End; cur += c.SlotDuration {
		if c.LunchEnd > c.LunchStart && cur >= c.LunchStart && cur < c.LunchEnd {
			continue
		}

		at := midnight.Add(cur)
		if today && at.Before(now) {
			continue
		}

		taken := false
		for _, b := range booked {
			diff := b.Sub(at)
			if diff > -c.SlotDuration && diff < c.SlotDuration {
				taken = true
				break
			}
		}

		slots = append(slots, TimeSlot{
			StartTime:   formatClockTime(cur),
			EndTime:     formatClockTime(cur + c.SlotDuration),
			IsAvailable: !taken,
			DateTime:    at,
		})
	}

	return slots
}
