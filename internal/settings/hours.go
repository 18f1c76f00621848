package settings

import (
	"fmt"
	"strings"
	"time"
)

var dayIndex = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseBusinessDays maps a comma-separated day list ("Mon,Tue,...") to the
// weekdays it names. Unknown names are returned separately.
func ParseBusinessDays(list string) (days map[time.Weekday]bool, unknown []string) {
	days = map[time.Weekday]bool{}
	for _, part := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if len(name) > 3 {
			name = name[:3]
		}
		d, ok := dayIndex[name]
		if !ok {
			unknown = append(unknown, strings.TrimSpace(part))
			continue
		}
		days[d] = true
	}
	return days, unknown
}

// NewBusinessHours builds a weekly schedule with the same window on every listed day.
func NewBusinessHours(start, end, dayList, display, timezone string) BusinessHours {
	days, _ := ParseBusinessDays(dayList)
	bh := BusinessHours{Display: display, Timezone: timezone}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if days[d] {
			bh.Schedule[d] = DaySchedule{Open: true, Start: start, End: end}
		}
	}
	return bh
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Location resolves the schedule's timezone, falling back to UTC.
func (b BusinessHours) Location() *time.Location {
	if b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsOpen reports whether t falls inside the window of its weekday, both
// bounds inclusive at minute resolution.
func (b BusinessHours) IsOpen(t time.Time) bool {
	local := t.In(b.Location())
	day := b.Schedule[local.Weekday()]
	if !day.Open {
		return false
	}
	start, err := ParseClock(day.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(day.End)
	if err != nil {
		return false
	}
	now := local.Hour()*60 + local.Minute()
	return now >= start && now <= end
}
