package logs

import (
	"math"
	"time"
)

// Summarize aggregates entries. Rates are percentages rounded to the nearest
// integer and are all zero for an empty input.
func Summarize(entries []Entry, loc *time.Location) Analytics {
	if loc == nil {
		loc = time.UTC
	}
	a := Analytics{
		TotalInteractions:  len(entries),
		InteractionsByType: map[string]int{},
		AIUsage:            map[string]int{},
		DailyStats:         map[string]DayStats{},
	}
	if len(entries) == 0 {
		return a
	}

	var success, escalations int
	var totalMs float64
	for _, e := range entries {
		a.InteractionsByType[e.InteractionType]++

		isSuccess := e.Status == StatusSuccess
		isEscalation := e.InteractionType == TypeEscalation
		if isSuccess {
			success++
		}
		if isEscalation {
			escalations++
		}
		if !math.IsNaN(e.ResponseTimeMs) && !math.IsInf(e.ResponseTimeMs, 0) {
			totalMs += e.ResponseTimeMs
		}
		if e.Provider != "" {
			a.AIUsage[e.Provider]++
		}

		t, ok := e.Time()
		if !ok {
			continue
		}
		local := t.In(loc)
		a.BusyHours[local.Hour()]++

		day := local.Format("2006-01-02")
		ds := a.DailyStats[day]
		ds.Total++
		if isSuccess {
			ds.Successful++
		}
		if isEscalation {
			ds.Escalations++
		}
		a.DailyStats[day] = ds
	}

	total := float64(len(entries))
	a.SuccessRate = int(math.Round(float64(success) / total * 100))
	a.EscalationRate = int(math.Round(float64(escalations) / total * 100))
	a.AverageResponseTime = int(math.Round(totalMs / total))
	return a
}
