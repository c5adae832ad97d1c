package eligibility

import (
	"strings"
	"time"
)

// Legacy type literals still present in authored definitions.
const (
	typeWeeklySurvey = "weekly-survey"
	typeSurvey       = "survey"
)

// Schedule is the normalized display policy for a definition. Normalization
// runs once per evaluation; everything after it consumes only this form,
// never the raw legacy fields.
type Schedule struct {
	Category  Category
	Frequency Frequency
	DayOfWeek time.Weekday
	Dates     []time.Time
	Interval  time.Duration
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

const defaultInterval = 7 * 24 * time.Hour

// Normalize resolves a definition's authored type and its three generations
// of renewal config into a single Category+Frequency schedule. Precedence,
// first match wins: explicit DisplayConfig frequency, the "weekly-survey"
// legacy literal, RenewalConfig.Method, RepeatInterval.Unit, then one-time.
func Normalize(def *Definition) Schedule {
	sched := Schedule{
		Category:  resolveCategory(def),
		Frequency: FrequencyOneTime,
		DayOfWeek: time.Monday,
		Interval:  intervalDuration(def.RepeatInterval),
	}

	if def.DisplayConfig != nil {
		if wd, ok := weekdays[strings.ToLower(def.DisplayConfig.DayOfWeek)]; ok {
			sched.DayOfWeek = wd
		}
		sched.Dates = def.DisplayConfig.Dates
	}

	switch {
	case def.DisplayConfig != nil && def.DisplayConfig.Frequency != "":
		sched.Frequency = def.DisplayConfig.Frequency
	case strings.EqualFold(def.Type, typeWeeklySurvey):
		sched.Frequency = FrequencyWeekly
	case def.RenewalConfig != nil && def.RenewalConfig.Method != "":
		switch strings.ToLower(def.RenewalConfig.Method) {
		case "day":
			sched.Frequency = FrequencyWeekly
		case "custom":
			sched.Frequency = FrequencyCustom
		}
	case def.RepeatInterval != nil && def.RepeatInterval.Unit != "":
		switch strings.ToLower(def.RepeatInterval.Unit) {
		case "day", "week":
			sched.Frequency = FrequencyWeekly
		case "month":
			sched.Frequency = FrequencyMonthly
		default:
			sched.Frequency = FrequencyCustom
		}
	}

	return sched
}

func resolveCategory(def *Definition) Category {
	t := strings.ToLower(def.Type)
	if t == typeSurvey || t == typeWeeklySurvey {
		return CategorySurvey
	}
	return CategoryNotification
}

// intervalDuration converts the oldest renewal shape into a duration. Months
// are approximated as 30 days; a missing or invalid interval falls back to
// 7 days. The approximation is deliberate: renewal cadence must match what
// the existing data was written against.
func intervalDuration(ri *RepeatInterval) time.Duration {
	if ri == nil || ri.Value <= 0 {
		return defaultInterval
	}
	day := 24 * time.Hour
	switch strings.ToLower(ri.Unit) {
	case "day":
		return time.Duration(ri.Value) * day
	case "week":
		return time.Duration(ri.Value) * 7 * day
	case "month":
		return time.Duration(ri.Value) * 30 * day
	default:
		return defaultInterval
	}
}
