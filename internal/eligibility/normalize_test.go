package eligibility

import (
	"testing"
	"time"
)

func TestNormalizeFrequencyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want Frequency
	}{
		{
			name: "display config wins over everything",
			def: Definition{
				Type:           "weekly-survey",
				DisplayConfig:  &DisplayConfig{Frequency: FrequencyMonthly},
				RenewalConfig:  &RenewalConfig{Method: "custom"},
				RepeatInterval: &RepeatInterval{Value: 1, Unit: "day"},
			},
			want: FrequencyMonthly,
		},
		{
			name: "weekly-survey literal",
			def: Definition{
				Type:           "weekly-survey",
				RenewalConfig:  &RenewalConfig{Method: "custom"},
				RepeatInterval: &RepeatInterval{Value: 1, Unit: "month"},
			},
			want: FrequencyWeekly,
		},
		{
			name: "renewal config day",
			def: Definition{
				Type:           "recurring",
				RenewalConfig:  &RenewalConfig{Method: "day"},
				RepeatInterval: &RepeatInterval{Value: 1, Unit: "month"},
			},
			want: FrequencyWeekly,
		},
		{
			name: "renewal config custom",
			def:  Definition{Type: "recurring", RenewalConfig: &RenewalConfig{Method: "custom"}},
			want: FrequencyCustom,
		},
		{
			name: "repeat interval day",
			def:  Definition{Type: "recurring", RepeatInterval: &RepeatInterval{Value: 3, Unit: "day"}},
			want: FrequencyWeekly,
		},
		{
			name: "repeat interval week",
			def:  Definition{Type: "recurring", RepeatInterval: &RepeatInterval{Value: 2, Unit: "week"}},
			want: FrequencyWeekly,
		},
		{
			name: "repeat interval month",
			def:  Definition{Type: "recurring", RepeatInterval: &RepeatInterval{Value: 1, Unit: "month"}},
			want: FrequencyMonthly,
		},
		{
			name: "repeat interval unrecognized unit",
			def:  Definition{Type: "recurring", RepeatInterval: &RepeatInterval{Value: 1, Unit: "quarter"}},
			want: FrequencyCustom,
		},
		{
			name: "nothing configured defaults to one-time",
			def:  Definition{Type: "Notification"},
			want: FrequencyOneTime,
		},
		{
			name: "legacy once defaults to one-time",
			def:  Definition{Type: "once"},
			want: FrequencyOneTime,
		},
		{
			name: "empty display frequency falls through",
			def: Definition{
				Type:          "Notification",
				DisplayConfig: &DisplayConfig{DayOfWeek: "friday"},
				RenewalConfig: &RenewalConfig{Method: "day"},
			},
			want: FrequencyWeekly,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(&tt.def); got.Frequency != tt.want {
				t.Errorf("Normalize().Frequency = %q, want %q", got.Frequency, tt.want)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name    string
		defType string
		want    Category
	}{
		{name: "survey", defType: "Survey", want: CategorySurvey},
		{name: "survey lowercase", defType: "survey", want: CategorySurvey},
		{name: "weekly-survey", defType: "weekly-survey", want: CategorySurvey},
		{name: "notification", defType: "Notification", want: CategoryNotification},
		{name: "legacy once", defType: "once", want: CategoryNotification},
		{name: "legacy recurring", defType: "recurring", want: CategoryNotification},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(&Definition{Type: tt.defType}); got.Category != tt.want {
				t.Errorf("Normalize().Category = %q, want %q", got.Category, tt.want)
			}
		})
	}
}

func TestNormalizeDayOfWeek(t *testing.T) {
	tests := []struct {
		name string
		cfg  *DisplayConfig
		want time.Weekday
	}{
		{name: "configured weekday", cfg: &DisplayConfig{Frequency: FrequencyWeekly, DayOfWeek: "thursday"}, want: time.Thursday},
		{name: "mixed case", cfg: &DisplayConfig{Frequency: FrequencyWeekly, DayOfWeek: "Sunday"}, want: time.Sunday},
		{name: "default is monday", cfg: &DisplayConfig{Frequency: FrequencyWeekly}, want: time.Monday},
		{name: "unrecognized defaults to monday", cfg: &DisplayConfig{Frequency: FrequencyWeekly, DayOfWeek: "someday"}, want: time.Monday},
		{name: "no display config defaults to monday", cfg: nil, want: time.Monday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := Definition{Type: "Survey", DisplayConfig: tt.cfg}
			if got := Normalize(&def); got.DayOfWeek != tt.want {
				t.Errorf("Normalize().DayOfWeek = %v, want %v", got.DayOfWeek, tt.want)
			}
		})
	}
}

func TestIntervalDuration(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name string
		ri   *RepeatInterval
		want time.Duration
	}{
		{name: "days", ri: &RepeatInterval{Value: 3, Unit: "day"}, want: 3 * day},
		{name: "weeks", ri: &RepeatInterval{Value: 2, Unit: "week"}, want: 14 * day},
		{name: "months approximate to 30 days", ri: &RepeatInterval{Value: 1, Unit: "month"}, want: 30 * day},
		{name: "two months", ri: &RepeatInterval{Value: 2, Unit: "month"}, want: 60 * day},
		{name: "missing defaults to a week", ri: nil, want: 7 * day},
		{name: "zero value defaults to a week", ri: &RepeatInterval{Unit: "day"}, want: 7 * day},
		{name: "negative value defaults to a week", ri: &RepeatInterval{Value: -2, Unit: "day"}, want: 7 * day},
		{name: "unknown unit defaults to a week", ri: &RepeatInterval{Value: 5, Unit: "fortnight"}, want: 7 * day},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intervalDuration(tt.ri); got != tt.want {
				t.Errorf("intervalDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
