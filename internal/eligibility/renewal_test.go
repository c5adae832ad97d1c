package eligibility

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestNextWeekday(t *testing.T) {
	tests := []struct {
		name string
		from string
		wd   time.Weekday
		want string
	}{
		{
			// Monday to the following Monday, never same-day.
			name: "same weekday advances a full week",
			from: "2024-03-04T00:00:00Z",
			wd:   time.Monday,
			want: "2024-03-11T00:00:00Z",
		},
		{
			name: "same weekday with time of day advances a full week",
			from: "2024-03-04T15:30:00Z",
			wd:   time.Monday,
			want: "2024-03-11T00:00:00Z",
		},
		{
			name: "next day",
			from: "2024-03-04T00:00:00Z",
			wd:   time.Tuesday,
			want: "2024-03-05T00:00:00Z",
		},
		{
			name: "wraps the week",
			from: "2024-03-06T00:00:00Z", // a Wednesday
			wd:   time.Monday,
			want: "2024-03-11T00:00:00Z",
		},
		{
			name: "saturday to sunday",
			from: "2024-03-09T23:59:59Z",
			wd:   time.Sunday,
			want: "2024-03-10T00:00:00Z",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := mustTime(t, tt.from)
			want := mustTime(t, tt.want)
			got := nextWeekday(from, tt.wd)
			if !got.Equal(want) {
				t.Errorf("nextWeekday(%v, %v) = %v, want %v", from, tt.wd, got, want)
			}
			if !got.After(from) {
				t.Errorf("nextWeekday() = %v, not strictly after %v", got, from)
			}
			if got.Weekday() != tt.wd {
				t.Errorf("nextWeekday().Weekday() = %v, want %v", got.Weekday(), tt.wd)
			}
		})
	}
}

func TestLastInteracted(t *testing.T) {
	seen := mustTime(t, "2024-02-01T09:00:00Z")
	submitted := mustTime(t, "2024-02-10T09:00:00Z")
	older := mustTime(t, "2024-01-15T09:00:00Z")

	tests := []struct {
		name   string
		res    InteractionResult
		want   time.Time
		wantOK bool
	}{
		{
			name:   "never interacted",
			res:    InteractionResult{},
			wantOK: false,
		},
		{
			name:   "last seen only",
			res:    InteractionResult{LastSeen: timePtr(seen)},
			want:   seen,
			wantOK: true,
		},
		{
			name: "last submitted beats last seen",
			res: InteractionResult{
				LastSeen:      timePtr(seen),
				LastSubmitted: timePtr(submitted),
			},
			want:   submitted,
			wantOK: true,
		},
		{
			name: "submission timestamps count",
			res: InteractionResult{
				LastSeen: timePtr(older),
				Submissions: map[string]Submission{
					"1707555600": {SubmittedAt: timePtr(submitted)},
					"1706778000": {SeenAt: timePtr(seen)},
				},
			},
			want:   submitted,
			wantOK: true,
		},
		{
			name: "submissions with no timestamps are ignored",
			res: InteractionResult{
				Submissions: map[string]Submission{
					"x": {Answers: map[string]string{"q1": "a"}},
				},
			},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lastInteracted(&tt.res)
			if ok != tt.wantOK {
				t.Fatalf("lastInteracted() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("lastInteracted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenewalGateWeekly(t *testing.T) {
	sched := Schedule{Frequency: FrequencyWeekly, DayOfWeek: time.Monday, Interval: defaultInterval}
	last := mustTime(t, "2024-03-04T10:00:00Z") // a Monday

	tests := []struct {
		name     string
		now      string
		eligible bool
		next     string
	}{
		{name: "sunday before renewal", now: "2024-03-10T23:00:00Z", eligible: false, next: "2024-03-11T00:00:00Z"},
		{name: "renewal monday", now: "2024-03-11T00:00:00Z", eligible: true},
		{name: "after renewal", now: "2024-03-20T00:00:00Z", eligible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := InteractionResult{LastSeen: timePtr(last)}
			eligible, next := renewalGate(sched, &res, mustTime(t, tt.now))
			if eligible != tt.eligible {
				t.Fatalf("renewalGate() eligible = %v, want %v", eligible, tt.eligible)
			}
			if tt.next != "" {
				if next == nil {
					t.Fatalf("renewalGate() next = nil, want %v", tt.next)
				}
				if want := mustTime(t, tt.next); !next.Equal(want) {
					t.Errorf("renewalGate() next = %v, want %v", next, want)
				}
			}
		})
	}

	t.Run("never interacted is always eligible", func(t *testing.T) {
		eligible, next := renewalGate(sched, &InteractionResult{}, mustTime(t, "2024-03-04T00:00:00Z"))
		if !eligible || next != nil {
			t.Errorf("renewalGate() = (%v, %v), want (true, nil)", eligible, next)
		}
	})
}

func TestRenewalGatePrecomputedDate(t *testing.T) {
	sched := Schedule{Frequency: FrequencyWeekly, DayOfWeek: time.Monday, Interval: defaultInterval}
	last := mustTime(t, "2024-03-04T10:00:00Z")
	// Precomputed date deliberately disagrees with the weekly math.
	renewal := mustTime(t, "2024-03-08T00:00:00Z")
	res := InteractionResult{
		LastSeen:        timePtr(last),
		NextRenewalDate: timePtr(renewal),
	}

	t.Run("before precomputed date", func(t *testing.T) {
		eligible, next := renewalGate(sched, &res, mustTime(t, "2024-03-07T00:00:00Z"))
		if eligible {
			t.Error("renewalGate() eligible = true, want false")
		}
		if next == nil || !next.Equal(renewal) {
			t.Errorf("renewalGate() next = %v, want %v", next, renewal)
		}
	})

	t.Run("at precomputed date wins over weekly recomputation", func(t *testing.T) {
		eligible, _ := renewalGate(sched, &res, mustTime(t, "2024-03-08T00:00:00Z"))
		if !eligible {
			t.Error("renewalGate() eligible = false, want true")
		}
	})
}

func TestRenewalGateCustomDates(t *testing.T) {
	sched := Schedule{
		Frequency: FrequencyCustom,
		DayOfWeek: time.Monday,
		Interval:  defaultInterval,
		Dates: []time.Time{
			mustTime(t, "2024-02-01T00:00:00Z"),
			mustTime(t, "2024-04-01T00:00:00Z"),
			mustTime(t, "2024-06-01T00:00:00Z"),
		},
	}
	last := mustTime(t, "2024-03-01T00:00:00Z")

	tests := []struct {
		name     string
		now      string
		eligible bool
		next     string
	}{
		{name: "before next configured date", now: "2024-03-15T00:00:00Z", eligible: false, next: "2024-04-01T00:00:00Z"},
		{name: "on a configured date after last interaction", now: "2024-04-01T00:00:00Z", eligible: true},
		{name: "between configured dates", now: "2024-05-01T00:00:00Z", eligible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := InteractionResult{LastSubmitted: timePtr(last)}
			eligible, next := renewalGate(sched, &res, mustTime(t, tt.now))
			if eligible != tt.eligible {
				t.Fatalf("renewalGate() eligible = %v, want %v", eligible, tt.eligible)
			}
			if tt.next != "" {
				if next == nil {
					t.Fatalf("renewalGate() next = nil, want %v", tt.next)
				}
				if want := mustTime(t, tt.next); !next.Equal(want) {
					t.Errorf("renewalGate() next = %v, want %v", next, want)
				}
			}
		})
	}

	t.Run("no dates after last interaction", func(t *testing.T) {
		res := InteractionResult{LastSubmitted: timePtr(mustTime(t, "2024-07-01T00:00:00Z"))}
		eligible, next := renewalGate(sched, &res, mustTime(t, "2024-08-01T00:00:00Z"))
		if eligible {
			t.Error("renewalGate() eligible = true, want false")
		}
		if next != nil {
			t.Errorf("renewalGate() next = %v, want nil", next)
		}
	})

	t.Run("custom without dates falls back to interval", func(t *testing.T) {
		bare := Schedule{Frequency: FrequencyCustom, DayOfWeek: time.Monday, Interval: defaultInterval}
		res := InteractionResult{LastSeen: timePtr(last)}
		eligible, _ := renewalGate(bare, &res, mustTime(t, "2024-03-05T00:00:00Z"))
		if eligible {
			t.Error("renewalGate() eligible = true, want false before interval elapses")
		}
		eligible, _ = renewalGate(bare, &res, mustTime(t, "2024-03-08T00:00:00Z"))
		if !eligible {
			t.Error("renewalGate() eligible = false, want true after interval elapses")
		}
	})
}

func TestRenewalGateInterval(t *testing.T) {
	last := mustTime(t, "2024-01-01T00:00:00Z")
	monthly := Schedule{Frequency: FrequencyMonthly, DayOfWeek: time.Monday, Interval: 30 * 24 * time.Hour}

	tests := []struct {
		name     string
		now      string
		eligible bool
	}{
		{name: "day 29 not yet due", now: "2024-01-30T00:00:00Z", eligible: false},
		{name: "day 30 due", now: "2024-01-31T00:00:00Z", eligible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := InteractionResult{LastSeen: timePtr(last)}
			eligible, next := renewalGate(monthly, &res, mustTime(t, tt.now))
			if eligible != tt.eligible {
				t.Fatalf("renewalGate() eligible = %v, want %v", eligible, tt.eligible)
			}
			if !eligible {
				want := last.Add(monthly.Interval)
				if next == nil || !next.Equal(want) {
					t.Errorf("renewalGate() next = %v, want %v", next, want)
				}
			}
		})
	}
}

func TestNextEligible(t *testing.T) {
	def := Definition{
		ID:            "n1",
		Type:          "Survey",
		DisplayConfig: &DisplayConfig{Frequency: FrequencyWeekly, DayOfWeek: "monday"},
	}
	last := mustTime(t, "2024-03-04T10:00:00Z")
	now := mustTime(t, "2024-03-06T00:00:00Z")

	t.Run("waiting item reports next instant", func(t *testing.T) {
		res := InteractionResult{LastSubmitted: timePtr(last)}
		next, ok := NextEligible(&def, &res, now)
		if !ok {
			t.Fatal("NextEligible() ok = false, want true")
		}
		if want := mustTime(t, "2024-03-11T00:00:00Z"); !next.Equal(want) {
			t.Errorf("NextEligible() = %v, want %v", next, want)
		}
	})

	t.Run("one-time has no renewal", func(t *testing.T) {
		oneTime := Definition{ID: "n2", Type: "Notification"}
		if _, ok := NextEligible(&oneTime, &InteractionResult{}, now); ok {
			t.Error("NextEligible() ok = true, want false")
		}
	})

	t.Run("never interacted has nothing to precompute", func(t *testing.T) {
		if _, ok := NextEligible(&def, &InteractionResult{}, now); ok {
			t.Error("NextEligible() ok = true, want false")
		}
	})
}
