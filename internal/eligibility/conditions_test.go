package eligibility

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("time.Parse(%q): %v", value, err)
	}
	return ts
}

func TestMatchConditionsLogic(t *testing.T) {
	now := mustTime(t, "2024-01-01T00:00:00Z")
	ctx := &CourseContext{
		CourseID:         "42",
		StudentTypeValue: "International",
		SchoolYearValue:  "2023-2024",
	}

	tests := []struct {
		name string
		cond Conditions
		want bool
	}{
		{
			name: "and with one failing condition",
			cond: Conditions{
				Logic:        LogicAnd,
				StudentTypes: []string{"International"},
				SchoolYears:  []string{"2019-2020"},
			},
			want: false,
		},
		{
			name: "or with one passing condition",
			cond: Conditions{
				Logic:        LogicOr,
				StudentTypes: []string{"International"},
				SchoolYears:  []string{"2019-2020"},
			},
			want: true,
		},
		{
			name: "omitted condition stays out of the and vote",
			cond: Conditions{
				Logic:        LogicAnd,
				StudentTypes: []string{"International"},
			},
			want: true,
		},
		{
			name: "omitted condition stays out of the or vote",
			cond: Conditions{
				Logic:        LogicOr,
				StudentTypes: []string{"International"},
			},
			want: true,
		},
		{
			name: "default logic is and",
			cond: Conditions{
				StudentTypes: []string{"International"},
				SchoolYears:  []string{"2019-2020"},
			},
			want: false,
		},
		{
			name: "no conditions specified never matches",
			cond: Conditions{Logic: LogicOr},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchConditions(&tt.cond, ctx, nil, now); got != tt.want {
				t.Errorf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStudentTypeFieldShapes(t *testing.T) {
	now := mustTime(t, "2024-01-01T00:00:00Z")
	cond := Conditions{StudentTypes: []string{"Domestic"}}

	tests := []struct {
		name string
		ctx  CourseContext
		want bool
	}{
		{
			name: "nested wrapper",
			ctx:  CourseContext{StudentType: &FieldValue{Value: "Domestic"}},
			want: true,
		},
		{
			name: "flat suffixed fallback",
			ctx:  CourseContext{StudentTypeValue: "Domestic"},
			want: true,
		},
		{
			name: "nested wrapper wins over flat",
			ctx: CourseContext{
				StudentType:      &FieldValue{Value: "International"},
				StudentTypeValue: "Domestic",
			},
			want: false,
		},
		{
			name: "empty nested falls back to flat",
			ctx: CourseContext{
				StudentType:      &FieldValue{},
				StudentTypeValue: "Domestic",
			},
			want: true,
		},
		{
			name: "missing field never matches",
			ctx:  CourseContext{},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchConditions(&cond, &tt.ctx, nil, now); got != tt.want {
				t.Errorf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCourseCondition(t *testing.T) {
	now := mustTime(t, "2024-01-01T00:00:00Z")
	cond := Conditions{CourseIDs: []int{101, 205}}

	tests := []struct {
		name     string
		courseID string
		want     bool
	}{
		{name: "member", courseID: "101", want: true},
		{name: "member with whitespace", courseID: " 205 ", want: true},
		{name: "not a member", courseID: "999", want: false},
		{name: "non-numeric id never matches", courseID: "abc", want: false},
		{name: "empty id never matches", courseID: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := CourseContext{CourseID: tt.courseID}
			if got := MatchConditions(&cond, &ctx, nil, now); got != tt.want {
				t.Errorf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAgeRangeBoundaries(t *testing.T) {
	now := mustTime(t, "2024-06-15T12:00:00Z")
	cond := Conditions{AgeRange: &AgeRange{Min: 18, Max: 25}}

	tests := []struct {
		name      string
		birthdate string
		want      bool
	}{
		// Exactly 18 as of now's month/day.
		{name: "exact lower boundary", birthdate: "2006-06-15", want: true},
		// Birthday is tomorrow, still 17.
		{name: "one day before boundary", birthdate: "2006-06-16", want: false},
		{name: "exact upper boundary", birthdate: "1998-06-16", want: true},
		{name: "just above upper boundary", birthdate: "1998-06-15", want: false},
		{name: "mid range", birthdate: "2003-01-20", want: true},
		{name: "unparseable birthdate", birthdate: "not-a-date", want: false},
		{name: "missing birthdate", birthdate: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{Email: "s@example.com", Birthdate: tt.birthdate}
			if got := MatchConditions(&cond, &CourseContext{}, profile, now); got != tt.want {
				t.Errorf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("nil profile never matches", func(t *testing.T) {
		if MatchConditions(&cond, &CourseContext{}, nil, now) {
			t.Error("MatchConditions() = true, want false")
		}
	})
}

func TestScheduleEndDateRange(t *testing.T) {
	now := mustTime(t, "2024-01-01T00:00:00Z")
	cond := Conditions{
		ScheduleEndDateRange: &DateRange{
			Start: mustTime(t, "2024-05-01T00:00:00Z"),
			End:   mustTime(t, "2024-05-31T00:00:00Z"),
		},
	}

	tests := []struct {
		name string
		end  string
		want bool
	}{
		{name: "inside range", end: "2024-05-15", want: true},
		{name: "start inclusive", end: "2024-05-01", want: true},
		{name: "end inclusive", end: "2024-05-31", want: true},
		{name: "time of day stripped at end", end: "2024-05-31T23:59:00Z", want: true},
		{name: "before range", end: "2024-04-30", want: false},
		{name: "after range", end: "2024-06-01", want: false},
		{name: "unparseable", end: "soon", want: false},
		{name: "missing", end: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := CourseContext{ScheduleEndDate: tt.end}
			if got := MatchConditions(&cond, &ctx, nil, now); got != tt.want {
				t.Errorf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmailAllowList(t *testing.T) {
	now := mustTime(t, "2024-01-01T00:00:00Z")
	cond := Conditions{Emails: []string{"Parent@Example.com", "other@example.com"}}

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "exact match", email: "other@example.com", want: true},
		{name: "case insensitive", email: "parent@example.COM", want: true},
		{name: "not listed", email: "stranger@example.com", want: false},
		{name: "empty email", email: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{Email: tt.email}
			if got := MatchConditions(&cond, &CourseContext{}, profile, now); got != tt.want {
				t.Errorf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryCondition(t *testing.T) {
	now := mustTime(t, "2024-01-01T00:00:00Z")
	flags := map[string]map[string]bool{
		"teacher-a@school.org": {"cat-1": true, "cat-2": false},
		"teacher-b@school.org": {"cat-3": true},
	}

	tests := []struct {
		name string
		cond []CategoryCondition
		want bool
	}{
		{
			name: "flag set",
			cond: []CategoryCondition{{TeacherKey: "teacher-a@school.org", CategoryIDs: []string{"cat-1"}}},
			want: true,
		},
		{
			name: "flag explicitly false",
			cond: []CategoryCondition{{TeacherKey: "teacher-a@school.org", CategoryIDs: []string{"cat-2"}}},
			want: false,
		},
		{
			name: "any entry suffices",
			cond: []CategoryCondition{
				{TeacherKey: "teacher-x@school.org", CategoryIDs: []string{"cat-9"}},
				{TeacherKey: "teacher-b@school.org", CategoryIDs: []string{"cat-3"}},
			},
			want: true,
		},
		{
			name: "unknown teacher",
			cond: []CategoryCondition{{TeacherKey: "teacher-x@school.org", CategoryIDs: []string{"cat-1"}}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := CourseContext{Categories: flags}
			cond := Conditions{Categories: tt.cond}
			if got := MatchConditions(&cond, &ctx, nil, now); got != tt.want {
				t.Errorf("MatchConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{name: "rfc3339", raw: "2024-03-04T10:30:00Z", ok: true},
		{name: "datetime without zone", raw: "2024-03-04T10:30:00", ok: true},
		{name: "date only", raw: "2024-03-04", ok: true},
		{name: "us slash format", raw: "03/04/2024", ok: true},
		{name: "garbage", raw: "yesterday", ok: false},
		{name: "empty", raw: "", ok: false},
		{name: "whitespace only", raw: "   ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseDate(tt.raw); ok != tt.ok {
				t.Errorf("parseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
		})
	}
}
