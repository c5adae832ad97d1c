package eligibility

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

type ConditionType string

const (
	ConditionStudentType          ConditionType = "student_type"
	ConditionDiplomaMonth         ConditionType = "diploma_month"
	ConditionCourse               ConditionType = "course"
	ConditionSchoolYear           ConditionType = "school_year"
	ConditionScheduleEndDateRange ConditionType = "schedule_end_date_range"
	ConditionAgeRange             ConditionType = "age_range"
	ConditionEmail                ConditionType = "email"
	ConditionCategory             ConditionType = "category"
	ConditionActiveFutureArchived ConditionType = "active_future_archived"
)

// specifiedConditions lists the condition types a definition actually set.
// Unset conditions are omitted from the AND/OR vote entirely.
func specifiedConditions(c *Conditions) []ConditionType {
	var specified []ConditionType
	if len(c.StudentTypes) > 0 {
		specified = append(specified, ConditionStudentType)
	}
	if len(c.DiplomaMonths) > 0 {
		specified = append(specified, ConditionDiplomaMonth)
	}
	if len(c.CourseIDs) > 0 {
		specified = append(specified, ConditionCourse)
	}
	if len(c.SchoolYears) > 0 {
		specified = append(specified, ConditionSchoolYear)
	}
	if c.ScheduleEndDateRange != nil {
		specified = append(specified, ConditionScheduleEndDateRange)
	}
	if c.AgeRange != nil {
		specified = append(specified, ConditionAgeRange)
	}
	if len(c.Emails) > 0 {
		specified = append(specified, ConditionEmail)
	}
	if len(c.Categories) > 0 {
		specified = append(specified, ConditionCategory)
	}
	if len(c.ActiveFutureArchived) > 0 {
		specified = append(specified, ConditionActiveFutureArchived)
	}
	return specified
}

// MatchConditions runs every specified condition against the context/profile
// pair and combines the outcomes with the definition's logic operator (AND by
// default). A definition with no specified conditions never matches.
// Evaluators never fail: a missing or malformed field is a non-match for that
// condition only.
func MatchConditions(c *Conditions, ctx *CourseContext, profile *Profile, now time.Time) bool {
	specified := specifiedConditions(c)
	if len(specified) == 0 {
		return false
	}

	anyMatch := strings.EqualFold(string(c.Logic), string(LogicOr))
	for _, ct := range specified {
		matched := evaluateCondition(ct, c, ctx, profile, now)
		if anyMatch && matched {
			return true
		}
		if !anyMatch && !matched {
			return false
		}
	}
	return !anyMatch
}

func evaluateCondition(ct ConditionType, c *Conditions, ctx *CourseContext, profile *Profile, now time.Time) bool {
	switch ct {
	case ConditionStudentType:
		return memberOf(c.StudentTypes, ctx.studentType())
	case ConditionDiplomaMonth:
		return memberOf(c.DiplomaMonths, ctx.diplomaMonth())
	case ConditionCourse:
		id, err := strconv.Atoi(strings.TrimSpace(ctx.CourseID))
		if err != nil {
			return false
		}
		return slices.Contains(c.CourseIDs, id)
	case ConditionSchoolYear:
		return memberOf(c.SchoolYears, ctx.schoolYear())
	case ConditionScheduleEndDateRange:
		return scheduleEndInRange(c.ScheduleEndDateRange, ctx.ScheduleEndDate)
	case ConditionAgeRange:
		return ageInRange(c.AgeRange, profile, now)
	case ConditionEmail:
		return emailAllowed(c.Emails, profile)
	case ConditionCategory:
		return hasCategoryFlag(c.Categories, ctx.Categories)
	case ConditionActiveFutureArchived:
		return memberOf(c.ActiveFutureArchived, ctx.enrollmentStatus())
	default:
		slog.Warn("unknown condition type", "type", string(ct))
		return false
	}
}

func memberOf(set []string, value string) bool {
	if value == "" {
		return false
	}
	return slices.Contains(set, value)
}

func scheduleEndInRange(r *DateRange, raw string) bool {
	d, ok := parseDate(raw)
	if !ok {
		return false
	}
	d = truncateToDay(d)
	start := truncateToDay(r.Start)
	end := truncateToDay(r.End)
	return !d.Before(start) && !d.After(end)
}

func ageInRange(r *AgeRange, profile *Profile, now time.Time) bool {
	if profile == nil {
		return false
	}
	birth, ok := parseDate(profile.Birthdate)
	if !ok {
		return false
	}
	age := ageYears(birth, now)
	return age >= r.Min && age <= r.Max
}

// ageYears is whole years elapsed, dropping one if now's month/day precedes
// the birthday's month/day.
func ageYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

func emailAllowed(allowed []string, profile *Profile) bool {
	if profile == nil || profile.Email == "" {
		return false
	}
	for _, email := range allowed {
		if strings.EqualFold(email, profile.Email) {
			return true
		}
	}
	return false
}

// hasCategoryFlag is true when any requested (teacherKey, categoryID) pair
// has a truthy flag on the context.
func hasCategoryFlag(wanted []CategoryCondition, flags map[string]map[string]bool) bool {
	if len(flags) == 0 {
		return false
	}
	for _, cc := range wanted {
		teacherFlags, ok := flags[cc.TeacherKey]
		if !ok {
			continue
		}
		for _, id := range cc.CategoryIDs {
			if teacherFlags[id] {
				return true
			}
		}
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// parseDate accepts the handful of date formats seen in stored documents.
// Anything else reads as absent.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
