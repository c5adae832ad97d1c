// Package eligibility decides, per (student, course, definition) triple,
// whether a notification or survey should currently be shown. Every entry
// point is a pure function of its inputs and an injected clock; nothing here
// does I/O or keeps state between calls, so callers may evaluate any number
// of pairs concurrently.
package eligibility

import "time"

const (
	ReasonEligible        = "eligible"
	ReasonNoMatch         = "conditions did not match"
	ReasonSurveyCompleted = "one-time survey completed"
	ReasonAcknowledged    = "one-time notification already acknowledged"
	ReasonAwaitingRenewal = "awaiting renewal"
)

// Evaluate runs the full decision for one definition against one course
// context. globallySeen is the caller-supplied per-student seen flag for this
// definition id (kept outside per-course results). now is the evaluation
// clock; the function never reads the system clock.
func Evaluate(def *Definition, ctx *CourseContext, profile *Profile, globallySeen bool, now time.Time) Result {
	sched := Normalize(def)
	res := ctx.Result(def.ID)

	out := Result{}
	if res != nil {
		out.SurveyCompleted = res.Completed
		out.SurveyAnswers = res.Answers
		out.SurveyCompletedAt = res.CompletedAt
	}

	// One-time items that were already resolved never come back.
	if sched.Frequency == FrequencyOneTime {
		switch sched.Category {
		case CategorySurvey:
			if res != nil && res.Completed {
				out.Reason = ReasonSurveyCompleted
				return out
			}
		case CategoryNotification:
			if globallySeen || (res != nil && (res.HasAcknowledged || res.Acknowledged)) {
				out.Reason = ReasonAcknowledged
				return out
			}
		}
	}

	if sched.Frequency != FrequencyOneTime && res != nil {
		eligible, next := renewalGate(sched, res, now)
		if !eligible {
			out.Reason = ReasonAwaitingRenewal
			out.NextAvailableDate = next
			return out
		}
	}

	if !MatchConditions(&def.Conditions, ctx, profile, now) {
		out.Reason = ReasonNoMatch
		return out
	}

	// Matched repeating items display even when a prior pass completed them;
	// the renewal gate above already decided the re-ask is due.
	out.IsMatch = true
	out.ShouldDisplay = true
	out.Reason = ReasonEligible
	return out
}

// EvaluateAll folds Evaluate over every definition for every course context
// and groups the verdicts by course id. It adds no policy of its own; callers
// filter on ShouldDisplay.
func EvaluateAll(defs []*Definition, contexts []*CourseContext, profile *Profile, seen map[string]bool, now time.Time) map[string][]CourseResult {
	results := make(map[string][]CourseResult, len(contexts))
	for _, ctx := range contexts {
		verdicts := make([]CourseResult, 0, len(defs))
		for _, def := range defs {
			r := Evaluate(def, ctx, profile, seen[def.ID], now)
			verdicts = append(verdicts, CourseResult{Definition: def, Result: r})
		}
		results[ctx.CourseID] = verdicts
	}
	return results
}
