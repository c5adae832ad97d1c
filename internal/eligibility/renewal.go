package eligibility

import "time"

// lastInteracted is the most recent of lastSubmitted, lastSeen, and every
// submittedAt/seenAt across recorded submissions. ok is false when the item
// has never been interacted with.
func lastInteracted(res *InteractionResult) (time.Time, bool) {
	var last time.Time
	var ok bool

	consider := func(t *time.Time) {
		if t == nil {
			return
		}
		if !ok || t.After(last) {
			last = *t
			ok = true
		}
	}

	consider(res.LastSubmitted)
	consider(res.LastSeen)
	for _, sub := range res.Submissions {
		consider(sub.SubmittedAt)
		consider(sub.SeenAt)
	}
	return last, ok
}

// nextWeekday is the earliest instant strictly after t whose weekday is wd.
// When t already falls on wd it advances a full week; same-day is never the
// next occurrence.
func nextWeekday(t time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	next := t.AddDate(0, 0, days)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
}

// renewalGate decides whether a repeating item is due to reappear. It returns
// eligible=true for never-interacted items. When the item is still waiting,
// next carries the computed next-eligible instant where one exists.
func renewalGate(sched Schedule, res *InteractionResult, now time.Time) (eligible bool, next *time.Time) {
	last, interacted := lastInteracted(res)
	if !interacted {
		return true, nil
	}

	// A precomputed renewal date wins over recomputation.
	if res.NextRenewalDate != nil {
		if !now.Before(*res.NextRenewalDate) {
			return true, nil
		}
		return false, res.NextRenewalDate
	}

	switch sched.Frequency {
	case FrequencyWeekly:
		occurrence := nextWeekday(last, sched.DayOfWeek)
		if !now.Before(occurrence) {
			return true, nil
		}
		return false, &occurrence

	case FrequencyCustom:
		if len(sched.Dates) > 0 {
			var upcoming *time.Time
			for i := range sched.Dates {
				d := sched.Dates[i]
				if !d.After(last) {
					continue
				}
				if !d.After(now) {
					return true, nil
				}
				if upcoming == nil || d.Before(*upcoming) {
					upcoming = &sched.Dates[i]
				}
			}
			return false, upcoming
		}
		// Custom with no configured dates degrades to the interval fallback.
		fallthrough

	default:
		if now.Sub(last) >= sched.Interval {
			return true, nil
		}
		due := last.Add(sched.Interval)
		return false, &due
	}
}

// NextEligible is the next instant a repeating item becomes displayable given
// its current interaction state, or ok=false when it is eligible now (or has
// no upcoming occurrence). Used by the renewal sweep to precompute
// nextRenewalDate.
func NextEligible(def *Definition, res *InteractionResult, now time.Time) (time.Time, bool) {
	sched := Normalize(def)
	if sched.Frequency == FrequencyOneTime || res == nil {
		return time.Time{}, false
	}
	eligible, next := renewalGate(sched, res, now)
	if eligible || next == nil {
		return time.Time{}, false
	}
	return *next, true
}
