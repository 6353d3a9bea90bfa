package logs

import (
	"math"
	"sort"
	"time"
)

func absDiff(a, b time.Time) time.Duration {
	return time.Duration(math.Abs(float64(a.Sub(b))))
}

// Related finds entries connected to current: same entity id, else same
// endpoint within 5 minutes, else same user within 10 minutes. Newest first,
// capped at 10.
func Related(all []Entry, current Entry) []Entry {
	var related []Entry

	if current.EntityID != "" {
		for _, e := range all {
			if e.EntityID == current.EntityID && e.ID != current.ID {
				related = append(related, e)
			}
		}
	}
	if len(related) == 0 && current.Endpoint != "" {
		for _, e := range all {
			if e.Endpoint == current.Endpoint && e.ID != current.ID &&
				absDiff(e.Time, current.Time) < 5*time.Minute {
				related = append(related, e)
			}
		}
	}
	if len(related) == 0 && current.UserID != "" {
		for _, e := range all {
			if e.UserID == current.UserID && e.ID != current.ID &&
				absDiff(e.Time, current.Time) < 10*time.Minute {
				related = append(related, e)
			}
		}
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Time.After(related[j].Time)
	})
	if len(related) > 10 {
		related = related[:10]
	}
	return related
}

// Context holds the entries surrounding one entry in time.
type Context struct {
	Before []Entry `json:"before"`
	After  []Entry `json:"after"`
}

// ContextAround collects entries within 5 minutes before and after current,
// 5 each: before newest first, after oldest first.
func ContextAround(all []Entry, current Entry) Context {
	ctx := Context{Before: []Entry{}, After: []Entry{}}
	for _, e := range all {
		diff := e.Time.Sub(current.Time)
		if diff < 0 && diff > -5*time.Minute {
			ctx.Before = append(ctx.Before, e)
		} else if diff > 0 && diff < 5*time.Minute {
			ctx.After = append(ctx.After, e)
		}
	}
	sort.SliceStable(ctx.Before, func(i, j int) bool {
		return ctx.Before[i].Time.After(ctx.Before[j].Time)
	})
	sort.SliceStable(ctx.After, func(i, j int) bool {
		return ctx.After[i].Time.Before(ctx.After[j].Time)
	})
	if len(ctx.Before) > 5 {
		ctx.Before = ctx.Before[:5]
	}
	if len(ctx.After) > 5 {
		ctx.After = ctx.After[:5]
	}
	return ctx
}
