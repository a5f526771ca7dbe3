package chat

import (
	"sort"
	"strings"
	"time"

	"chatsync/internal/types"
)

type Filter string

const (
	FilterAll    Filter = "all"
	FilterPinned Filter = "pinned"
	FilterSaved  Filter = "saved"
)

var filterCycle = []Filter{FilterAll, FilterPinned, FilterSaved}

func ParseFilter(raw string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterPinned:
		return FilterPinned
	case FilterSaved:
		return FilterSaved
	default:
		return FilterAll
	}
}

// Next returns the filter after f in the all, pinned, saved cycle.
func (f Filter) Next() Filter {
	for i, candidate := range filterCycle {
		if candidate == f {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return FilterAll
}

func (f Filter) Label() string {
	switch f {
	case FilterPinned:
		return "Pinned"
	case FilterSaved:
		return "Saved"
	default:
		return "All"
	}
}

func (f Filter) match(session *types.SessionSummary) bool {
	switch f {
	case FilterPinned:
		return session.Pinned
	case FilterSaved:
		return session.Saved
	default:
		return true
	}
}

const dateLayout = "2006-01-02"

// Projection is the grouped sidebar view. Older is keyed by local calendar
// date; OlderDates lists its keys newest first.
type Projection struct {
	Today      []*types.SessionSummary
	Yesterday  []*types.SessionSummary
	Older      map[string][]*types.SessionSummary
	OlderDates []string
}

func (p Projection) Len() int {
	n := len(p.Today) + len(p.Yesterday)
	for _, group := range p.Older {
		n += len(group)
	}
	return n
}

func (p Projection) Empty() bool {
	return p.Len() == 0
}

// Ordered returns the sessions in display order.
func (p Projection) Ordered() []*types.SessionSummary {
	out := make([]*types.SessionSummary, 0, p.Len())
	out = append(out, p.Today...)
	out = append(out, p.Yesterday...)
	for _, date := range p.OlderDates {
		out = append(out, p.Older[date]...)
	}
	return out
}

// Project derives the sidebar view from the session list. It keeps no state
// and returns copies, so it can be recomputed on every render.
func Project(sessions []*types.SessionSummary, filter Filter, search string, now time.Time, loc *time.Location) Projection {
	if loc == nil {
		loc = time.Local
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	matched := make([]*types.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		if session == nil || !filter.match(session) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(session.DisplayTitle()), needle) {
			continue
		}
		matched = append(matched, types.CloneSummary(session))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].ActivityAt(), matched[j].ActivityAt()
		if !a.Equal(b) {
			return a.After(b)
		}
		return matched[i].ID < matched[j].ID
	})

	today := dayStart(now.In(loc))
	yesterday := today.AddDate(0, 0, -1)
	out := Projection{Older: map[string][]*types.SessionSummary{}}
	for _, session := range matched {
		at := session.ActivityAt().In(loc)
		switch {
		case !at.Before(today):
			out.Today = append(out.Today, session)
		case !at.Before(yesterday):
			out.Yesterday = append(out.Yesterday, session)
		default:
			key := at.Format(dateLayout)
			if _, ok := out.Older[key]; !ok {
				out.OlderDates = append(out.OlderDates, key)
			}
			out.Older[key] = append(out.Older[key], session)
		}
	}
	return out
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
