package logs

import (
	"math"
	"sort"
	"time"
)

// CountItem is a name/count pair kept in an ordered slice so count ties
// preserve first-encountered order.
type CountItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DayCount is one day of the trailing error series.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ResponseTimes summarizes entries carrying a duration.
type ResponseTimes struct {
	Average float64 `json:"average"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Count   int     `json:"count"`
}

// Stats aggregates one entry collection.
type Stats struct {
	TotalLogs     int            `json:"total_logs"`
	ByLevel       map[string]int `json:"by_level"`
	ByType        map[string]int `json:"by_type"`
	ByCategory    map[string]int `json:"by_category"`
	ByStatus      map[string]int `json:"by_status"`
	ByPriority    map[string]int `json:"by_priority"`
	ByHour        map[string]int `json:"by_hour"`
	ByDay         map[string]int `json:"by_day"`
	RecentErrors  []Entry        `json:"recent_errors"`
	TopOperations []CountItem    `json:"top_operations"`
	TopEndpoints  []CountItem    `json:"top_endpoints"`
	ResponseTimes *ResponseTimes `json:"response_times,omitempty"`
	ErrorTrends   []DayCount     `json:"error_trends"`
}

// orderedCounter counts values while remembering first-encounter order, so
// the top-N sort can break ties deterministically.
type orderedCounter struct {
	counts map[string]int
	order  []string
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: map[string]int{}}
}

func (c *orderedCounter) add(v string) {
	if v == "" {
		return
	}
	if _, seen := c.counts[v]; !seen {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *orderedCounter) top(n int) []CountItem {
	items := make([]CountItem, 0, len(c.order))
	for _, name := range c.order {
		items = append(items, CountItem{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// ComputeStats aggregates the collection. Entries are expected newest first;
// now anchors the recent-errors window and the 7-day trend.
func ComputeStats(entries []Entry, now time.Time) Stats {
	s := Stats{
		TotalLogs:    len(entries),
		ByLevel:      map[string]int{},
		ByType:       map[string]int{},
		ByCategory:   map[string]int{},
		ByStatus:     map[string]int{},
		ByPriority:   map[string]int{},
		ByHour:       map[string]int{},
		ByDay:        map[string]int{},
		RecentErrors: []Entry{},
	}

	operations := newOrderedCounter()
	endpoints := newOrderedCounter()
	var durations []int

	yesterday := now.Add(-24 * time.Hour)
	errorsByDay := map[string]int{}

	for _, e := range entries {
		s.ByLevel[e.Level]++
		s.ByType[e.Type]++
		s.ByCategory[e.Category]++
		s.ByStatus[e.Status]++
		s.ByPriority[e.Priority]++
		s.ByHour[e.Time.Format("15:00")]++
		s.ByDay[e.Time.Format("2006-01-02")]++

		operations.add(e.Operation)
		endpoints.add(e.Endpoint)

		if e.Duration != nil {
			durations = append(durations, *e.Duration)
		}
		if e.Status == "error" {
			errorsByDay[e.Time.Format("2006-01-02")]++
			if !e.Time.Before(yesterday) && len(s.RecentErrors) < 20 {
				s.RecentErrors = append(s.RecentErrors, e)
			}
		}
	}

	s.TopOperations = operations.top(10)
	s.TopEndpoints = endpoints.top(10)

	if len(durations) > 0 {
		sum, min, max := 0, durations[0], durations[0]
		for _, d := range durations {
			sum += d
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
		s.ResponseTimes = &ResponseTimes{
			Average: math.Round(float64(sum)/float64(len(durations))*100) / 100,
			Min:     min,
			Max:     max,
			Count:   len(durations),
		}
	}

	// Trailing 7 days, oldest first, zero-filled.
	s.ErrorTrends = make([]DayCount, 0, 7)
	for i := 6; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		s.ErrorTrends = append(s.ErrorTrends, DayCount{Date: date, Count: errorsByDay[date]})
	}

	return s
}
