package logs

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Filter holds the optional predicates of a log listing request. Zero-value
// fields are not applied; set fields combine with logical AND.
type Filter struct {
	Type       string
	Category   string
	Status     string
	Operation  string
	HTTPMethod string
	Priority   string
	Tag        string
	Search     string // case-insensitive substring over message/entity_id/endpoint
	DateFrom   *time.Time
	DateTo     *time.Time
}

func (f Filter) keeps(e Entry) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Operation != "" && e.Operation != f.Operation {
		return false
	}
	if f.HTTPMethod != "" && e.HTTPMethod != f.HTTPMethod {
		return false
	}
	if f.Priority != "" && e.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !slices.Contains(e.Tags, f.Tag) {
		return false
	}
	if f.DateFrom != nil && e.Time.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Time.After(*f.DateTo) {
		return false
	}
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Message), s) &&
			!strings.Contains(strings.ToLower(e.EntityID), s) &&
			!strings.Contains(strings.ToLower(e.Endpoint), s) {
			return false
		}
	}
	return true
}

// Apply returns the subsequence of entries satisfying every set predicate,
// preserving the incoming order.
func (f Filter) Apply(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.keeps(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

// SortDesc orders entries newest first. The sort is stable so records with
// equal timestamps keep parse order.
func SortDesc(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.After(entries[j].Time)
	})
}

// Load reads the source, parses and classifies every record and returns the
// entries sorted newest first.
func Load(src Source) ([]Entry, error) {
	content, err := src.ReadAll()
	if err != nil {
		return nil, err
	}
	records := Parse(content)
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Classify(rec))
	}
	SortDesc(entries)
	return entries, nil
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// Paginate slices [(page-1)*perPage, page*perPage) out of entries. From/To
// are 1-based display indices, 0 when the collection is empty.
func Paginate(entries []Entry, page, perPage int) ([]Entry, Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	total := len(entries)

	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	pageData := entries[start:end]

	p := Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
	if total > 0 {
		p.From = start + 1
		p.To = end
	}
	return pageData, p
}

// AvailableFilters lists the distinct values present in the collection, in
// first-encountered order, for the listing response.
type AvailableFilters struct {
	Types       []string `json:"types"`
	Categories  []string `json:"categories"`
	Statuses    []string `json:"statuses"`
	Operations  []string `json:"operations"`
	HTTPMethods []string `json:"http_methods"`
	Priorities  []string `json:"priorities"`
	Tags        []string `json:"tags"`
}

func distinct(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func CollectFilters(entries []Entry) AvailableFilters {
	var types, categories, statuses, operations, methods, priorities, tags []string
	for _, e := range entries {
		types = append(types, e.Type)
		categories = append(categories, e.Category)
		statuses = append(statuses, e.Status)
		operations = append(operations, e.Operation)
		methods = append(methods, e.HTTPMethod)
		priorities = append(priorities, e.Priority)
		tags = append(tags, e.Tags...)
	}
	return AvailableFilters{
		Types:       distinct(types),
		Categories:  distinct(categories),
		Statuses:    distinct(statuses),
		Operations:  distinct(operations),
		HTTPMethods: distinct(methods),
		Priorities:  distinct(priorities),
		Tags:        distinct(tags),
	}
}
