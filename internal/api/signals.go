package api

import (
	"context"
	"sort"

	"triage/internal/feedback"
)

// EntryReader abstracts feedback persistence interactions needed for signal
// queries.
type EntryReader interface {
	SelectAll(ctx context.Context) ([]feedback.Entry, error)
}

// SignalService exposes read-only feedback queries returning API DTOs.
type SignalService struct {
	store EntryReader
}

// NewSignalService constructs a SignalService around the provided reader.
func NewSignalService(store EntryReader) *SignalService {
	if store == nil {
		return nil
	}
	return &SignalService{store: store}
}

// PriorityQueue returns urgent negative entries, newest first. Urgent means
// high or critical urgency; both filters tolerate cased input in storage.
func (s *SignalService) PriorityQueue(ctx context.Context) ([]feedback.Entry, error) {
	entries, err := s.store.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	priority := make([]feedback.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsPriority() {
			priority = append(priority, entry)
		}
	}
	sort.SliceStable(priority, func(i, j int) bool {
		return priority[i].CreatedAt.After(priority[j].CreatedAt)
	})
	return priority, nil
}

// Signals builds the full dashboard payload: aggregate counters plus the
// priority queue.
func (s *SignalService) Signals(ctx context.Context) (SignalsResponse, error) {
	entries, err := s.store.SelectAll(ctx)
	if err != nil {
		return SignalsResponse{}, err
	}

	resp := SignalsResponse{
		Total:         len(entries),
		TopCategories: topCategories(entries, 3),
	}

	priority := make([]feedback.Entry, 0, len(entries))
	for _, entry := range entries {
		if urgency, ok := feedback.ParseUrgency(string(entry.Urgency)); ok && feedback.IsUrgent(urgency) {
			resp.UrgentCount++
		}
		if entry.IsPriority() {
			priority = append(priority, entry)
		}
	}
	sort.SliceStable(priority, func(i, j int) bool {
		return priority[i].CreatedAt.After(priority[j].CreatedAt)
	})

	resp.Priority = make([]SignalEntry, 0, len(priority))
	for _, entry := range priority {
		resp.Priority = append(resp.Priority, FromEntry(entry))
	}
	return resp, nil
}

// topCategories ranks categories by frequency. Ties break toward the category
// seen first in storage order.
func topCategories(entries []feedback.Entry, limit int) []CategoryCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, entry := range entries {
		if entry.Category == "" {
			continue
		}
		if _, seen := counts[entry.Category]; !seen {
			firstSeen[entry.Category] = order
			order++
		}
		counts[entry.Category]++
	}

	ranked := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		ranked = append(ranked, CategoryCount{Category: category, Count: count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Category] < firstSeen[ranked[j].Category]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
