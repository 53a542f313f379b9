// Package history serves the most recent remote reports for correction.
package history

import (
	"context"
	"fmt"

	"afc-report-backend/internal/sheet"
)

// RecentLimit is how many reports the history list shows.
const RecentLimit = 10

// Fetcher reads every report the spreadsheet holds, oldest first.
type Fetcher interface {
	Fetch(ctx context.Context) ([]sheet.Row, error)
}

type Service struct {
	fetcher Fetcher
	limit   int
}

func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher, limit: RecentLimit}
}

// Recent returns the latest reports, newest first.
func (s *Service) Recent(ctx context.Context) ([]sheet.Row, error) {
	rows, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return LastN(rows, s.limit), nil
}

// LastN takes the last n rows and reverses them.
func LastN(rows []sheet.Row, n int) []sheet.Row {
	if n > len(rows) {
		n = len(rows)
	}
	if n < 0 {
		n = 0
	}
	out := make([]sheet.Row, 0, n)
	for i := len(rows) - 1; i >= len(rows)-n; i-- {
		out = append(out, rows[i])
	}
	return out
}
