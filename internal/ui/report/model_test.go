package report

import (
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/report"
)

func TestWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		iv       report.Interval
		offset   int
		from, to time.Time
	}{
		{"daily", report.Daily, 0,
			time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), now},
		{"daily previous page", report.Daily, 1,
			time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC), now.AddDate(0, 0, -14)},
		{"weekly", report.Weekly, 0,
			time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), now},
		{"monthly", report.Monthly, 0,
			time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := Window(now, tt.iv, tt.offset)
			if !from.Equal(tt.from) || !to.Equal(tt.to) {
				t.Errorf("Window = %v..%v, want %v..%v", from, to, tt.from, tt.to)
			}
		})
	}

	from, to := Window(now, report.Daily, 0)
	if n := len(report.Buckets(from, to, report.Daily)); n != 14 {
		t.Errorf("daily buckets = %d, want 14", n)
	}
}
