package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreviousPeriod(t *testing.T) {
	cases := []struct {
		name      string
		now       time.Time
		wantMonth int
		wantYear  int
	}{
		{"mid-month", time.Date(2025, 4, 15, 3, 0, 0, 0, time.UTC), 3, 2025},
		{"january rolls into the prior year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 12, 2024},
		{"march 31 resolves to february", time.Date(2025, 3, 31, 6, 0, 0, 0, time.UTC), 2, 2025},
		{"may 31 resolves to april", time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), 4, 2025},
		{"leap-year march 29", time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), 2, 2024},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			month, year := previousPeriod(tc.now)
			assert.Equal(t, tc.wantMonth, month)
			assert.Equal(t, tc.wantYear, year)
		})
	}
}
