package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// PeriodIndex collapses a (year, month) pair into a single comparable ordinal.
// Month is 1-based.
func PeriodIndex(year, month int) int {
	return year*12 + month - 1
}
