package claims

import (
	"time"

	"github.com/google/uuid"
)

// ServicePeriod is one declared interval of active service. Periods may
// overlap; containment tests are inclusive on both ends.
type ServicePeriod struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VeteranID uuid.UUID `gorm:"type:uuid;not null;index" json:"veteran_id"`
	Veteran   *Veteran  `gorm:"constraint:OnDelete:CASCADE;foreignKey:VeteranID;references:ID" json:"veteran,omitempty"`

	Branch    string    `gorm:"column:branch" json:"branch"`
	StartDate time.Time `gorm:"column:start_date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date;not null" json:"end_date"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ServicePeriod) TableName() string { return "service_period" }

// Contains reports whether day falls inside the period, bounds inclusive.
// Only the calendar date matters; time-of-day is ignored.
func (p ServicePeriod) Contains(day time.Time) bool {
	d := truncateToDate(day)
	return !d.Before(truncateToDate(p.StartDate)) && !d.After(truncateToDate(p.EndDate))
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
