package claims

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestServicePeriodContains_BoundsInclusive(t *testing.T) {
	p := ServicePeriod{
		StartDate: day(2010, time.March, 1),
		EndDate:   day(2014, time.March, 1),
	}

	if !p.Contains(day(2010, time.March, 1)) {
		t.Fatalf("visit on start date should be in service")
	}
	if !p.Contains(day(2014, time.March, 1)) {
		t.Fatalf("visit on end date should be in service")
	}
	if !p.Contains(day(2012, time.July, 4)) {
		t.Fatalf("visit inside period should be in service")
	}
	if p.Contains(day(2010, time.February, 28)) {
		t.Fatalf("visit the day before start should not be in service")
	}
	if p.Contains(day(2014, time.March, 2)) {
		t.Fatalf("visit the day after end should not be in service")
	}
}

func TestServicePeriodContains_IgnoresTimeOfDay(t *testing.T) {
	p := ServicePeriod{
		StartDate: time.Date(2010, time.March, 1, 14, 30, 0, 0, time.UTC),
		EndDate:   time.Date(2014, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	// A visit early on the start date is still in service even though the
	// stored start carries a later clock time.
	if !p.Contains(time.Date(2010, time.March, 1, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("time-of-day should not affect containment")
	}
	if !p.Contains(time.Date(2014, time.March, 1, 23, 59, 0, 0, time.UTC)) {
		t.Fatalf("late visit on the end date should still be in service")
	}
}
