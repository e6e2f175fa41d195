package model

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a dispatch job.
//
// pending -> assigned happens via assignment; any job may be moved to
// completed or cancelled by an explicit status update. Completed and
// cancelled are not enforced as terminal: an explicit update can re-open a
// job, matching dispatcher expectations when work is rescheduled.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusAssigned  JobStatus = "assigned"
	StatusCompleted JobStatus = "completed"
	StatusCancelled JobStatus = "cancelled"
)

// Valid reports whether s is one of the defined lifecycle states.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Service categories used by dispatchers. Stored as plain strings so an
// unknown category round-trips through backup and migration untouched.
const (
	ServicePlumbing    = "plumbing"
	ServiceElectrical  = "electrical"
	ServiceHVAC        = "hvac"
	ServiceInspection  = "inspection"
	ServiceMaintenance = "maintenance"
)

const (
	// DateLayout is the calendar-date encoding used on the wire and in the
	// local snapshot (ISO 8601 date).
	DateLayout = "2006-01-02"
	// TimeLayout is the local time-of-day encoding (24h wall clock).
	TimeLayout = "15:04"
)

// DispatchJob is a scheduled unit of field work.
type DispatchJob struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	ServiceType         string    `json:"serviceType,omitempty"`
	Priority            int       `json:"priority"`
	ScheduledDate       string    `json:"scheduledDate"`
	ScheduledStartTime  string    `json:"scheduledStartTime"`
	ScheduledEndTime    string    `json:"scheduledEndTime"`
	Status              JobStatus `json:"status"`
	AssignedEmployeeIDs []string  `json:"assignedEmployeeIds"`
	CustomerName        string    `json:"customerName,omitempty"`
	CustomerPhone       string    `json:"customerPhone,omitempty"`
	CustomerAddress     string    `json:"customerAddress,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	Description         string    `json:"description,omitempty"`
}

// Clone returns a deep copy so store internals never leak to callers.
func (j *DispatchJob) Clone() *DispatchJob {
	cp := *j
	cp.AssignedEmployeeIDs = append([]string(nil), j.AssignedEmployeeIDs...)
	return &cp
}

// StartEnd resolves the job's wall-clock window in loc.
func (j *DispatchJob) StartEnd(loc *time.Location) (start, end time.Time, err error) {
	start, err = ParseLocal(j.ScheduledDate, j.ScheduledStartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = ParseLocal(j.ScheduledDate, j.ScheduledEndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ParseDate parses an ISO calendar date ("2026-02-16").
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want %s): %w", s, DateLayout, err)
	}
	return t, nil
}

// ParseTimeOfDay parses a local wall-clock time ("09:30").
func ParseTimeOfDay(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want %s): %w", s, TimeLayout, err)
	}
	return t, nil
}

// ParseLocal combines a calendar date and a wall-clock time into a moment
// in loc.
func ParseLocal(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseTimeOfDay(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

// Employee is a member of the dispatch roster.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomerProfile is a customer record, upserted by id.
type CustomerProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// GeoPoint is a latitude/longitude pair produced by geocoding. Ephemeral;
// never persisted by the store.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
