package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

// RemoteStore upserts rows by id into a named remote collection. Implemented
// by supabase.Client.
type RemoteStore interface {
	Upsert(ctx context.Context, table string, rows any) error
}

// MigrationCounts reports rows pushed per entity type.
type MigrationCounts struct {
	Employees int `json:"employees"`
	Customers int `json:"customers"`
	Jobs      int `json:"jobs"`
}

// Remote row shapes use the relational column names. Assigned employee ids
// ride along as a JSON array column.
type employeeRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type customerRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type jobRow struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	ServiceType         string   `json:"service_type,omitempty"`
	Priority            int      `json:"priority"`
	ScheduledDate       string   `json:"scheduled_date"`
	ScheduledStartTime  string   `json:"scheduled_start_time"`
	ScheduledEndTime    string   `json:"scheduled_end_time"`
	Status              string   `json:"status"`
	AssignedEmployeeIDs []string `json:"assigned_employee_ids"`
	CustomerName        string   `json:"customer_name,omitempty"`
	CustomerPhone       string   `json:"customer_phone,omitempty"`
	CustomerAddress     string   `json:"customer_address,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	Description         string   `json:"description,omitempty"`
}

// MigrateRemote pushes every locally stored employee, customer profile, and
// job to the remote store with upsert-by-id semantics, so repeated runs
// converge instead of duplicating. Nothing is ever deleted remotely.
func (s *Store) MigrateRemote(ctx context.Context, remote RemoteStore) (MigrationCounts, error) {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	var counts MigrationCounts

	if len(snap.Employees) > 0 {
		rows := make([]employeeRow, 0, len(snap.Employees))
		for _, e := range snap.Employees {
			rows = append(rows, employeeRow{ID: e.ID, Name: e.Name})
		}
		if err := remote.Upsert(ctx, "employees", rows); err != nil {
			return counts, errors.Wrap(err, "migrating employees")
		}
		counts.Employees = len(rows)
	}

	if len(snap.Customers) > 0 {
		rows := make([]customerRow, 0, len(snap.Customers))
		for _, p := range snap.Customers {
			rows = append(rows, customerRow{ID: p.ID, Name: p.Name, Address: p.Address})
		}
		if err := remote.Upsert(ctx, "customer_profiles", rows); err != nil {
			return counts, errors.Wrap(err, "migrating customer profiles")
		}
		counts.Customers = len(rows)
	}

	if len(snap.Jobs) > 0 {
		rows := make([]jobRow, 0, len(snap.Jobs))
		for _, j := range snap.Jobs {
			rows = append(rows, toJobRow(j))
		}
		if err := remote.Upsert(ctx, "dispatch_jobs", rows); err != nil {
			return counts, errors.Wrap(err, "migrating jobs")
		}
		counts.Jobs = len(rows)
	}

	s.log.Infow("remote migration complete",
		"employees", counts.Employees, "customers", counts.Customers, "jobs", counts.Jobs)
	return counts, nil
}

func toJobRow(j *model.DispatchJob) jobRow {
	ids := j.AssignedEmployeeIDs
	if ids == nil {
		ids = []string{}
	}
	return jobRow{
		ID:                  j.ID,
		Title:               j.Title,
		ServiceType:         j.ServiceType,
		Priority:            j.Priority,
		ScheduledDate:       j.ScheduledDate,
		ScheduledStartTime:  j.ScheduledStartTime,
		ScheduledEndTime:    j.ScheduledEndTime,
		Status:              string(j.Status),
		AssignedEmployeeIDs: ids,
		CustomerName:        j.CustomerName,
		CustomerPhone:       j.CustomerPhone,
		CustomerAddress:     j.CustomerAddress,
		Notes:               j.Notes,
		Description:         j.Description,
	}
}
