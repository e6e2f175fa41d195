package store

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

// Snapshot is the self-contained backup envelope. It is only consumed by
// ImportBackup; no external format guarantee is made beyond the version
// field.
type Snapshot struct {
	Version    int                      `json:"version"`
	ExportedAt time.Time                `json:"exportedAt"`
	Jobs       []*model.DispatchJob     `json:"jobs"`
	Employees  []*model.Employee        `json:"employees"`
	Customers  []*model.CustomerProfile `json:"customers"`
}

const snapshotVersion = 1

// ExportBackup serializes the complete local state.
func (s *Store) ExportBackup() ([]byte, error) {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()
	return json.MarshalIndent(snap, "", "  ")
}

// ImportBackup fully replaces local state with the snapshot's contents.
// It is a replace, not a merge: jobs absent from the snapshot are gone
// afterwards.
func (s *Store) ImportBackup(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "decoding backup")
	}
	if snap.Version != snapshotVersion {
		return errors.Newf("unsupported backup version %d", snap.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(&snap)
	if err := s.persistLocked(); err != nil {
		return err
	}
	s.log.Infow("backup imported",
		"jobs", len(snap.Jobs), "employees", len(snap.Employees), "customers", len(snap.Customers))
	return nil
}

// snapshotLocked copies current state into a Snapshot. Callers hold at
// least the read lock.
func (s *Store) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Version:    snapshotVersion,
		ExportedAt: time.Now().UTC(),
		Jobs:       make([]*model.DispatchJob, 0, len(s.jobOrder)),
		Employees:  make([]*model.Employee, 0, len(s.employeeOrder)),
		Customers:  make([]*model.CustomerProfile, 0, len(s.customerOrder)),
	}
	for _, id := range s.jobOrder {
		snap.Jobs = append(snap.Jobs, s.jobs[id].Clone())
	}
	for _, id := range s.employeeOrder {
		cp := *s.employees[id]
		snap.Employees = append(snap.Employees, &cp)
	}
	for _, id := range s.customerOrder {
		cp := *s.customers[id]
		snap.Customers = append(snap.Customers, &cp)
	}
	return snap
}

// replaceLocked swaps all state for the snapshot's contents. Callers hold
// the write lock.
func (s *Store) replaceLocked(snap *Snapshot) {
	s.jobs = make(map[string]*model.DispatchJob, len(snap.Jobs))
	s.jobOrder = s.jobOrder[:0]
	for _, job := range snap.Jobs {
		s.jobs[job.ID] = job.Clone()
		s.jobOrder = append(s.jobOrder, job.ID)
	}

	s.employees = make(map[string]*model.Employee, len(snap.Employees))
	s.employeeOrder = s.employeeOrder[:0]
	for _, e := range snap.Employees {
		cp := *e
		s.employees[e.ID] = &cp
		s.employeeOrder = append(s.employeeOrder, e.ID)
	}

	s.customers = make(map[string]*model.CustomerProfile, len(snap.Customers))
	s.customerOrder = s.customerOrder[:0]
	for _, p := range snap.Customers {
		cp := *p
		s.customers[p.ID] = &cp
		s.customerOrder = append(s.customerOrder, p.ID)
	}
}
