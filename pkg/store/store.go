// Package store owns the authoritative record of dispatch jobs, the
// employee roster, and customer profiles. The collection is an in-memory
// table keyed by id behind a single RWMutex; every mutation is written
// through to an optional JSON snapshot file so the store is local-first.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

// ErrNotFound marks operations that reference an id the store does not hold.
// Callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// Store is safe for concurrent use; concurrent mutations serialize on the
// internal mutex rather than interleaving.
type Store struct {
	mu sync.RWMutex

	jobs     map[string]*model.DispatchJob
	jobOrder []string

	employees     map[string]*model.Employee
	employeeOrder []string

	customers     map[string]*model.CustomerProfile
	customerOrder []string

	path string
	log  *zap.SugaredLogger
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshotFile enables write-through persistence to path. The file is
// created on first mutation and loaded on Open when present.
func WithSnapshotFile(path string) Option {
	return func(s *Store) { s.path = path }
}

// WithLogger sets the store logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = log }
}

// Open creates a store and loads the snapshot file if one is configured and
// exists.
func Open(opts ...Option) (*Store, error) {
	s := &Store{
		jobs:      make(map[string]*model.DispatchJob),
		employees: make(map[string]*model.Employee),
		customers: make(map[string]*model.CustomerProfile),
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.path != "" {
		if _, err := os.Stat(s.path); err == nil {
			if err := s.load(); err != nil {
				return nil, errors.Wrapf(err, "loading snapshot %s", s.path)
			}
			s.log.Debugw("snapshot loaded", "path", s.path, "jobs", len(s.jobs))
		}
	}
	return s, nil
}

// CreateJobInput carries the caller-supplied fields of a new job.
type CreateJobInput struct {
	Title               string   `json:"title"`
	ServiceType         string   `json:"serviceType,omitempty"`
	Priority            int      `json:"priority"`
	ScheduledDate       string   `json:"scheduledDate"`
	ScheduledStartTime  string   `json:"scheduledStartTime"`
	ScheduledEndTime    string   `json:"scheduledEndTime"`
	AssignedEmployeeIDs []string `json:"assignedEmployeeIds,omitempty"`
	CustomerName        string   `json:"customerName,omitempty"`
	CustomerPhone       string   `json:"customerPhone,omitempty"`
	CustomerAddress     string   `json:"customerAddress,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	Description         string   `json:"description,omitempty"`
}

func (in *CreateJobInput) validate() error {
	if _, err := model.ParseDate(in.ScheduledDate); err != nil {
		return err
	}
	start, err := model.ParseTimeOfDay(in.ScheduledStartTime)
	if err != nil {
		return err
	}
	end, err := model.ParseTimeOfDay(in.ScheduledEndTime)
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return errors.Newf("scheduled start %s must be before end %s",
			in.ScheduledStartTime, in.ScheduledEndTime)
	}
	return nil
}

// CreateJob validates the scheduling fields, assigns a fresh id, and
// persists the job with status pending.
func (s *Store) CreateJob(in CreateJobInput) (*model.DispatchJob, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	job := &model.DispatchJob{
		ID:                  uuid.NewString(),
		Title:               in.Title,
		ServiceType:         in.ServiceType,
		Priority:            in.Priority,
		ScheduledDate:       in.ScheduledDate,
		ScheduledStartTime:  in.ScheduledStartTime,
		ScheduledEndTime:    in.ScheduledEndTime,
		Status:              model.StatusPending,
		AssignedEmployeeIDs: append([]string(nil), in.AssignedEmployeeIDs...),
		CustomerName:        in.CustomerName,
		CustomerPhone:       in.CustomerPhone,
		CustomerAddress:     in.CustomerAddress,
		Notes:               in.Notes,
		Description:         in.Description,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	s.jobOrder = append(s.jobOrder, job.ID)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	s.log.Debugw("job created", "id", job.ID, "date", job.ScheduledDate)
	return job.Clone(), nil
}

// WeekFilter is a closed calendar-date interval.
type WeekFilter struct {
	WeekStart string
	WeekEnd   string
}

// Jobs returns all jobs in insertion order, or only those whose
// scheduledDate falls inside the closed [WeekStart, WeekEnd] interval when a
// filter is given.
func (s *Store) Jobs(filter *WeekFilter) ([]*model.DispatchJob, error) {
	if filter != nil {
		if _, err := model.ParseDate(filter.WeekStart); err != nil {
			return nil, err
		}
		if _, err := model.ParseDate(filter.WeekEnd); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.DispatchJob, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		job := s.jobs[id]
		if filter != nil {
			// ISO dates compare correctly as strings.
			if job.ScheduledDate < filter.WeekStart || job.ScheduledDate > filter.WeekEnd {
				continue
			}
		}
		out = append(out, job.Clone())
	}
	return out, nil
}

// Job returns a single job by id.
func (s *Store) Job(id string) (*model.DispatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "job %s", id)
	}
	return job.Clone(), nil
}

// AssignJob adds employeeID to the job's assignment set (a no-op on
// membership when already present) and moves the job to assigned.
func (s *Store) AssignJob(jobID, employeeID string) (*model.DispatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "job %s", jobID)
	}

	present := false
	for _, id := range job.AssignedEmployeeIDs {
		if id == employeeID {
			present = true
			break
		}
	}
	if !present {
		job.AssignedEmployeeIDs = append(job.AssignedEmployeeIDs, employeeID)
	}
	job.Status = model.StatusAssigned

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	s.log.Debugw("job assigned", "id", jobID, "employee", employeeID)
	return job.Clone(), nil
}

// UpdateJobStatus overwrites the job's status. Completed and cancelled jobs
// may be re-opened by a further explicit update.
func (s *Store) UpdateJobStatus(jobID string, status model.JobStatus) (*model.DispatchJob, error) {
	if !status.Valid() {
		return nil, errors.Newf("unknown job status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "job %s", jobID)
	}
	job.Status = status

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	s.log.Debugw("job status updated", "id", jobID, "status", status)
	return job.Clone(), nil
}

// DeleteJob removes the job. Deleting an absent id is a no-op.
func (s *Store) DeleteJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return nil
	}
	delete(s.jobs, jobID)
	for i, id := range s.jobOrder {
		if id == jobID {
			s.jobOrder = append(s.jobOrder[:i], s.jobOrder[i+1:]...)
			break
		}
	}
	if err := s.persistLocked(); err != nil {
		return err
	}
	s.log.Debugw("job deleted", "id", jobID)
	return nil
}

// UpsertEmployee inserts or overwrites a roster entry by id. An empty id
// gets a fresh one.
func (s *Store) UpsertEmployee(e model.Employee) (*model.Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		s.employeeOrder = append(s.employeeOrder, e.ID)
	}
	cp := e
	s.employees[e.ID] = &cp

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Employees returns the roster in insertion order.
func (s *Store) Employees() []*model.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Employee, 0, len(s.employeeOrder))
	for _, id := range s.employeeOrder {
		cp := *s.employees[id]
		out = append(out, &cp)
	}
	return out
}

// UpsertCustomerProfile inserts the profile if its id is new, otherwise
// overwrites the stored fields. Repeated upserts with the same id never
// duplicate.
func (s *Store) UpsertCustomerProfile(p model.CustomerProfile) (*model.CustomerProfile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[p.ID]; !ok {
		s.customerOrder = append(s.customerOrder, p.ID)
	}
	cp := p
	s.customers[p.ID] = &cp

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Customers returns customer profiles in insertion order.
func (s *Store) Customers() []*model.CustomerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.CustomerProfile, 0, len(s.customerOrder))
	for _, id := range s.customerOrder {
		cp := *s.customers[id]
		out = append(out, &cp)
	}
	return out
}

// Reset drops all local state.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]*model.DispatchJob)
	s.jobOrder = nil
	s.employees = make(map[string]*model.Employee)
	s.employeeOrder = nil
	s.customers = make(map[string]*model.CustomerProfile)
	s.customerOrder = nil
	return s.persistLocked()
}

// persistLocked writes the snapshot file. Callers hold the write lock.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	snap := s.snapshotLocked()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrap(err, "creating snapshot directory")
	}
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrap(err, "creating snapshot file")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(snap), "encoding snapshot")
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return err
	}
	s.replaceLocked(&snap)
	return nil
}
