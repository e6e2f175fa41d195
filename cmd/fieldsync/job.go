package main

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/rgoodwin/fieldsync/pkg/model"
	"github.com/rgoodwin/fieldsync/pkg/store"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage dispatch jobs",
}

var jobCreateIn store.CreateJobInput

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a dispatch job",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		job, err := s.CreateJob(jobCreateIn)
		if err != nil {
			return err
		}
		return printJSON(job)
	},
}

var (
	jobListWeekStart string
	jobListWeekEnd   string
)

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, optionally limited to a week window",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		filter, err := weekFilter(jobListWeekStart, jobListWeekEnd)
		if err != nil {
			return err
		}
		jobs, err := s.Jobs(filter)
		if err != nil {
			return err
		}
		return printJSON(jobs)
	},
}

var jobAssignCmd = &cobra.Command{
	Use:   "assign JOB_ID EMPLOYEE_ID",
	Short: "Assign an employee to a job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		job, err := s.AssignJob(args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(job)
	},
}

var jobStatusCmd = &cobra.Command{
	Use:   "status JOB_ID STATUS",
	Short: "Overwrite a job's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		job, err := s.UpdateJobStatus(args[0], model.JobStatus(args[1]))
		if err != nil {
			return err
		}
		return printJSON(job)
	},
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete JOB_ID",
	Short: "Delete a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		return s.DeleteJob(args[0])
	},
}

// weekFilter builds the optional listing filter. Both bounds must be given
// together so a half-specified window fails with a usable message instead of
// a date-parse error on the empty string.
func weekFilter(start, end string) (*store.WeekFilter, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, errors.New("--week-start and --week-end must be used together")
	}
	return &store.WeekFilter{WeekStart: start, WeekEnd: end}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := jobCreateCmd.Flags()
	f.StringVar(&jobCreateIn.Title, "title", "", "job title")
	f.StringVar(&jobCreateIn.ServiceType, "service", "", "service category")
	f.IntVar(&jobCreateIn.Priority, "priority", 0, "ordinal priority")
	f.StringVar(&jobCreateIn.ScheduledDate, "date", "", "scheduled date (YYYY-MM-DD)")
	f.StringVar(&jobCreateIn.ScheduledStartTime, "start", "", "start time (HH:MM)")
	f.StringVar(&jobCreateIn.ScheduledEndTime, "end", "", "end time (HH:MM)")
	f.StringVar(&jobCreateIn.CustomerName, "customer", "", "customer name")
	f.StringVar(&jobCreateIn.CustomerPhone, "phone", "", "customer phone")
	f.StringVar(&jobCreateIn.CustomerAddress, "address", "", "customer address")
	f.StringVar(&jobCreateIn.Notes, "notes", "", "free-text notes")
	f.StringVar(&jobCreateIn.Description, "description", "", "free-text description")
	jobCreateCmd.MarkFlagRequired("date")  //nolint:errcheck
	jobCreateCmd.MarkFlagRequired("start") //nolint:errcheck
	jobCreateCmd.MarkFlagRequired("end")   //nolint:errcheck

	jobListCmd.Flags().StringVar(&jobListWeekStart, "week-start", "", "inclusive start date (YYYY-MM-DD)")
	jobListCmd.Flags().StringVar(&jobListWeekEnd, "week-end", "", "inclusive end date (YYYY-MM-DD)")

	jobCmd.AddCommand(jobCreateCmd, jobListCmd, jobAssignCmd, jobStatusCmd, jobDeleteCmd)
	rootCmd.AddCommand(jobCmd)
}
