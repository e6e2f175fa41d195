package main

import (
	"github.com/spf13/cobra"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage the dispatch roster",
}

var employeeAddID string

var employeeAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add or update a roster entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		e, err := s.UpsertEmployee(model.Employee{ID: employeeAddID, Name: args[0]})
		if err != nil {
			return err
		}
		return printJSON(e)
	},
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		return printJSON(s.Employees())
	},
}

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customer profiles",
}

var customerUpsert model.CustomerProfile

var customerUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Insert or overwrite a customer profile by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		p, err := s.UpsertCustomerProfile(customerUpsert)
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customer profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		return printJSON(s.Customers())
	},
}

func init() {
	employeeAddCmd.Flags().StringVar(&employeeAddID, "id", "", "existing id to overwrite")
	employeeCmd.AddCommand(employeeAddCmd, employeeListCmd)

	f := customerUpsertCmd.Flags()
	f.StringVar(&customerUpsert.ID, "id", "", "customer id (fresh when empty)")
	f.StringVar(&customerUpsert.Name, "name", "", "customer name")
	f.StringVar(&customerUpsert.Address, "address", "", "customer address")
	customerUpsertCmd.MarkFlagRequired("name") //nolint:errcheck
	customerCmd.AddCommand(customerUpsertCmd, customerListCmd)

	rootCmd.AddCommand(employeeCmd, customerCmd)
}
