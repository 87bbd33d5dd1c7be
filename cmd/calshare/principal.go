package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/calendar-share/internal/application"
	"github.com/example/calendar-share/internal/persistence"
)

func newPrincipalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "principal",
		Short: "Manage directory principals",
	}

	var addType string
	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := application.NewDirectoryServiceWithLogger(rt.storage, rt.logger)
			principal, err := svc.CreatePrincipal(cmd.Context(), application.CreatePrincipalParams{
				Name: args[0],
				Type: persistence.PrincipalType(addType),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", principal.ID, principal.Name, principal.Type)
			return nil
		},
	}
	add.Flags().StringVarP(&addType, "type", "t", string(persistence.PrincipalIndividual), "Principal type: individual, group or resource")

	var listType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List principals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := application.NewDirectoryServiceWithLogger(rt.storage, rt.logger)
			principals, err := svc.ListPrincipals(cmd.Context(), persistence.PrincipalType(listType))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(principals) == 0 {
				fmt.Fprintln(out, "No principals.")
				return nil
			}
			for _, p := range principals {
				fmt.Fprintf(out, "%d\t%s\t%s\n", p.ID, p.Name, p.Type)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&listType, "type", "t", "", "Only list principals of this type")

	cmd.AddCommand(add, list)
	return cmd
}
