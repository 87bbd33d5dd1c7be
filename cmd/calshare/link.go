package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/calendar-share/internal/application"
	httptransport "github.com/example/calendar-share/internal/http"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage calendar share links",
		Long: `Create, list and revoke share links. A link grants read access to one
calendar of a principal to anyone holding its secret.`,
	}

	var access string
	create := &cobra.Command{
		Use:   "create [principal] [calendar-id]",
		Short: "Create a share link and print its secret",
		Long: `Creates a share link for the calendar. The secret is printed once and
cannot be recovered later; only its hash is stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := application.NewShareLinkServiceWithLogger(rt.storage, nil, nil, time.Now, rt.logger)
			created, err := svc.CreateShareLink(cmd.Context(), application.CreateShareLinkParams{
				PrincipalName: args[0],
				CalendarID:    args[1],
				Access:        access,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret: %s\n", created.Secret)
			fmt.Fprintf(out, "path:   %s%s.ics\n", httptransport.SharePathPrefix, created.Secret)
			return nil
		},
	}
	create.Flags().StringVar(&access, "access", application.DefaultShareAccess, "Access level recorded in the link")

	list := &cobra.Command{
		Use:   "list [principal]",
		Short: "List share links of a principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := application.NewShareLinkServiceWithLogger(rt.storage, nil, nil, time.Now, rt.logger)
			links, err := svc.ListShareLinks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(links) == 0 {
				fmt.Fprintln(out, "No share links.")
				return nil
			}
			for _, link := range links {
				created := "-"
				if !link.CreatedAt.IsZero() {
					created = link.CreatedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(out, "calendar %s\t%s\tcreated %s\n", link.CalendarID, strings.Join(link.Fields[1:], "|"), created)
			}
			return nil
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke [principal] [calendar-id]",
		Short: "Revoke every share link of a calendar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := application.NewShareLinkServiceWithLogger(rt.storage, nil, nil, time.Now, rt.logger)
			removed, err := svc.RevokeCalendarShareLinks(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d link(s)\n", removed)
			return nil
		},
	}

	cmd.AddCommand(create, list, revoke)
	return cmd
}
