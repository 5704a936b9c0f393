package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"todopro/internal/model"
	"todopro/internal/service"
)

var reportAs string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the derived task reports",
}

var reportExpiredCmd = &cobra.Command{
	Use:   "expired",
	Short: "List expired tasks of every user",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		tasks, err := app.reports.Expired(cmd.Context())
		if err != nil {
			return err
		}
		return writeExpired(cmd.OutOrStdout(), tasks, app.loc)
	},
}

var reportIdleCmd = &cobra.Command{
	Use:   "idle-users",
	Short: "List users without tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		caller, err := app.accounts.FindByUsername(ctx, reportAs)
		if err != nil {
			return fmt.Errorf("user %q: %w", reportAs, err)
		}
		report, err := app.reports.UsersWithoutTasks(ctx, caller)
		if err != nil {
			return err
		}
		return writeIdleUsers(cmd.OutOrStdout(), *report)
	},
}

func init() {
	reportIdleCmd.Flags().StringVar(&reportAs, "as", "", "superuser running the report")
	_ = reportIdleCmd.MarkFlagRequired("as")

	reportCmd.AddCommand(reportExpiredCmd)
	reportCmd.AddCommand(reportIdleCmd)
}

func writeExpired(out io.Writer, tasks []model.Task, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOWNER\tTITLE\tDUE")
	for _, task := range tasks {
		owner := "-"
		if task.UserID != nil {
			owner = fmt.Sprint(*task.UserID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", task.ID, owner, task.Title, task.DueDate.In(loc).Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d expired task(s).\n", len(tasks))
	return err
}

func writeIdleUsers(out io.Writer, report service.IdleUsersReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL")
	for _, user := range report.Users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", user.ID, user.Username, user.FullName(), user.Email)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if msg, ok := service.IdleUsersSummary(report); ok {
		_, err := fmt.Fprintln(out, msg.Text)
		return err
	}
	return nil
}
