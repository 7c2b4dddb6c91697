package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"solvo/internal/domain/performance"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/jobs"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users that own a stored workspace",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		users, err := app.Workspace.Users(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range users {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Print the current week's KPI score for every member",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Workspace.State(cmd.Context(), userID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MEMBER\tSCORE\tPREVIOUS\tBAND")
		for _, m := range s.TeamMembers {
			score := performance.CalculateScore(m.ID, s.KpiGroups, s.KpiProgress, s.TeamMembers)
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", m.Name, score, m.PreviousPerformanceScore, performance.Band(score))
		}
		return tw.Flush()
	},
}

var endWeekAt string

var endWeekCmd = &cobra.Command{
	Use:   "end-week",
	Short: "Archive the week and reset actuals",
	Long: `Archive a snapshot for every member, record ranks, and reset the
week's actuals. Without --at the current week is closed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		loc, err := app.Config.Location()
		if err != nil {
			return err
		}
		at := time.Now().In(loc)
		if endWeekAt != "" {
			at, err = time.ParseInLocation(performance.DateLayout, endWeekAt, loc)
			if err != nil {
				return fmt.Errorf("--at must be YYYY-MM-DD: %w", err)
			}
		}
		details, err := app.Jobs.RunNow(cmd.Context(), jobs.JobEndWeek, userID, jobs.EndWeekFunc(app.Workspace, userID, at))
		if err != nil {
			return err
		}
		return printJSON(cmd, details)
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the workspace export document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		doc, err := app.Workspace.Export(cmd.Context(), userID)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		return os.WriteFile(exportOut, data, 0o600)
	},
}

var (
	importIn      string
	importConfirm bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the workspace with an export document",
	Long: `Replace every collection of the workspace with the contents of an
export document. The current workspace is backed up first. The command
refuses to run without --confirm.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		if importIn == "" {
			return fmt.Errorf("--in is required")
		}
		raw, err := os.ReadFile(importIn)
		if err != nil {
			return err
		}
		var doc workspace.Export
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode %s: %w", importIn, err)
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Workspace.Import(cmd.Context(), userID, doc, importConfirm)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"backupId":  res.BackupID,
			"persisted": res.Persisted,
			"members":   len(res.State.TeamMembers),
		})
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List workspace backups taken before imports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		list, err := app.Workspace.Backups(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	},
}

func init() {
	endWeekCmd.Flags().StringVar(&endWeekAt, "at", "", "any date inside the week to close (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	importCmd.Flags().StringVarP(&importIn, "in", "i", "", "export document to import")
	importCmd.Flags().BoolVar(&importConfirm, "confirm", false, "confirm replacing the workspace")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
