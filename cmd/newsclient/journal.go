package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/newsclient/internal/events"
	"github.com/pdiddy/newsclient/internal/render"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recorded request attempts",
	Long: `Journal prints the most recent request attempts recorded in the SQLite
journal (set with --journal or journal: in the config file) and how many
attempts were made within the --since window. Use it to see how close a key
is to the provider's request quota.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("journal")
		if path == "" {
			return fmt.Errorf("no journal configured: pass --journal or set journal in the config file")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		since, _ := cmd.Flags().GetDuration("since")
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		j, err := events.OpenJournal(path)
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if err := render.Journal(cmd.OutOrStdout(), format, entries); err != nil {
			return err
		}

		if format == render.FormatTable && since > 0 {
			n, err := j.CountSince(cmd.Context(), time.Now().Add(-since))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d attempts in the last %v\n", n, since)
		}
		return nil
	},
}

func init() {
	journalCmd.Flags().Int("limit", 20, "number of entries to show")
	journalCmd.Flags().Duration("since", 24*time.Hour, "window for the attempt count (0 disables)")
	journalCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(journalCmd)
}
