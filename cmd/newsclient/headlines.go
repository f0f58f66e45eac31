package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/newsclient/internal/render"
)

var headlinesCmd = &cobra.Command{
	Use:   "headlines",
	Short: "List top headlines for a region",
	Long: `Headlines lists the provider's current top headlines for a two-letter
region code (default us). Unknown codes are sent as-is; the provider's
rejection is reported with exit code 3.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		cfg, err := clientConfig()
		if err != nil {
			return err
		}
		client, cleanup, err := newClient(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := client.TopHeadlines(cmd.Context(), region)
		if err != nil {
			return err
		}
		return render.Result(cmd.OutOrStdout(), format, res, 0, 0)
	},
}

func init() {
	headlinesCmd.Flags().String("region", "us", "two-letter region code")
	headlinesCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(headlinesCmd)
}
