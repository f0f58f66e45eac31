package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/newsclient/internal/newsapi"
	"github.com/pdiddy/newsclient/internal/render"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search all articles by keyword",
	Long: `Search runs a full-text query against every article the provider indexes
and prints one page of results. Request further pages with --page; the
client never fetches more than the page asked for.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
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

		res, err := client.Search(cmd.Context(), query, page, pageSize)
		if err != nil {
			return err
		}
		return render.Result(cmd.OutOrStdout(), format, res, page, pageSize)
	},
}

func init() {
	searchCmd.Flags().StringP("query", "q", "", "keywords or phrase to search for")
	searchCmd.Flags().Int("page", newsapi.DefaultPage, "page number, starting at 1")
	searchCmd.Flags().Int("page-size", newsapi.DefaultPageSize, "articles per page (max 100)")
	searchCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(searchCmd)
}
