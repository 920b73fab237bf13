package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/shopfront/internal/model"
)

var (
	queryPage     int
	queryLimit    int
	queryCategory string
	querySearch   string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print one reconciled product page as JSON",
	Example: `  shopfront query --category beauty --page 2
  shopfront query --search phone --limit 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(vc.Get(), logger)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.products.Query(cmd.Context(), model.Query{
			Page:         queryPage,
			ItemsPerPage: queryLimit,
			Category:     queryCategory,
			SearchText:   querySearch,
		})
		return printJSON(cmd, res)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the merged category list",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(vc.Get(), logger)
		if err != nil {
			return err
		}
		defer a.Close()

		return printJSON(cmd, a.products.Categories(cmd.Context()))
	},
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func init() {
	queryCmd.Flags().IntVarP(&queryPage, "page", "p", 1, "page number")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "l", 0, "items per page (default from config)")
	queryCmd.Flags().StringVar(&queryCategory, "category", "", "category slug, all for no filter")
	queryCmd.Flags().StringVarP(&querySearch, "search", "q", "", "search text")
}
