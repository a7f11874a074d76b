package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gamedex/internal/domain/search/query"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the search cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop one cached search or the whole cache",
		Long: `Clear removes the cached result of one search (--query with the same
--limit/--intent/--sister it was made with) or every cached search (--all).
The upstream quota counter is kept.`,
		Args:    cobra.NoArgs,
		PreRunE: validateClearFlags,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if all, _ := cmd.Flags().GetBool("all"); all {
				if err := a.Search.InvalidateAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "cache cleared")
				return nil
			}

			text, _ := cmd.Flags().GetString("query")
			q, err := queryFromFlags(cmd, text)
			if err != nil {
				return err
			}
			if err := a.Search.InvalidateQuery(cmd.Context(), q); err != nil {
				return err
			}
			fmt.Fprintf(out, "cleared %q (limit %d)\n", q.Text(), q.Limit())
			return nil
		},
	}
	cmd.Flags().String("query", "", "search text whose cached result is dropped")
	cmd.Flags().Int("limit", query.DefaultLimit, "limit the search was made with")
	cmd.Flags().String("intent", "", "intent the search was pinned to")
	cmd.Flags().Bool("sister", false, "whether the search expanded sister titles")
	cmd.Flags().Bool("all", false, "drop every cached search")
	return cmd
}

func validateClearFlags(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")
	hasQuery := cmd.Flags().Changed("query")
	switch {
	case all && hasQuery:
		return errors.New("--all and --query are mutually exclusive")
	case !all && !hasQuery:
		return errors.New("one of --query or --all is required")
	case hasQuery:
		text, _ := cmd.Flags().GetString("query")
		if strings.TrimSpace(text) == "" {
			return errors.New("--query must not be empty")
		}
	}
	return nil
}
