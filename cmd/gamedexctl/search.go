package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
	"github.com/kailas-cloud/gamedex/internal/domain/search/query"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search the catalog through the cache",
		Long: `Search classifies the text, fans out to the catalog, merges, filters and
caches the result exactly as the HTTP API does. The cache source of the
answer (memory, durable or live) is printed with the results.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().Int("limit", query.DefaultLimit, "maximum number of results")
	cmd.Flags().String("intent", "", "pin the intent: exact, franchise, alternative, collection, general")
	cmd.Flags().Bool("sister", false, "expand to sister titles")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd, strings.Join(args, " "))
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Search.Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON(cmd) {
		return writeJSON(out, resp)
	}
	fmt.Fprintf(out, "intent=%s outcome=%s source=%s stale=%t\n", resp.Intent, resp.Outcome, resp.Source, resp.Stale)
	return writeTable(out, resp.Items)
}

// queryFromFlags builds a validated query from text and the --limit/--intent/--sister flags.
func queryFromFlags(cmd *cobra.Command, text string) (query.Query, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	in, _ := cmd.Flags().GetString("intent")
	sister, _ := cmd.Flags().GetBool("sister")

	var opts []query.Option
	if in != "" {
		opts = append(opts, query.WithIntent(intent.Intent(in)))
	}
	if sister {
		opts = append(opts, query.WithSisterTitles())
	}
	return query.New(text, limit, opts...)
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, games []game.Game) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tRELEASED\tRATING\tPUBLISHERS")
	for i := range games {
		g := &games[i]
		released := "-"
		if g.ReleasedAt != nil {
			released = g.ReleasedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\n",
			g.ID, g.Title, released, g.TotalRating, strings.Join(g.Publishers(), ", "))
	}
	return tw.Flush()
}
