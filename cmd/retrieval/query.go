package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/catalog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/normalize"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/metrics"
)

type queryOptions struct {
	limit int
	json  bool
}

func newSearchCmd(a *app) *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank documents by cosine similarity to a free-text query",
		Example: `  retrieval search "solar panel efficiency"
  retrieval search -n 3 --json cats and dogs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			limit := opts.limit
			if limit <= 0 {
				limit = a.cfg.Search.DefaultLimit
			}
			results, err := svc.Search(cmd.Context(), strings.Join(args, " "), min(limit, a.cfg.Search.MaxResults))
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "maximum number of results (search.defaultLimit when 0)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	return cmd
}

func newBooleanCmd(a *app) *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "boolean <expression>",
		Short: "Evaluate an and/or/not expression against the inverted index",
		Example: `  retrieval boolean "cat and not dog"
  retrieval boolean '(cat or fish) and "and"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			matches, err := svc.Boolean(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				var syn *boolean.SyntaxError
				if errors.As(err, &syn) {
					printSyntaxError(cmd.ErrOrStderr(), syn)
				}
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), matches)
			}
			printMatches(cmd.OutOrStdout(), matches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print matches as JSON")
	return cmd
}

// openService loads a snapshot once for a single CLI query. The returned
// func releases the Redis connection, if any.
func openService(ctx context.Context, cfg *config.Config) (*service.Service, func(), error) {
	m := metrics.NewNop()
	rc := openRedis(cfg)
	closeFn := func() {
		if rc != nil {
			rc.Close()
		}
	}
	eng := engine.New(engine.FileLoader(cfg, urlResolver(cfg, rc)), m)
	if err := eng.Reload(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	normalizer, err := normalize.New(cfg.Search.Stemmer)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	previews, err := catalog.NewPreviews(corpus.NewTextStore(cfg.Corpus.TextDir), cfg.Search.PreviewLength, 0, m)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return service.New(eng, previews, normalizer, m), closeFn, nil
}

func printResults(w io.Writer, results []service.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no matching documents")
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %-16s %.4f  %s\n", i+1, r.DocumentID, r.Score, r.URL)
		if r.Preview != "" {
			fmt.Fprintf(w, "    %s\n", strings.Join(strings.Fields(r.Preview), " "))
		}
	}
}

func printMatches(w io.Writer, matches []service.Match) {
	fmt.Fprintf(w, "%d matching documents\n", len(matches))
	for _, m := range matches {
		if m.URL == "" {
			fmt.Fprintln(w, m.DocumentID)
			continue
		}
		fmt.Fprintf(w, "%-16s %s\n", m.DocumentID, m.URL)
	}
}

// printSyntaxError echoes the query with a caret under the offending byte.
func printSyntaxError(w io.Writer, err *boolean.SyntaxError) {
	fmt.Fprintf(w, "  %s\n  %s^ %s\n", err.Query, strings.Repeat(" ", err.Pos), err.Message)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
