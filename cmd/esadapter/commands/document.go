package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/opsworks/esadapter/data/elasticsearch"
	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	var (
		query string
		size  int
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "search [index]",
		Short: "Search an index and print the hits as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			q, err := parseQuery(query)
			if err != nil {
				return err
			}

			opts := []elasticsearch.SearchOption{elasticsearch.WithSize(size)}
			if raw {
				res := a.adapter.SearchRaw(ctx, args[0], q, opts...)
				if res == nil {
					return failed("search index %s", args[0])
				}
				return printJSON(cmd, res)
			}

			hits := a.adapter.Search(ctx, args[0], q, opts...)
			if hits == nil {
				return failed("search index %s", args[0])
			}
			return printJSON(cmd, hits)
		}),
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query clause as JSON, matches all when empty")
	cmd.Flags().IntVarP(&size, "size", "s", 0, "maximum number of hits, the configured search size when 0")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the whole search response")
	return cmd
}

// NewGetCommand creates the get command
func NewGetCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the documents of the default index",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			q, err := parseQuery(query)
			if err != nil {
				return err
			}
			hits := a.adapter.GetAll(ctx, q)
			if hits == nil {
				return failed("search index %s", a.adapter.Index())
			}
			return printJSON(cmd, hits)
		}),
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query clause as JSON, matches all when empty")
	return cmd
}

// NewPutCommand creates the put command
func NewPutCommand() *cobra.Command {
	var index string

	cmd := &cobra.Command{
		Use:   "put [document]",
		Short: "Store a JSON document, read from stdin when no argument is given",
		Long: `Store a JSON document.

Without --index the document is stamped with the current time and stored in
the default index. With --index it is stored as given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				src = strings.NewReader(args[0])
			}

			var doc elasticsearch.Document
			if err := decodeJSON(src, &doc); err != nil {
				return fmt.Errorf("invalid document: %w", err)
			}

			if index == "" {
				if !a.adapter.PutDocument(ctx, doc) {
					return failed("store document in index %s", a.adapter.Index())
				}
				index = a.adapter.Index()
			} else if !a.adapter.StoreDocument(ctx, index, doc) {
				return failed("store document in index %s", index)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Document stored in index %s\n", index)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&index, "index", "i", "", "target index, the default index when empty")
	return cmd
}

// parseQuery decodes a JSON query clause; an empty string yields nil.
func parseQuery(s string) (elasticsearch.Query, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var q elasticsearch.Query
	if err := decodeJSON(strings.NewReader(s), &q); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return q, nil
}

// decodeJSON decodes one JSON object from r, keeping numbers exact.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}
