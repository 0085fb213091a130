package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/parsekit/filter"
	"github.com/s0up4200/parsekit/parse"
)

// queryFlags holds the flags shared by commands that build a query
type queryFlags struct {
	where   []string
	limit   int
	skip    int
	order   string
	include []string
	keys    []string
}

func addQueryFlags(cmd *cobra.Command, qf *queryFlags) {
	cmd.Flags().StringArrayVarP(&qf.where, "where", "w", nil, `constraint such as score>=100 or name="Sean" (repeatable)`)
	cmd.Flags().IntVar(&qf.limit, "limit", -1, "maximum number of results")
	cmd.Flags().IntVar(&qf.skip, "skip", 0, "number of results to skip")
	cmd.Flags().StringVar(&qf.order, "order", "", "sort order, e.g. -createdAt,name")
	cmd.Flags().StringSliceVar(&qf.include, "include", nil, "pointer fields to include")
	cmd.Flags().StringSliceVar(&qf.keys, "keys", nil, "fields to select")
}

// whereOperators is ordered so two-character operators match first
var whereOperators = []string{">=", "<=", "!=", ">", "<", "=", "~"}

// parseWhereClause splits "field<op>value". The value is read as JSON and
// falls back to a plain string.
func parseWhereClause(clause string) (string, string, parse.Value, error) {
	idx := strings.IndexAny(clause, "=!<>~")
	if idx <= 0 {
		return "", "", parse.Value{}, fmt.Errorf("invalid where clause %q: expected field<op>value", clause)
	}

	field := strings.TrimSpace(clause[:idx])
	rest := clause[idx:]

	for _, op := range whereOperators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		raw := strings.TrimSpace(rest[len(op):])

		var v parse.Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = parse.String(raw)
		}
		return field, op, v, nil
	}

	return "", "", parse.Value{}, fmt.Errorf("invalid where clause %q: unknown operator", clause)
}

// buildQuery turns query flags into a query on className
func buildQuery(className string, qf *queryFlags) (*parse.Query, error) {
	q := parse.NewQuery(className)

	for _, clause := range qf.where {
		field, op, v, err := parseWhereClause(clause)
		if err != nil {
			return nil, err
		}

		switch op {
		case "=":
			q.EqualTo(field, v)
		case "!=":
			q.NotEqualTo(field, v)
		case ">":
			q.GreaterThan(field, v)
		case ">=":
			q.GreaterThanOrEqualTo(field, v)
		case "<":
			q.LessThan(field, v)
		case "<=":
			q.LessThanOrEqualTo(field, v)
		case "~":
			s, ok := v.AsString()
			if !ok {
				s = v.String()
			}
			q.Contains(field, s)
		}
	}

	if qf.limit >= 0 {
		q.Limit(qf.limit)
	}
	if qf.skip > 0 {
		q.Skip(qf.skip)
	}
	if qf.order != "" {
		q.Order(qf.order)
	}
	q.Include(qf.include...)
	q.Select(qf.keys...)

	return q, nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	findFlags     queryFlags
	filterExpr    string
	presets       []string
	allPresets    bool
	countFlags    queryFlags
	distinctFlags queryFlags
	getFlags      queryFlags
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <class>",
	Short: "Find objects matching a query",
	Long: `Find objects of a class. Constraints given with --where run on the server;
--filter and --preset narrow the results further on the client.

With several presets, or --all-presets, results are grouped by preset name.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	addQueryFlags(findCmd, &findFlags)
	findCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "client-side filter expression")
	findCmd.Flags().StringSliceVarP(&presets, "preset", "p", nil, "filter presets from config (repeatable)")
	findCmd.Flags().BoolVar(&allPresets, "all-presets", false, "group results by every preset in config")
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	q, err := buildQuery(args[0], &findFlags)
	if err != nil {
		return err
	}

	objects, err := client.FindObjects(ctx, q, callOptions()...)
	if err != nil {
		return fmt.Errorf("find failed: %w", err)
	}

	if allPresets || len(presets) > 1 {
		objects, err = applyFilterExpression(ctx, objects)
		if err != nil {
			return err
		}
		groups, err := evaluatePresets(ctx, presets, objects)
		if err != nil {
			return err
		}
		for name, matches := range groups {
			logger.Info().Str("class", args[0]).Str("preset", name).Int("count", len(matches)).Msg("Found objects")
		}
		return printJSON(os.Stdout, groups)
	}

	objects, err = applyFilters(ctx, objects)
	if err != nil {
		return err
	}

	logger.Info().Str("class", args[0]).Int("count", len(objects)).Msg("Found objects")
	return printJSON(os.Stdout, objects)
}

// applyFilterExpression narrows objects with --filter
func applyFilterExpression(ctx context.Context, objects []parse.Object) ([]parse.Object, error) {
	if filterExpr == "" {
		return objects, nil
	}
	objects, err := filter.Apply(ctx, objects, filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return objects, nil
}

// applyFilters narrows objects with --filter, then keeps those matching
// every --preset
func applyFilters(ctx context.Context, objects []parse.Object) ([]parse.Object, error) {
	objects, err := applyFilterExpression(ctx, objects)
	if err != nil || len(presets) == 0 {
		return objects, err
	}

	m, err := newPresetManager()
	if err != nil {
		return nil, err
	}
	for _, name := range presets {
		objects, err = m.EvaluateFilter(ctx, name, objects)
		if err != nil {
			return nil, err
		}
	}

	return objects, nil
}

// evaluatePresets runs the named presets, or every configured preset when
// names is empty, and groups the matches by preset
func evaluatePresets(ctx context.Context, names []string, objects []parse.Object) (map[string][]parse.Object, error) {
	m, err := newPresetManager()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return m.EvaluateAll(ctx, objects)
	}
	return m.EvaluateSelected(ctx, names, objects)
}

// newPresetManager compiles the presets from config
func newPresetManager() (*filter.Manager, error) {
	m := filter.NewManager()
	if err := m.RegisterFilters(cfg.Filters); err != nil {
		return nil, fmt.Errorf("invalid filter preset: %w", err)
	}
	return m, nil
}

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count <class>",
	Short: "Count objects matching a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildQuery(args[0], &countFlags)
		if err != nil {
			return err
		}

		n, err := client.CountObjects(cmd.Context(), q, callOptions()...)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}

		fmt.Println(n)
		return nil
	},
}

// distinctCmd represents the distinct command
var distinctCmd = &cobra.Command{
	Use:   "distinct <class> <field>",
	Short: "List the distinct values of a field",
	Long:  `List the distinct values of a field among objects matching a query. Requires the master key.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildQuery(args[0], &distinctFlags)
		if err != nil {
			return err
		}

		values, err := parse.Distinct[parse.Value](cmd.Context(), client, q, args[1])
		if err != nil {
			return fmt.Errorf("distinct failed: %w", err)
		}

		return printJSON(os.Stdout, values)
	},
}

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <class> <objectId>",
	Short: "Fetch a single object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildQuery(args[0], &getFlags)
		if err != nil {
			return err
		}

		obj, err := parse.Get[parse.Object](cmd.Context(), client, q, args[1], callOptions()...)
		if err != nil {
			return fmt.Errorf("get failed: %w", err)
		}
		obj.ClassName = args[0]

		return printJSON(os.Stdout, obj)
	},
}

func init() {
	addQueryFlags(countCmd, &countFlags)
	addQueryFlags(distinctCmd, &distinctFlags)
	getCmd.Flags().StringSliceVar(&getFlags.include, "include", nil, "pointer fields to include")
	getCmd.Flags().StringSliceVar(&getFlags.keys, "keys", nil, "fields to select")
	getFlags.limit = -1
}
