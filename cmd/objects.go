package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/parsekit/parse"
)

// deletePageSize is the page size used to collect objects to delete
const deletePageSize = 100

var (
	deleteFlags queryFlags
	dryRun      bool
	noConfirm   bool
	runParams   string
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <class> [objectId...]",
	Short: "Delete objects by id or by query",
	Long: `Delete the given objects, or every object matching --where and --filter
when no ids are given. Matches are collected page by page unless --limit is
set. Deletes run concurrently; failures are reported per object.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	addQueryFlags(deleteCmd, &deleteFlags)
	deleteCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "client-side filter expression")
	deleteCmd.Flags().StringSliceVarP(&presets, "preset", "p", nil, "filter presets from config; objects must match all")
	deleteCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "show what would be deleted")
	deleteCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	className := args[0]
	ids := args[1:]

	if len(ids) == 0 {
		filtering := filterExpr != "" || len(presets) > 0
		if len(deleteFlags.where) == 0 && !filtering {
			return errors.New("refusing to delete a whole class: give object ids, --where, --filter or --preset")
		}

		q, err := buildQuery(className, &deleteFlags)
		if err != nil {
			return err
		}
		if !filtering {
			q.Select(parse.FieldObjectID)
		}

		var objects []parse.Object
		if deleteFlags.limit >= 0 {
			objects, err = client.FindObjects(cmd.Context(), q, callOptions()...)
		} else {
			if deleteFlags.order == "" {
				q.Order(parse.FieldObjectID)
			}
			objects, err = findAllObjects(cmd.Context(), q, deleteFlags.skip, deletePageSize)
		}
		if err != nil {
			return fmt.Errorf("find failed: %w", err)
		}

		if filtering {
			if objects, err = applyFilters(cmd.Context(), objects); err != nil {
				return err
			}
		}

		for _, obj := range objects {
			ids = append(ids, obj.ObjectID)
		}
	}

	if len(ids) == 0 {
		fmt.Println("No objects matched.")
		return nil
	}

	if dryRun {
		fmt.Printf("Would delete %d %s objects:\n", len(ids), className)
		for _, id := range ids {
			fmt.Printf("  • %s\n", id)
		}
		return nil
	}

	if !noConfirm && !confirm(fmt.Sprintf("Delete %d %s objects?", len(ids), className)) {
		logger.Info().Msg("Deletion cancelled")
		return nil
	}

	result, err := client.BatchDelete(cmd.Context(), className, ids, callOptions()...)
	fmt.Printf("Deleted %d of %d objects\n", len(result.Succeeded), result.Requested)
	for _, failed := range result.Failed {
		logger.Error().Str("objectId", failed.ObjectID).Err(failed.Err).Msg("Delete failed")
	}
	return err
}

// findAllObjects pages through every object matching q from offset on. The
// order of q must be stable across pages.
func findAllObjects(ctx context.Context, q *parse.Query, offset, pageSize int) ([]parse.Object, error) {
	var all []parse.Object
	for skip := offset; ; skip += pageSize {
		page, err := client.FindObjects(ctx, q.Clone().Limit(pageSize).Skip(skip), callOptions()...)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// confirm asks a yes/no question on stdin
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(response), "y")
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <function>",
	Short: "Run a cloud function",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(runParams)
		if err != nil {
			return err
		}

		var result parse.Value
		if err := client.RunFunction(cmd.Context(), args[0], params, &result, callOptions()...); err != nil {
			return fmt.Errorf("cloud function %s failed: %w", args[0], err)
		}

		return printJSON(os.Stdout, result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runParams, "params", "", `function parameters as a JSON object, e.g. '{"movie":"The Matrix"}'`)
}

// parseParams decodes a JSON object of function parameters
func parseParams(raw string) (map[string]parse.Value, error) {
	params := map[string]parse.Value{}
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("invalid --params: %w", err)
	}
	return params, nil
}
