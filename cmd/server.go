package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/blang/semver"
	"github.com/spf13/cobra"
)

var minServerVersion string

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to Parse Server",
	Long:  `Check the server is healthy and, when a master key is configured, show its version and features.`,
	RunE:  runTest,
}

func init() {
	testCmd.Flags().StringVar(&minServerVersion, "require", "", `fail unless the server version satisfies a range, e.g. ">=6.0.0"`)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fmt.Printf("Testing connection to Parse Server at %s...\n", client.BaseURL())

	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if !health.OK() {
		return fmt.Errorf("server reported status %q", health.Status)
	}
	fmt.Println("✓ Connection successful!")

	if !client.HasMasterKey() {
		fmt.Println("\nServer info: skipped (no master key configured)")
		return nil
	}

	info, err := client.ServerInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get server info: %w", err)
	}

	fmt.Printf("\nServer:\n")
	fmt.Printf("- Version: %s\n", info.ParseServerVersion)
	if len(info.Features) > 0 {
		fmt.Printf("- Features: ")
		for i, name := range slices.Sorted(maps.Keys(info.Features)) {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(name)
		}
		fmt.Println()
	}

	if minServerVersion != "" {
		if err := client.RequireServerVersion(ctx, minServerVersion); err != nil {
			return err
		}
		fmt.Printf("✓ Version satisfies %s\n", minServerVersion)
	}

	return nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("parsekit %s (built %s)\n", formatVersion(version), buildTime)
	},
}

// formatVersion normalises release versions; development builds pass through
func formatVersion(v string) string {
	parsed, err := semver.ParseTolerant(v)
	if err != nil {
		return v
	}
	return "v" + parsed.String()
}
