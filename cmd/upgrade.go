package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseRepository is the GitHub repository parsekit releases are published to
const releaseRepository = "s0up4200/parsekit"

var checkOnly bool

// upgradeCmd represents the upgrade command
var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade parsekit to the latest release",
	Long:  `Check GitHub for a newer parsekit release and replace the running binary with it.`,
	RunE:  runUpgrade,
}

func init() {
	upgradeCmd.Flags().BoolVar(&checkOnly, "check", false, "only report whether a newer release exists")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	current, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Errorf("cannot upgrade development build %q", version)
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(releaseRepository))
	if err != nil {
		return fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	newer, err := isNewerRelease(current, latest.Version())
	if err != nil {
		return err
	}
	if !newer {
		fmt.Printf("parsekit %s is the latest version\n", formatVersion(version))
		return nil
	}

	if checkOnly {
		fmt.Printf("parsekit %s is available (current %s)\n", formatVersion(latest.Version()), formatVersion(version))
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return errors.New("could not locate executable path")
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Printf("✓ Upgraded to %s\n", formatVersion(latest.Version()))
	return nil
}

// isNewerRelease reports whether the release version is ahead of current
func isNewerRelease(current semver.Version, release string) (bool, error) {
	v, err := semver.ParseTolerant(release)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", release, err)
	}
	return v.GT(current), nil
}
