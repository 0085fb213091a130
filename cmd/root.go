package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/parsekit/config"
	"github.com/s0up4200/parsekit/parse"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *parse.Client

	version   = "dev"
	buildTime = "unknown"

	// Global flags
	useMaster    bool
	sessionToken string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "parsekit",
	Short: "A command line client for Parse Server",
	Long: `parsekit queries and manages objects on a Parse Server over its REST API.
Queries are built from flags, optionally narrowed further with client-side
filter expressions.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// SetVersion records the build version reported by the version command
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&useMaster, "master", false, "authenticate with the master key")
	rootCmd.PersistentFlags().StringVar(&sessionToken, "session", "", "session token to act as")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(distinctCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(upgradeCmd)
}

// initializeApp initializes the configuration and client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Neither command talks to a Parse server
	if cmd == versionCmd || cmd == upgradeCmd {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	opts := cfg.Server.ClientOptions()
	if cfg.Server.InstallationID == "" {
		opts = append(opts, parse.WithInstallationID(parse.NewInstallationID()))
	}
	opts = append(opts, parse.WithUserAgent("parsekit/"+version))

	client, err = parse.NewClient(cfg.Server.URL, cfg.Server.AppID, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create Parse client: %w", err)
	}

	if sessionToken != "" {
		client = client.WithSession(sessionToken)
	}

	logger.Debug().
		Str("server", client.BaseURL()).
		Bool("master", useMaster).
		Bool("session", client.IsAuthenticated()).
		Msg("Client ready")

	return nil
}

// callOptions returns the per-call options selected by global flags
func callOptions() []parse.CallOption {
	if useMaster {
		return []parse.CallOption{parse.UseMasterKey()}
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !useColor(cfg.Color, os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// useColor honours an explicit setting and otherwise colors only terminals
func useColor(forced *bool, fd uintptr) bool {
	if forced != nil {
		return *forced
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
