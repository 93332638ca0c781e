// Package cli provides the cobra command tree for sercha-research.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-research/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-research/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services are the core services the commands drive.
type Services struct {
	Sessions driving.SessionService
	Research driving.ResearchService
	Settings driving.SettingsService
}

// Options carries global flag values to the bootstrap function.
type Options struct {
	DataDir string
	Verbose bool
}

// BootstrapFunc builds the services for a command invocation. The returned
// cleanup function is called after the command finishes.
type BootstrapFunc func(opts Options) (*Services, func(), error)

// Global flags.
var (
	verbose bool
	dataDir string
)

// Injected services.
var (
	sessionService  driving.SessionService
	researchService driving.ResearchService
	settingsService driving.SettingsService

	bootstrap BootstrapFunc
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "sercha-research",
	Short: "Grounded research reports from your documents",
	Long: `sercha-research turns a set of documents into a structured research report.

Create a session, add PDF, Word, PowerPoint, Excel or text sources, then run
research on a topic. The most relevant excerpts are selected and an LLM writes
a report whose quotes and citations are checked against the sources.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
	PersistentPostRun: func(_ *cobra.Command, _ []string) { runCleanup() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"directory for config, prompts and sessions (default ~/.sercha-research)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices injects services directly, bypassing bootstrap.
func SetServices(s Services) {
	sessionService = s.Sessions
	researchService = s.Research
	settingsService = s.Settings
}

// SetBootstrap registers the function that wires services once flags are parsed.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// Execute runs the root command. Cancelling ctx aborts a running research pipeline.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when a command fails.
	runCleanup()
	return err
}

func runCleanup() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// runBootstrap applies global flags and wires services on first use.
// Commands that need no services (version, help) skip wiring.
func runBootstrap(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
		logger.SetOutput(cmd.ErrOrStderr())
	}

	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}
	if sessionService != nil && researchService != nil && settingsService != nil {
		return nil
	}

	services, done, err := bootstrap(Options{DataDir: dataDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(*services)
	cleanup = done
	return nil
}

// annotationNoServices marks commands that run without wiring.
const annotationNoServices = "no-services"

var errNotConfigured = errors.New("service not configured")

func requireSessions() error {
	if sessionService == nil {
		return fmt.Errorf("session %w", errNotConfigured)
	}
	return nil
}

func requireResearch() error {
	if researchService == nil {
		return fmt.Errorf("research %w", errNotConfigured)
	}
	return nil
}

func requireSettings() error {
	if settingsService == nil {
		return fmt.Errorf("settings %w", errNotConfigured)
	}
	return nil
}

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return isTerminal(os.Stdin)
}
