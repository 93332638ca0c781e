package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/services"
)

var settingsFormat string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider, retrieval, chunking, grounding and storage.

Settings are stored in config.toml under the data directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by key. Available keys:

  llm.provider               ollama, openai, anthropic or gemini
  llm.model                  model name (resets to the provider default when the provider changes)
  llm.base_url               endpoint for Ollama or an OpenAI-compatible proxy
  llm.api_key                API key for cloud providers
  llm.requests_per_minute    outbound call cap, 0 disables
  retrieval.ranker           llm or lexical
  retrieval.dedupe           true or false
  retrieval.fallback_limit   excerpts used when ranking fails
  chunker.chunk_size         window size in bytes
  chunker.overlap            overlap in bytes, smaller than the window
  grounding.mode             off, flag or drop
  storage.backend            sqlite or memory`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider interactively",
	Long:  `Choose an LLM provider, model and API key, then check that the provider responds.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsShowCmd.Flags().StringVarP(&settingsFormat, "format", "f", formatText, "output format: text, json or yaml")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := validFormat(settingsFormat); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settingsFormat != formatText {
		masked := *settings
		if masked.LLM.APIKey != "" {
			masked.LLM.APIKey = maskAPIKey(masked.LLM.APIKey)
		}
		return writeStructured(cmd.OutOrStdout(), settingsFormat, masked)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.heading.Render("Current Settings"))
	cmd.Println()

	cmd.Println(st.label.Render("[LLM]"))
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" || settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", orDefault(settings.LLM.BaseURL, "(provider default)"))
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.LLM.RequestsPerMinute > 0 {
		cmd.Printf("  Rate limit: %d requests/minute\n", settings.LLM.RequestsPerMinute)
	}
	status := st.success.Render("configured")
	if !settings.LLM.IsConfigured() {
		status = st.warning.Render("not configured")
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println(st.label.Render("[Retrieval]"))
	cmd.Printf("  Ranker: %s\n", settings.Retrieval.Ranker)
	cmd.Printf("  Dedupe: %t\n", settings.Retrieval.Dedupe)
	cmd.Printf("  Fallback limit: %d\n", settings.Retrieval.FallbackLimit)
	cmd.Println()

	cmd.Println(st.label.Render("[Chunker]"))
	cmd.Printf("  Chunk size: %d\n", settings.Chunker.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunker.Overlap)
	cmd.Println()

	cmd.Println(st.label.Render("[Grounding]"))
	cmd.Printf("  Mode: %s\n", settings.Grounding.Mode)
	cmd.Println()

	cmd.Println(st.label.Render("[Storage]"))
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(st.warning.Render(fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'sercha-research settings llm' to configure a provider.")
	} else {
		cmd.Println(st.success.Render("Configuration is valid."))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) && !isKnownKey(key) {
			return fmt.Errorf("%w; run 'sercha-research settings set --help' for keys", err)
		}
		return err
	}

	display := value
	if key == services.KeyLLMAPIKey {
		display = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, display)
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key (leave empty to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := settingsService.SetLLMProvider(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", selected.Description(), model)
	return nil
}

func isKnownKey(key string) bool {
	for _, k := range services.SettingKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(reader *bufio.Reader) string {
	if stdinIsTerminal() {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}
