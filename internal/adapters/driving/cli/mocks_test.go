package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-research/internal/logger"
)

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct {
	sessions map[string]*domain.Session
	added    []domain.SourceInput
	addErr   error
	nextID   int
}

func newMockSessionService() *mockSessionService {
	return &mockSessionService{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionService) Create(_ context.Context, title string) (*domain.Session, error) {
	m.nextID++
	s := &domain.Session{
		ID:        "sess-" + string(rune('0'+m.nextID)),
		Title:     title,
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if s.Title == "" {
		s.Title = "Untitled session"
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *mockSessionService) AddSource(_ context.Context, sessionID string, input domain.SourceInput) (*domain.Source, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.addErr != nil {
		return nil, m.addErr
	}
	m.added = append(m.added, input)
	title := input.Title
	if title == "" {
		title = input.URI
	}
	src := domain.Source{
		ID:     "src-" + string(rune('0'+len(s.Sources)+1)),
		Type:   input.Type,
		Title:  title,
		URI:    input.URI,
		Data:   input.Data,
		Status: domain.SourceStatusPending,
	}
	s.Sources = append(s.Sources, src)
	return &src, nil
}

func (m *mockSessionService) RemoveSource(_ context.Context, sessionID, sourceID string) error {
	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	for i, src := range s.Sources {
		if src.ID == sourceID {
			s.Sources = append(s.Sources[:i], s.Sources[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockSessionService) Get(_ context.Context, id string) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *mockSessionService) List(_ context.Context) ([]domain.Session, error) {
	out := make([]domain.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSessionService) Delete(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// mockResearchService implements driving.ResearchService for testing.
type mockResearchService struct {
	output *domain.ResearchOutput
	err    error
	states []domain.PipelineState

	gotSession string
	gotTopic   string
	hadCtxDL   bool
}

func (m *mockResearchService) Run(
	ctx context.Context,
	sessionID, topic string,
	opts driving.RunOptions,
) (*domain.ResearchOutput, error) {
	m.gotSession = sessionID
	m.gotTopic = topic
	_, m.hadCtxDL = ctx.Deadline()
	if opts.Progress != nil {
		for _, s := range m.states {
			opts.Progress(s)
		}
	}
	return m.output, m.err
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	setCalls    map[string]string
	setErr      error
	validateErr error
	pingErr     error

	provider domain.AIProvider
	model    string
	apiKey   string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		setCalls: make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setCalls[key] = value
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider, m.model, m.apiKey = provider, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// resetCommandState restores flag variables and services between executions.
func resetCommandState() {
	verbose, dataDir = false, ""
	sessionTitle, sessionFormat = "", formatText
	addPaste, addTitle, addType = "", "", ""
	settingsFormat = formatText
	researchFormat, researchTimeout, researchQuiet = formatText, 10*time.Minute, false
	SetServices(Services{})
	bootstrap, cleanup = nil, nil
	stdinIsTerminal = func() bool { return false }
	logger.SetVerbose(false)
	logger.SetOutput(os.Stderr)
}

// useServices resets state and injects the given services for one test.
func useServices(t *testing.T, s Services) {
	t.Helper()
	resetCommandState()
	SetServices(s)
	t.Cleanup(resetCommandState)
}

// executeCommand runs rootCmd with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeCommandWithInput(t, "", args...)
	return stdout, err
}

// executeCommandWithInput runs rootCmd with stdin and returns stdout and stderr.
func executeCommandWithInput(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
