package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/postmetrics/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/postmetrics/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/postmetrics/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/postmetrics/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/postmetrics/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// tableLimit caps the records loaded into the table.
const tableLimit = 500

// App is the dashboard application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	dashboard *dashboard.View
	statusBar *status.Bar
	help      help.Model

	// loading is true while a load command is in flight.
	loading bool

	err error

	width  int
	height int
	ready  bool
	now    func() time.Time
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new dashboard with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		dashboard: dashboard.NewView(s),
		statusBar: status.NewBar(s, km),
		help:      help.New(),
		now:       time.Now,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model. It loads the first snapshot.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("postmetrics"),
		a.refresh(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keymap.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keymap.Refresh):
			return a, a.refresh()
		case key.Matches(msg, a.keymap.Help):
			a.help.ShowAll = !a.help.ShowAll
			return a, nil
		}
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd

	case messages.RefreshRequested:
		return a, a.refresh()

	case messages.DashboardLoaded:
		a.loading = false
		if msg.Err != nil {
			a.err = msg.Err
			a.statusBar.SetError(msg.Err)
			return a, nil
		}
		a.err = nil
		a.dashboard.SetData(msg.Summary, msg.Records)
		a.statusBar.SetLoaded(msg.Freshness, msg.LoadedAt)
		return a, nil
	}

	return a, nil
}

// refresh starts a load unless one is already running.
func (a *App) refresh() tea.Cmd {
	if a.loading {
		return nil
	}
	a.loading = true
	a.statusBar.SetState(status.StateLoading)
	return a.load
}

// load reads the summary, the newest records and freshness through the
// query layer, so repeated refreshes inside the freshness window are served
// from cache.
func (a *App) load() tea.Msg {
	ctx := a.ctx
	sum, err := a.ports.Analytics.Summary(ctx, domain.QuerySpec{})
	if err != nil {
		return messages.DashboardLoaded{Err: fmt.Errorf("summary: %w", err)}
	}
	records, err := a.ports.Query.Query(ctx, domain.QuerySpec{Limit: tableLimit})
	if err != nil {
		return messages.DashboardLoaded{Err: fmt.Errorf("records: %w", err)}
	}
	fresh, err := a.ports.Query.Freshness(ctx)
	if err != nil {
		return messages.DashboardLoaded{Err: fmt.Errorf("freshness: %w", err)}
	}
	return messages.DashboardLoaded{
		Summary:   sum,
		Records:   records,
		Freshness: fresh,
		LoadedAt:  a.now(),
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}
	out := a.dashboard.View() + "\n" + a.statusBar.View()
	if a.help.ShowAll {
		out += "\n" + a.help.FullHelpView(a.keymap.FullHelp())
	}
	return out
}

// Run starts the program on the terminal's alternate screen.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Err returns the last load error.
func (a *App) Err() error {
	return a.err
}

// Ready returns true once the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// Loading reports whether a load is in flight.
func (a *App) Loading() bool {
	return a.loading
}

// SetDimensions sets the terminal size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.dashboard.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
	a.help.Width = width
}
