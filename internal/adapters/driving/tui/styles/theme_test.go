package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s.Theme())
	assert.Equal(t, DefaultTheme().Primary, s.Theme().Primary)
}

func TestNewStyles_CustomTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Secondary = lipgloss.Color("#FFFFFF")

	s := NewStyles(theme)

	assert.Equal(t, lipgloss.Color("#FFFFFF"), s.Theme().Secondary)
	assert.NotEmpty(t, s.KPIValue.Render("42"))
}

func TestStyles_Table(t *testing.T) {
	ts := DefaultStyles().Table()

	assert.Contains(t, ts.Header.Render("Date"), "Date")
	assert.Contains(t, ts.Selected.Render("row"), "row")
}
