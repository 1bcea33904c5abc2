package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Equal(t, StateReady, bar.State())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Bar)
		want  string
	}{
		{name: "ready", setup: func(*Bar) {}, want: "Ready"},
		{name: "loading", setup: func(b *Bar) { b.SetState(StateLoading) }, want: "Loading..."},
		{name: "error", setup: func(b *Bar) { b.SetError(errors.New("disk full")) }, want: "Error: disk full"},
		{
			name: "loaded",
			setup: func(b *Bar) {
				b.SetLoaded(&domain.Freshness{Records: 12, Generation: 3}, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
			},
			want: "12 records | cache gen 3 | loaded 09:30:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)

			view := bar.View()

			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, "r: refresh")
		})
	}
}

func TestBar_SetLoadedClearsError(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetError(errors.New("boom"))

	bar.SetLoaded(&domain.Freshness{}, time.Time{})

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
}
