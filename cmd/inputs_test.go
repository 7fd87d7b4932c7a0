package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/gemini-sub-translator/internal/service"
)

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "season", "e01.srt")
	b := filepath.Join(dir, "season", "e02.srt")
	done := filepath.Join(dir, "season", "e01_Spanish.srt")
	single := filepath.Join(dir, "movie.srt")
	for _, p := range []string{a, b, done, single} {
		writeSRT(t, p)
	}

	t.Run("directory skips earlier outputs", func(t *testing.T) {
		got, err := resolveInputs([]string{filepath.Join(dir, "season")}, "Spanish")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a, b}, got)
	})

	t.Run("explicit output-looking file is kept", func(t *testing.T) {
		got, err := resolveInputs([]string{done}, "Spanish")
		require.NoError(t, err)
		assert.Equal(t, []string{done}, got)
	})

	t.Run("glob", func(t *testing.T) {
		got, err := resolveInputs([]string{filepath.Join(dir, "season", "e0?.srt")}, "Spanish")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a, b}, got)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		got, err := resolveInputs([]string{single, single, " ", filepath.Join(dir, ".", "movie.srt")}, "Spanish")
		require.NoError(t, err)
		assert.Equal(t, []string{single}, got)
	})

	errs := map[string][]string{
		"missing file":   {filepath.Join(dir, "nope.srt")},
		"empty glob":     {filepath.Join(dir, "*.ass")},
		"empty dir":      {t.TempDir()},
		"no inputs":      nil,
		"only blank arg": {""},
	}
	for name, args := range errs {
		t.Run(name, func(t *testing.T) {
			_, err := resolveInputs(args, "Spanish")
			require.Error(t, err)
			assert.True(t, service.IsErrorType(err, service.ErrInput))
		})
	}
}

func TestIsTranslatedOutput(t *testing.T) {
	assert.True(t, isTranslatedOutput("/x/show_Spanish.srt", "Spanish"))
	assert.True(t, isTranslatedOutput("/x/show_spanish.srt", "Spanish"))
	assert.False(t, isTranslatedOutput("/x/show.srt", "Spanish"))
	assert.False(t, isTranslatedOutput("/x/show_Spanish.srt", ""))
}
