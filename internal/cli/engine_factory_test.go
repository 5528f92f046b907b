package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/branchtale/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineEntryPoint(t *testing.T) {
	// Helper to create a temp dir with specific files
	createDir := func(t *testing.T, files []string) string {
		dir := t.TempDir()
		for _, f := range files {
			err := os.WriteFile(filepath.Join(dir, f), []byte("content"), 0644)
			require.NoError(t, err)
		}
		return dir
	}

	t.Run("Default to start if exists", func(t *testing.T) {
		dir := createDir(t, []string{"start.md", "main.md"})
		assert.Equal(t, "start", determineEntryPoint(dir))
	})

	t.Run("Fallback to main", func(t *testing.T) {
		dir := createDir(t, []string{"main.md", "index.md"})
		assert.Equal(t, "main", determineEntryPoint(dir))
	})

	t.Run("Fallback to index", func(t *testing.T) {
		dir := createDir(t, []string{"index.md", "other.md"})
		assert.Equal(t, "index", determineEntryPoint(dir))
	})

	t.Run("Fallback to DirectoryName", func(t *testing.T) {
		tmpRoot := t.TempDir()
		moduleDir := filepath.Join(tmpRoot, "checkout")
		require.NoError(t, os.Mkdir(moduleDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "checkout.md"), []byte("content"), 0644))

		assert.Equal(t, "checkout", determineEntryPoint(moduleDir))
	})

	t.Run("Default to start if nothing matches", func(t *testing.T) {
		dir := createDir(t, []string{"other.md"})
		assert.Equal(t, "start", determineEntryPoint(dir))
	})
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("Builtin Cave", func(t *testing.T) {
		eng, err := NewEngine(ctx, EngineOptions{}, logging.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "cave-of-whispers", eng.Story().ID)
		assert.Equal(t, "entrance", eng.Story().StartID)
	})

	t.Run("Directory Uses Entry Point Convention", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "main.md", "---\nchoices:\n  - key: A\n    label: Go on.\n    to: end\ninvalid_text: No.\n---\nReady?\n")
		writeFile(t, dir, "end.md", "---\nending: WIN\n---\nDone.\n")

		eng, err := NewEngine(ctx, EngineOptions{StoryPath: dir}, logging.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "main", eng.Story().StartID)
	})

	t.Run("Explicit Start Node", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "start.md", "---\nending: LOSS\n---\nWrong door.\n")
		writeFile(t, dir, "other.md", "---\nending: WIN\n---\nRight door.\n")

		eng, err := NewEngine(ctx, EngineOptions{StoryPath: dir, StartNode: "other"}, logging.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "other", eng.Story().StartID)
	})

	t.Run("Invalid Story", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "bad.yaml", "id: bad\nstart: nowhere\nnodes: {}\n")

		_, err := NewEngine(ctx, EngineOptions{StoryPath: path}, logging.NewNop())
		assert.ErrorContains(t, err, "error initializing engine")
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
