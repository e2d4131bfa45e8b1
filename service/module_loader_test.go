package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XVilka/fcd/domain"
)

const sampleModule = `
module: demo
functions:
  - name: max
    va: 0x401000
    entry: A
    blocks:
      - name: A
        stmts:
          - "t := a"
      - name: B
      - name: C
    edges:
      - {from: A, to: B, cond: "p"}
      - {from: A, to: C, cond: "!p"}
  - name: memcpy
    va: 0x402000
    prototype: true
`

func writeModuleFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadModuleFile(t *testing.T) {
	loader := NewModuleLoader()

	t.Run("Valid", func(t *testing.T) {
		desc, err := loader.LoadModuleFile(writeModuleFile(t, "demo.fcd.yaml", sampleModule))
		require.NoError(t, err)

		assert.Equal(t, "demo", desc.Module)
		require.Len(t, desc.Functions, 2)

		fn := desc.Functions[0]
		assert.Equal(t, "max", fn.Name)
		assert.Equal(t, uint64(0x401000), fn.VA)
		assert.Len(t, fn.Blocks, 3)
		assert.Len(t, fn.Edges, 2)
		assert.True(t, desc.Functions[1].Prototype)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := loader.LoadModuleFile(filepath.Join(t.TempDir(), "nope.yaml"))
		var derr domain.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, domain.ErrCodeFileNotFound, derr.Code)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		_, err := loader.LoadModuleFile(writeModuleFile(t, "bad.yaml", "functions: ["))
		var derr domain.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, domain.ErrCodeParseError, derr.Code)
	})

	t.Run("UnknownEdgeTarget", func(t *testing.T) {
		content := `
functions:
  - name: f
    blocks:
      - name: A
    edges:
      - {from: A, to: Z}
`
		_, err := loader.LoadModuleFile(writeModuleFile(t, "bad.yaml", content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown block")
	})

	t.Run("NoExit", func(t *testing.T) {
		content := `
functions:
  - name: f
    blocks:
      - name: A
      - name: B
    edges:
      - {from: A, to: B}
      - {from: B, to: A}
`
		_, err := loader.LoadModuleFile(writeModuleFile(t, "bad.yaml", content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot return")
	})

	t.Run("DuplicateBlock", func(t *testing.T) {
		content := `
functions:
  - name: f
    blocks:
      - name: A
      - name: A
`
		_, err := loader.LoadModuleFile(writeModuleFile(t, "bad.yaml", content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate block")
	})
}

func TestCollectModuleFiles(t *testing.T) {
	resolver := NewModuleFileResolver()

	t.Run("DirectoryGlob", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
		for _, name := range []string{"a.fcd.yaml", "sub/b.fcd.yaml", "ignored.txt"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("module: x"), 0o644))
		}

		files, err := resolver.CollectModuleFiles([]string{dir}, nil, nil)
		require.NoError(t, err)
		require.Len(t, files, 2)
	})

	t.Run("ExcludePattern", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"keep.fcd.yaml", "skip.fcd.yaml"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("module: x"), 0o644))
		}

		files, err := resolver.CollectModuleFiles([]string{dir}, nil, []string{"skip*"})
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Contains(t, files[0], "keep")
	})

	t.Run("NothingFound", func(t *testing.T) {
		_, err := resolver.CollectModuleFiles([]string{t.TempDir()}, nil, nil)
		require.Error(t, err)
	})
}
