package files

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/errors"
)

func TestResolvePath(t *testing.T) {
	base := t.TempDir()
	m := NewManager(base, nil)

	abs := filepath.Join(base, "x", "..", "abs.json")
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "relative", in: "aggregated_sales.json", want: filepath.Join(base, "aggregated_sales.json")},
		{name: "nested relative", in: "out/kpi.json", want: filepath.Join(base, "out", "kpi.json")},
		{name: "absolute is cleaned", in: abs, want: filepath.Join(base, "abs.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ResolvePath(tt.in))
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	base := t.TempDir()
	m := NewManager(base, nil)

	require.NoError(t, m.WriteFileAtomic("out/kpi.json", []byte("first")))
	require.NoError(t, m.WriteFileAtomic("out/kpi.json", []byte("second")))

	data, err := m.ReadFile("out/kpi.json")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(filepath.Join(base, "out", "kpi.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(base, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
	assert.True(t, m.FileExists("out/kpi.json"))
}

func TestWriteFileAtomic_Failure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	m := NewManager(base, nil)
	err := m.WriteFileAtomic("blocker/kpi.json", []byte("data"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
}

func TestWriteFileAtomic_ConcurrentReaders(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	require.NoError(t, m.WriteFileAtomic("kpi.json", []byte("aaaa")))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			payload := []byte("aaaa")
			if i%2 == 1 {
				payload = []byte("bbbb")
			}
			assert.NoError(t, m.WriteFileAtomic("kpi.json", payload))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			data, err := m.ReadFile("kpi.json")
			if assert.NoError(t, err) {
				assert.Contains(t, []string{"aaaa", "bbbb"}, string(data))
			}
		}
	}()
	wg.Wait()
}

func TestReadFile_Missing(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	_, err := m.ReadFile("absent.json")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
	assert.True(t, stderrors.Is(err, os.ErrNotExist))
	assert.False(t, m.FileExists("absent.json"))
}

func TestEnsureDirectory(t *testing.T) {
	base := t.TempDir()
	m := NewManager(base, nil)

	require.NoError(t, m.EnsureDirectory("a/b/c"))
	info, err := os.Stat(filepath.Join(base, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
