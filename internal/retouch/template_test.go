package retouch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Default(t *testing.T) {
	got, err := NewTemplate("").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), got)
}

func TestTemplate_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaner.md")
	require.NoError(t, os.WriteFile(path, []byte("custom instructions"), 0o644))

	tmpl := NewTemplate(path)
	got, err := tmpl.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "custom instructions", got)

	// Later edits are not picked up once loaded.
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))
	got, err = tmpl.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "custom instructions", got)
}

func TestTemplate_ConcurrentLoadsReadOnce(t *testing.T) {
	var reads atomic.Int32
	release := make(chan struct{})
	tmpl := NewTemplate("prompt.md")
	tmpl.readFile = func(string) ([]byte, error) {
		reads.Add(1)
		<-release
		return []byte("shared"), nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	var started sync.WaitGroup
	started.Add(callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = tmpl.Load(context.Background())
		}()
	}
	started.Wait()
	close(release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
	// Goroutines that arrive after the first read finishes hit the cache,
	// so there is exactly one read in total.
	assert.Equal(t, int32(1), reads.Load())
}

func TestTemplate_ErrorNotMemoised(t *testing.T) {
	calls := 0
	tmpl := NewTemplate("prompt.md")
	tmpl.readFile = func(string) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, os.ErrNotExist
		}
		return []byte("second try"), nil
	}

	_, err := tmpl.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	got, err := tmpl.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second try", got)
}

func TestTemplate_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	tmpl := NewTemplate("prompt.md")
	tmpl.readFile = func(string) ([]byte, error) {
		defer close(done)
		<-release
		return []byte("late"), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tmpl.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
}
