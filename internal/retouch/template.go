package retouch

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

//go:embed prompts/cleaner.md
var defaultTemplate string

// DefaultTemplate returns the built-in instruction template.
func DefaultTemplate() string { return defaultTemplate }

// Template is the instruction text sent ahead of every prompt. It is read
// once and shared by all calls; concurrent first loads share one read.
type Template struct {
	path     string
	readFile func(string) ([]byte, error)
	group    singleflight.Group
	text     atomic.Pointer[string]
}

// NewTemplate returns a template read from path, or the built-in template
// when path is empty.
func NewTemplate(path string) *Template {
	return &Template{path: path, readFile: os.ReadFile}
}

// Load returns the template text. A failed read is not remembered.
func (t *Template) Load(ctx context.Context) (string, error) {
	if p := t.text.Load(); p != nil {
		return *p, nil
	}

	ch := t.group.DoChan("template", func() (any, error) {
		if p := t.text.Load(); p != nil {
			return *p, nil
		}
		s, err := t.read()
		if err != nil {
			return "", err
		}
		t.text.Store(&s)
		return s, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (t *Template) read() (string, error) {
	if t.path == "" {
		return defaultTemplate, nil
	}
	data, err := t.readFile(t.path)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	return string(data), nil
}
