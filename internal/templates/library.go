package templates

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Library holds the checklist templates loaded from a directory of .md files.
// Reload replaces the whole set atomically, so a Watcher can refresh it while
// tool handlers read concurrently.
type Library struct {
	dir    string
	logger *slog.Logger

	mu        sync.RWMutex
	templates map[string]Template
}

// NewLibrary creates a library over dir. Call Reload to populate it.
func NewLibrary(dir string, logger *slog.Logger) *Library {
	return &Library{
		dir:       dir,
		logger:    logger,
		templates: make(map[string]Template),
	}
}

// log returns the library's logger, falling back to the default slog logger.
func (l *Library) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

// Reload scans the directory and replaces the loaded set. Files that fail to
// parse are skipped with a warning; a missing directory yields an empty
// library rather than an error, since templates are optional.
func (l *Library) Reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.replace(map[string]Template{})
			return nil
		}
		return fmt.Errorf("templates: read dir: %w", err)
	}

	loaded := make(map[string]Template)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.log().Warn("template unreadable, skipping", "path", path, "error", err)
			continue
		}
		tmpl, err := Parse(string(data))
		if err != nil {
			l.log().Warn("template invalid, skipping", "path", path, "error", err)
			continue
		}
		if _, dup := loaded[tmpl.Name]; dup {
			l.log().Warn("duplicate template name, keeping first", "name", tmpl.Name, "path", path)
			continue
		}
		loaded[tmpl.Name] = *tmpl
	}

	l.replace(loaded)
	return nil
}

func (l *Library) replace(loaded map[string]Template) {
	l.mu.Lock()
	l.templates = loaded
	l.mu.Unlock()
}

// Get returns the template with the given name.
func (l *Library) Get(name string) (Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tmpl, ok := l.templates[name]
	return tmpl, ok
}

// Items satisfies tooling.TemplateSource.
func (l *Library) Items(name string) ([]string, bool) {
	tmpl, ok := l.Get(name)
	if !ok {
		return nil, false
	}
	return tmpl.Items, true
}

// Names returns the loaded template names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.templates))
	for name := range l.templates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
