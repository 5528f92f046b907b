package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/branchtale/internal/dto"
	"github.com/aretw0/branchtale/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPollInterval is how often Watch checks the file for changes.
const DefaultPollInterval = 500 * time.Millisecond

// Loader implements ports.StoryLoader for a single YAML or JSON story file.
type Loader struct {
	Path     string
	Interval time.Duration
}

// NewLoader creates a loader for the story file at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path, Interval: DefaultPollInterval}
}

// Load reads and decodes the story file.
func (l *Loader) Load(ctx context.Context) (*domain.Story, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	return Decode(l.Path, data)
}

// Decode parses story bytes. JSON is selected by the .json extension,
// everything else is parsed as YAML.
func Decode(source string, data []byte) (*domain.Story, error) {
	var raw map[string]any
	if strings.EqualFold(filepath.Ext(source), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, &dto.DecodeError{Source: source, Err: err}
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &dto.DecodeError{Source: source, Err: err}
	}

	if raw == nil {
		return nil, &dto.DecodeError{Source: source, Err: fmt.Errorf("empty document")}
	}
	return dto.DecodeStory(source, raw)
}

// Watch polls the file modification time and signals when it changes.
// The channel is closed when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to watch story file: %w", err)
	}

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := info.ModTime()
		size := info.Size()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(l.Path)
				if err != nil {
					continue
				}
				if info.ModTime().Equal(last) && info.Size() == size {
					continue
				}
				last, size = info.ModTime(), info.Size()
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}
