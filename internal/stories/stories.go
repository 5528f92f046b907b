// Package stories bundles the built-in story content.
package stories

import (
	"context"
	_ "embed"

	"github.com/aretw0/branchtale/pkg/adapters/file"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
)

//go:embed cave.yaml
var caveYAML []byte

// CaveSource is the pseudo path used when reporting decode errors for the built-in story.
const CaveSource = "builtin:cave.yaml"

// CaveYAML returns the raw definition of "The Cave of Whispers".
func CaveYAML() []byte {
	return append([]byte(nil), caveYAML...)
}

// Cave decodes "The Cave of Whispers". Each call returns a fresh copy.
func Cave() (*domain.Story, error) {
	return file.Decode(CaveSource, caveYAML)
}

type caveLoader struct{}

func (caveLoader) Load(ctx context.Context) (*domain.Story, error) {
	return Cave()
}

// CaveLoader serves the built-in story through the ports.StoryLoader interface.
func CaveLoader() ports.StoryLoader {
	return caveLoader{}
}
