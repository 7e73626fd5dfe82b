package metadata

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/bat-cli/internal/model"
)

func sourceReader(sources []Source) func(string) (string, error) {
	return func(p string) (string, error) {
		for _, s := range sources {
			if s.Path == p {
				return s.Content, nil
			}
		}
		return "", os.ErrNotExist
	}
}

func TestCallGraph(t *testing.T) {
	t.Parallel()

	sources := programSources()
	md, err := NewBuilder().Build(context.Background(), sources)
	require.NoError(t, err)

	reads := 0
	read := sourceReader(sources)
	g, err := CallGraph(md, func(p string) (string, error) {
		reads++
		return read(p)
	})
	require.NoError(t, err)
	assert.Equal(t, len(sources), reads)

	assert.Equal(t, []string{"handle_create_game", "validate_seed"}, g.Dependencies("create_game"))
	assert.Equal(t, []string{"create_game"}, g.Callers("validate_seed"))
	assert.Equal(t, []string{"handle_create_game", "validate_seed"}, g.Reachable("create_game"))
	for _, f := range md.Functions {
		assert.Equal(t, f.Dependencies, g.Dependencies(f.Name), f.Name)
	}
}

func TestCallGraphStaleLocation(t *testing.T) {
	t.Parallel()

	md := &model.Metadata{Functions: []model.FunctionMetadata{{
		Location: model.Location{Name: "gone", Path: "lib.rs", StartLine: 10, EndLine: 12},
	}}}
	_, err := CallGraph(md, func(string) (string, error) { return "fn gone() {\n}\n", nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = CallGraph(md, func(string) (string, error) { return "", os.ErrNotExist })
	assert.ErrorIs(t, err, os.ErrNotExist)
}
