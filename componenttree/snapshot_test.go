package componenttree

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// treeGoldie creates a goldie instance for snapshot serialization tests
func treeGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithNameSuffix(".gold.json"))
}

func TestTreeSnapshotSerialization(t *testing.T) {
	builder := NewBuilder(sampleWorkspace())

	tree, err := builder.Build("/app/src/index.tsx", relativeSettings())
	require.NoError(t, err)

	data, err := json.MarshalIndent(tree, "", "  ")
	require.NoError(t, err)

	g := treeGoldie(t)
	g.Assert(t, "component_tree", data)
}
