package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	json "github.com/goccy/go-json"
)

func TestDecodeStripsMetadata(t *testing.T) {
	root, meta, err := Decode([]byte(`{"metadata": {"hostname": "r1"}, "ipv6": {"address": []}}`))
	require.NoError(t, err)
	assert.NotContains(t, root, MetadataKey)
	assert.JSONEq(t, `{"hostname": "r1"}`, string(meta))
}

func TestDecodeRejectsNonObjectRoot(t *testing.T) {
	_, _, err := Decode([]byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestClassifyNull(t *testing.T) {
	n, err := Classify("/x", json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, Null, n.Kind)
}

func TestClassifyCollection(t *testing.T) {
	n, err := Classify("/ip/address", json.RawMessage(`[{"address":"10.0.0.1/24"}]`))
	require.NoError(t, err)
	require.Equal(t, Collection, n.Kind)
	assert.Equal(t, "10.0.0.1/24", n.Items[0]["address"])
}

func TestClassifyLeaf(t *testing.T) {
	n, err := Classify("/ip/settings", json.RawMessage(`{"rp-filter":"no"}`))
	require.NoError(t, err)
	require.Equal(t, Leaf, n.Kind)
	assert.Equal(t, "no", n.Settings["rp-filter"])
}

func TestClassifyContainer(t *testing.T) {
	n, err := Classify("/ipv6", json.RawMessage(`{"address": [], "route": {}}`))
	require.NoError(t, err)
	require.Equal(t, Container, n.Kind)
	assert.Len(t, n.Children, 2)
}

func TestClassifyEmptyObjectIsContainer(t *testing.T) {
	n, err := Classify("/x", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, Container, n.Kind)
	assert.Empty(t, n.Children)
}

func TestClassifyRejectsBareScalar(t *testing.T) {
	_, err := Classify("/x", json.RawMessage(`5`))
	assert.Error(t, err)
}

func TestClassifyRejectsListOfNonObjects(t *testing.T) {
	_, err := Classify("/x", json.RawMessage(`[1,2,3]`))
	assert.Error(t, err)
}
