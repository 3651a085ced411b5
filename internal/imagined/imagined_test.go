package imagined

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/mtsync/internal/idcodec"
	"github.com/edirooss/mtsync/internal/model"
)

func items(pairs ...model.Item) []model.Item { return pairs }

func TestAppend(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, items(
		model.Item{".id": "1", "key": "v1"},
		model.Item{".id": "2", "key": "v2"},
	))
	l.Append(model.Item{"key": "v3"})

	assert.Equal(t, []model.Item{
		{".id": "1", "key": "v1"},
		{".id": "2", "key": "v2"},
		{".id": "3", "key": "v3"},
	}, l.State())
}

func TestAppendOnEmptyListStartsAtOne(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, nil)
	l.Append(model.Item{"key": "v1"})
	assert.Equal(t, []model.Item{{".id": "1", "key": "v1"}}, l.State())
}

func TestDeleteRenumbersHigherIDsDown(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, items(
		model.Item{".id": "1", "k": "a"},
		model.Item{".id": "2", "k": "b"},
		model.Item{".id": "3", "k": "c"},
	))
	l.Delete("2")

	assert.Equal(t, []model.Item{
		{".id": "1", "k": "a"},
		{".id": "2", "k": "c"},
	}, l.State())
}

func TestMoveUp(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, items(
		model.Item{".id": "1", "k": "a"},
		model.Item{".id": "2", "k": "b"},
		model.Item{".id": "3", "k": "c"},
	))
	require.NoError(t, l.Move("3", "2"))

	assert.Equal(t, []model.Item{
		{".id": "1", "k": "a"},
		{".id": "2", "k": "c"},
		{".id": "3", "k": "b"},
	}, l.State())
}

func TestLongerReorderTwoMoves(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, items(
		model.Item{".id": "1", "f": "v2"},
		model.Item{".id": "2", "f": "v3"},
		model.Item{".id": "3", "f": "v1"},
		model.Item{".id": "4", "f": "v5"},
		model.Item{".id": "5", "f": "v4"},
		model.Item{".id": "6", "f": "v6"},
	))

	require.NoError(t, l.Move("3", "1"))
	assert.Equal(t, []model.Item{
		{".id": "1", "f": "v1"},
		{".id": "2", "f": "v2"},
		{".id": "3", "f": "v3"},
		{".id": "4", "f": "v5"},
		{".id": "5", "f": "v4"},
		{".id": "6", "f": "v6"},
	}, l.State())

	require.NoError(t, l.Move("5", "4"))
	assert.Equal(t, []model.Item{
		{".id": "1", "f": "v1"},
		{".id": "2", "f": "v2"},
		{".id": "3", "f": "v3"},
		{".id": "4", "f": "v4"},
		{".id": "5", "f": "v5"},
		{".id": "6", "f": "v6"},
	}, l.State())
}

func TestMoveMissingIDIsInvariantViolation(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, items(model.Item{".id": "1", "k": "a"}))
	err := l.Move("9", "1")
	require.Error(t, err)
	var ive *InvariantViolationError
	assert.ErrorAs(t, err, &ive)
	assert.False(t, ive.SourceFound)
	assert.True(t, ive.DestFound)
}

func TestUpdatePreservesID(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, items(model.Item{".id": "1", "k": "old"}))
	l.Update("1", model.Item{"k": "new"})
	assert.Equal(t, []model.Item{{".id": "1", "k": "new"}}, l.State())
}

func TestIDsRemainCompactAfterSequence(t *testing.T) {
	codec := idcodec.New()
	l := New(codec, nil)
	l.Append(model.Item{"k": "a"})
	l.Append(model.Item{"k": "b"})
	l.Append(model.Item{"k": "c"})
	l.Delete("2")
	l.Append(model.Item{"k": "d"})

	seen := map[int]bool{}
	for _, it := range l.State() {
		id, err := codec.ToInt(it[".id"])
		require.NoError(t, err)
		seen[id] = true
	}
	for i := 1; i <= len(l.State()); i++ {
		assert.True(t, seen[i], "id %d missing from compact range", i)
	}
}
