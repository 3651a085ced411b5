package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edirooss/mtsync/internal/model"
)

func TestScoreSymmetric(t *testing.T) {
	a := model.Item{".id": "1", "x": "1", "y": "2"}
	b := model.Item{"x": "1", "y": "3", "z": "4"}
	assert.Equal(t, Score(a, b), Score(b, a))
}

func TestScoreIgnoresID(t *testing.T) {
	a := model.Item{".id": "1", "x": "1"}
	b := model.Item{".id": "2", "x": "1"}
	assert.Equal(t, 1, Score(a, b))
}

func TestEqualAllEmptyItemsIgnoringID(t *testing.T) {
	a := model.Item{".id": "1"}
	b := model.Item{}
	assert.True(t, Equal(a, b))
}

func TestEqualRequiresFullAgreement(t *testing.T) {
	a := model.Item{".id": "1", "x": "1", "y": "2"}
	b := model.Item{"x": "1", "y": "2"}
	assert.True(t, Equal(a, b))

	c := model.Item{"x": "1", "y": "3"}
	assert.False(t, Equal(a, c))
}

func TestGreedyPairsMaxAgreementFirst(t *testing.T) {
	current := []model.Item{
		{".id": "1", "x": "1", "y": "9"},
		{".id": "2", "x": "1", "y": "2"},
	}
	desired := []model.Item{
		{"x": "1", "y": "2"},
	}

	pairs, unmatchedCur, unmatchedDes := GreedyPairs(current, desired)
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, 1, pairs[0].CurrentIndex)
		assert.Equal(t, 0, pairs[0].DesiredIndex)
	}
	assert.Equal(t, []int{0}, unmatchedCur)
	assert.Empty(t, unmatchedDes)
}

func TestGreedyPairsExhaustsShorterSide(t *testing.T) {
	current := []model.Item{{".id": "1", "k": "a"}}
	desired := []model.Item{{"k": "a"}, {"k": "b"}}

	pairs, unmatchedCur, unmatchedDes := GreedyPairs(current, desired)
	assert.Len(t, pairs, 1)
	assert.Empty(t, unmatchedCur)
	assert.Len(t, unmatchedDes, 1)
}
