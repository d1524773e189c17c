package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

func TestSavedCardStoreReplaceSelectsFirst(t *testing.T) {
	var s SavedCardStore
	s.Replace([]models.SavedCard{{Last4: "4242"}, {Identifier: "k", Last4: "1111"}})

	require.Equal(t, 2, s.Len())
	assert.Equal(t, "0", s.List()[0].Identifier.String(), "missing identifiers fall back to the index")
	require.NotNil(t, s.Selected())
	assert.Equal(t, "0", s.Selected().Identifier.String())
}

func TestSavedCardStoreRemove(t *testing.T) {
	var s SavedCardStore
	s.Replace([]models.SavedCard{{Identifier: "a"}, {Identifier: "b"}, {Identifier: "c"}})
	require.NoError(t, s.Select("b"))

	assert.True(t, s.Remove("b"))
	assert.Equal(t, "a", s.Selected().Identifier.String())

	assert.True(t, s.Remove("c"))
	assert.Equal(t, "a", s.Selected().Identifier.String(), "unrelated removal keeps the selection")

	assert.False(t, s.Remove("zzz"))
	assert.True(t, s.Remove("a"))
	assert.Nil(t, s.Selected())
	assert.Zero(t, s.Len())
}

func TestSavedCardStoreReplaceKeepsSelection(t *testing.T) {
	var s SavedCardStore
	s.Replace([]models.SavedCard{{Identifier: "a"}, {Identifier: "b"}})
	require.NoError(t, s.Select("b"))

	s.Replace([]models.SavedCard{{Identifier: "b"}, {Identifier: "c"}})
	assert.Equal(t, "b", s.Selected().Identifier.String())

	s.Replace([]models.SavedCard{{Identifier: "d"}})
	assert.Equal(t, "d", s.Selected().Identifier.String())

	assert.ErrorIs(t, s.Select("b"), ErrCardNotFound)
}

func TestSavedCardStoreListIsACopy(t *testing.T) {
	var s SavedCardStore
	s.Replace([]models.SavedCard{{Identifier: "a", Last4: "0001"}})

	list := s.List()
	list[0].Last4 = "9999"
	card, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "0001", card.Last4)
}
