package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostSort(t *testing.T) {
	tests := []struct {
		in   string
		want PostSort
	}{
		{"newest", SortNewest},
		{"oldest", SortOldest},
		{"title_asc", SortTitleAsc},
		{"source_asc", SortSourceAsc},
		{"", SortNewest},
		{"random", SortNewest},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePostSort(tt.in))
		})
	}
}

func TestParseTag(t *testing.T) {
	t.Run("known tag", func(t *testing.T) {
		tag, err := ParseTag(" SRE ")
		require.NoError(t, err)
		assert.Equal(t, TagSRE, tag)
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, err := ParseTag("blockchain")
		require.Error(t, err)
	})

	t.Run("vocabulary", func(t *testing.T) {
		tags := AllTags()
		assert.Len(t, tags, 9)
		for _, tag := range tags {
			assert.True(t, tag.Valid())
			assert.NotEqual(t, string(tag), tag.Label())
		}
		assert.False(t, Tag("other").Valid())
		assert.Equal(t, "other", Tag("other").Label())
	})
}
