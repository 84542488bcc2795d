package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaValue_TypedAccessors(t *testing.T) {
	i := MetaInt(42)
	got, ok := i.Int()
	require.True(t, ok)
	assert.Equal(t, int64(42), got)
	_, ok = i.String()
	assert.False(t, ok)

	// Integers read as floats losslessly; strings do not.
	f, ok := i.Float()
	require.True(t, ok)
	assert.Equal(t, 42.0, f)
	_, ok = MetaString("42").Float()
	assert.False(t, ok)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	v, ok := MetaTime(ts).Time()
	require.True(t, ok)
	assert.True(t, v.Equal(ts))
}

func TestChunk_MetaIndex(t *testing.T) {
	chunk := Chunk{Metadata: map[string]MetaValue{MetaKeyIndex: MetaInt(2)}}
	idx, ok := chunk.MetaIndex()
	require.True(t, ok)
	assert.Equal(t, int64(2), idx)

	_, ok = Chunk{}.MetaIndex()
	assert.False(t, ok)

	// A string under the index key is not an index.
	mistyped := Chunk{Metadata: map[string]MetaValue{MetaKeyIndex: MetaString("2")}}
	_, ok = mistyped.MetaIndex()
	assert.False(t, ok)
}

func TestChunk_WithContent_DoesNotShareMetadata(t *testing.T) {
	original := Chunk{
		ID:      "c1",
		Content: "before",
		Metadata: map[string]MetaValue{
			MetaKeyIndex: MetaInt(0),
		},
	}

	copied := original.WithContent("after")
	copied.Metadata["extra"] = MetaString("x")

	assert.Equal(t, "after", copied.Content)
	assert.Equal(t, "before", original.Content)
	assert.NotContains(t, original.Metadata, "extra")
}
