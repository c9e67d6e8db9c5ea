package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	ids := make([]string, 23)
	chunks := Chunk(ids, MaxBatch)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 3)
	assert.Nil(t, Chunk(nil, MaxBatch))
}

func TestFilterMatches(t *testing.T) {
	var f *Filter
	assert.True(t, f.Matches(Fields{}))
	assert.True(t, AnyOf("k", []string{"a", "b"}).Matches(Fields{"k": "b"}))
	assert.False(t, Eq("k", "a").Matches(Fields{}))
}

func TestFieldsString(t *testing.T) {
	f := Fields{"s": "x", "n": 3, "nil": nil}
	assert.Equal(t, "x", f.String("s"))
	assert.Equal(t, "3", f.String("n"))
	assert.Equal(t, "", f.String("nil"))
	assert.Equal(t, "", f.String("missing"))
}
