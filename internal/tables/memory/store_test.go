package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityprofit/moveout-tracker/internal/tables"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	recs, err := s.Create(ctx, "t", []tables.Fields{
		{"property_id": "p1", "timestamp": "2024-01-01"},
		{"property_id": "p2", "timestamp": "2024-03-01"},
		{"property_id": "p1", "timestamp": "2024-02-01"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	got, err := s.Select(ctx, "t", tables.Query{
		Filter: tables.Eq("property_id", "p1"),
		Sort:   []tables.Sort{{Field: "timestamp", Direction: tables.Desc}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-02-01", got[0].Fields.String("timestamp"))

	got, err = s.Select(ctx, "t", tables.Query{MaxRecords: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	upd, err := s.Update(ctx, "t", recs[0].ID, tables.Fields{"status": "Called"})
	require.NoError(t, err)
	assert.Equal(t, "p1", upd.Fields.String("property_id"))
	assert.Equal(t, "Called", upd.Fields.String("status"))

	require.NoError(t, s.Destroy(ctx, "t", []string{recs[0].ID}))
	assert.Equal(t, 2, s.Len("t"))
	require.ErrorIs(t, s.Destroy(ctx, "t", []string{recs[0].ID}), tables.ErrRecordNotFound)
	_, err = s.Update(ctx, "t", "nope", tables.Fields{})
	require.ErrorIs(t, err, tables.ErrRecordNotFound)
}

func TestSelectReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	recs, err := s.Create(ctx, "t", []tables.Fields{{"a": "1"}})
	require.NoError(t, err)
	recs[0].Fields["a"] = "changed"

	got, err := s.Select(ctx, "t", tables.Query{})
	require.NoError(t, err)
	assert.Equal(t, "1", got[0].Fields.String("a"))
}
