package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

func TestExportImportGuests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guests.jsonl")
	guests := []types.Guest{
		{ID: "guest-1", FullName: "Alice", RSVPStatus: types.RSVPAttending, Tags: []string{"VIP"}, Email: "a@x"},
		{ID: "guest-2", FullName: "Bob", RSVPStatus: types.RSVPDeclined, Tags: []string{}, Email: "b@x", Notes: "Plus one"},
	}
	require.NoError(t, ExportGuests(path, guests))

	got, skipped, err := ImportGuests(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, guests, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExportReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guests.jsonl")
	require.NoError(t, ExportGuests(path, []types.Guest{{ID: "a"}, {ID: "b"}}))
	require.NoError(t, ExportGuests(path, []types.Guest{{ID: "c"}}))

	got, _, err := ImportGuests(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestImportSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guests.jsonl")
	content := `{"id":"guest-1","fullName":"Alice","email":"a@x"}

{not json
{"fullName":"No Id"}
{"id":"guest-2","followerCount":"many"}
{"id":"guest-3","fullName":"Carol","tags":["Press"],"extra":true}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, skipped, err := ImportGuests(path)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, got, 2)
	assert.Equal(t, "guest-1", got[0].ID)
	assert.Equal(t, []string{}, got[0].Tags)
	assert.Equal(t, []string{"Press"}, got[1].Tags)
}

func TestImportMissingFile(t *testing.T) {
	_, _, err := ImportGuests(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
