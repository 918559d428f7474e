package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("<rollcall-vote/>")
	uri, err := store.PutObject(context.Background(), "house/2024/roll001.xml", "text/xml", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "memory://house/2024/roll001.xml", uri)

	payload[0] = 'X'
	stored, contentType, ok := store.Object("house/2024/roll001.xml")
	require.True(t, ok)
	require.Equal(t, "<rollcall-vote/>", string(stored))
	require.Equal(t, "text/xml", contentType)

	_, _, ok = store.Object("missing")
	require.False(t, ok)
}

func TestBlobStorePathsSorted(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	for _, p := range []string{"senate/b", "house/a", "senate/a"} {
		_, err := store.PutObject(context.Background(), p, "", bytes.NewReader(nil))
		require.NoError(t, err)
	}
	require.Equal(t, []string{"house/a", "senate/a", "senate/b"}, store.Paths())
}
