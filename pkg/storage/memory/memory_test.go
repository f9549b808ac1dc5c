package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/invoice-extractor/pkg/storage"
)

func TestPutGetOverwrite(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "intake/a.pdf", bytes.NewReader([]byte("v1"))))
	require.NoError(t, m.Put(ctx, "intake/a.pdf", bytes.NewReader([]byte("v2"))))

	r, err := m.Get(ctx, "intake/a.pdf")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestNotFoundSemantics(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.True(t, storage.IsNotFound(err))

	err = m.Copy(ctx, "missing", "elsewhere")
	assert.True(t, storage.IsNotFound(err))

	err = m.Delete(ctx, "missing")
	assert.True(t, storage.IsNotFound(err))
}

func TestListFiltersByPrefix(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"intake/a.pdf", "intake/b.pdf", "done/c.pdf"} {
		require.NoError(t, m.Put(ctx, key, bytes.NewReader([]byte("x"))))
	}

	keys, err := m.List(ctx, "intake/")
	require.NoError(t, err)
	assert.Equal(t, []string{"intake/a.pdf", "intake/b.pdf"}, keys)

	keys, err = m.List(ctx, "json/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCopyIsIndependent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "src", bytes.NewReader([]byte("original"))))
	require.NoError(t, m.Copy(ctx, "src", "dst"))
	require.NoError(t, m.Put(ctx, "src", bytes.NewReader([]byte("mutated"))))

	assert.Equal(t, []byte("original"), m.Content("dst"))

	require.NoError(t, m.Delete(ctx, "src"))
	assert.True(t, m.Exists("dst"), "copy survives source deletion")
}
