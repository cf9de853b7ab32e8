package storage

import (
	"testing"

	"energystats/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore(map[string]string{
		"2023/11/29/23-30": "",
		"2023/12/01/20-00": "",
		"2023/12/10/08-00": "",
	})

	files, err := store.List("2023/12/01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2023/12/01/20-00"}, files)

	files, err = store.List("2023/12")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2023/12/01/20-00", "2023/12/10/08-00"}, files)

	// segment-wise prefix: 2023/12/1 is not a parent of 2023/12/10
	files, err = store.List("2023/12/1")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = store.List("")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = store.List("2024/01/01")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestMemoryStoreReadWrite(t *testing.T) {
	seed := map[string]string{"a/b": "one"}
	store := NewMemoryStore(seed)

	contents, err := store.ReadContents("a/b")
	require.NoError(t, err)
	assert.Equal(t, "one", contents)

	_, err = store.ReadContents("a/c")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	require.NoError(t, store.Write("a/c", []byte("two")))
	assert.Equal(t, 2, store.Len())
	// the seed map is copied, not aliased
	assert.Len(t, seed, 1)

	assert.True(t, errors.IsType(store.Write("/a/d", nil), errors.ErrorTypeInvalidArgument))
	assert.True(t, errors.IsType(store.Write("../a/d", nil), errors.ErrorTypeInvalidArgument))
}

func TestMemoryStoreRemove(t *testing.T) {
	store := NewMemoryStore(map[string]string{"a/b": "one", "a/c": "two"})

	require.NoError(t, store.Remove("a/b"))
	assert.Equal(t, 1, store.Len())
	assert.True(t, errors.IsType(store.Remove("a/b"), errors.ErrorTypeNotFound))
}

func TestImplementationsSatisfyStore(t *testing.T) {
	var _ Store = (*FileStore)(nil)
	var _ Store = (*MemoryStore)(nil)
}
