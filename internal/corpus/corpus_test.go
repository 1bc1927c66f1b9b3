package corpus

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirSourceDiscoversSortedCategories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "spor", "2.txt"), "gol")
	writeFile(t, filepath.Join(root, "spor", "1.txt"), "maç")
	writeFile(t, filepath.Join(root, "ekonomi", "a.txt"), "faiz")
	writeFile(t, filepath.Join(root, "magazin", "x.txt"), "dizi")
	writeFile(t, filepath.Join(root, "magazin", "notes.md"), "skipped")
	writeFile(t, filepath.Join(root, "magazin", ".hidden.txt"), "skipped")
	writeFile(t, filepath.Join(root, "README.txt"), "not a category")

	src := NewDirSource(root, 3, []string{"txt"})
	docs, err := src.Documents(context.Background())
	require.NoError(t, err)

	var got []string
	for _, d := range docs {
		got = append(got, d.CategoryName+"/"+d.Name)
	}
	assert.Equal(t, []string{"ekonomi/a.txt", "magazin/x.txt", "spor/1.txt", "spor/2.txt"}, got)
	assert.Equal(t, []int{0, 1, 2, 2}, []int{docs[0].Category, docs[1].Category, docs[2].Category, docs[3].Category})

	rc, err := src.Open(docs[2])
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "maç", string(data))
}

func TestDirSourceAcceptsAllWithoutExtensions(t *testing.T) {
	root := t.TempDir()
	for _, c := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(root, c, "doc"), "x")
		writeFile(t, filepath.Join(root, c, "doc.md"), "y")
	}
	docs, err := NewDirSource(root, 3, nil).Documents(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 6)
}

func TestDirSourceWrongCategoryCount(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "only", "a.txt"), "x")

	_, err := NewDirSource(root, 3, nil).Documents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDirSourceMissingRoot(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "absent"), 3, nil).Documents(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMemorySource(t *testing.T) {
	m := NewMemory().Add(0, "d0", "a b").Add(1, "d1", "c")
	docs, err := m.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	rc, err := m.Open(docs[1])
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))

	_, err = m.Open(Document{Path: "mem://9/none"})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
