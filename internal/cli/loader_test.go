package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

func TestLoadDocumentsCUEFile(t *testing.T) {
	docs, err := LoadDocuments(ordersCUE)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "orders", doc.Name, "name falls back to the file name")
	assert.Equal(t, "overwrite", doc.Settings.MergeMethod)
	require.Len(t, doc.Transforms, 2)
	assert.Equal(t, ir.Rule{"total": ir.Scalar("input.price * input.qty")}, doc.Transforms[0])
	assert.Equal(t, ir.Rule{"flags": ir.Group{{"big": ir.Scalar("derived.total > 100")}}}, doc.Transforms[1])
}

func TestLoadDocumentsCUEPackage(t *testing.T) {
	docs, err := LoadDocuments(packageDir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	names := []string{docs[0].Name, docs[1].Name}
	assert.ElementsMatch(t, []string{"orders", "labels"}, names)
}

func TestLoadDocumentsYAMLMap(t *testing.T) {
	docs, err := LoadDocuments(ordersYAML)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Sorted by name.
	assert.Equal(t, "labels", docs[0].Name)
	assert.Equal(t, "preserve", docs[0].Settings.MergeMethod)
	assert.Equal(t, "orders", docs[1].Name)
}

func TestLoadDocumentsJSONKeepsMalformedRules(t *testing.T) {
	docs, err := LoadDocuments(invalidJSON)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "invalid", docs[0].Name)
	assert.Len(t, docs[0].Transforms, 3)
}

func TestLoadDocumentsErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing path", filepath.Join(dir, "nope.cue"), ErrCodeNotFound},
		{"empty directory", t.TempDir(), ErrCodeNoDocuments},
		{"no documents", write("empty.json", `{"other": 1}`), ErrCodeNoDocuments},
		{"unknown extension", write("doc.toml", `x = 1`), ErrCodeLoadFailed},
		{"bad transforms", write("bad.json", `{"transforms": "x"}`), ErrCodeLoadFailed},
		{"bad cue", write("bad.cue", `transforms: [`), ErrCodeBuildFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocuments(tt.path)
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestSelectDocument(t *testing.T) {
	docs := []ir.Document{{Name: "a"}, {Name: "b"}}

	doc, err := SelectDocument(docs, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Name)

	_, err = SelectDocument(docs, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeAmbiguousDoc)
	assert.Contains(t, err.Error(), "a, b")

	_, err = SelectDocument(docs, "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoSuchName)

	doc, err = SelectDocument(docs[:1], "")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Name)
}

func TestLoadRecords(t *testing.T) {
	want := []ir.Object{
		{"sku": ir.String("abc"), "price": ir.Int(50), "qty": ir.Int(3)},
		{"sku": ir.String("def"), "price": ir.Int(5)},
	}

	for _, path := range []string{
		filepath.Join("testdata", "orders.json"),
		filepath.Join("testdata", "orders.yaml"),
	} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			records, err := LoadRecords(path, nil)
			require.NoError(t, err)
			assert.Equal(t, want, records)
		})
	}

	t.Run("jsonl skips blank lines", func(t *testing.T) {
		records, err := LoadRecords(ordersJSONL, nil)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, want, records[:2])
	})

	t.Run("single object", func(t *testing.T) {
		records, err := LoadRecords(orderJSON, nil)
		require.NoError(t, err)
		assert.Equal(t, want[:1], records)
	})
}

func TestLoadRecordsStdin(t *testing.T) {
	records, err := LoadRecords("-", strings.NewReader("{\"a\": 1}\n{\"a\": 2}\n"))
	require.NoError(t, err)
	assert.Equal(t, []ir.Object{{"a": ir.Int(1)}, {"a": ir.Int(2)}}, records)

	records, err = LoadRecords("-", strings.NewReader(` [{"a": 1}]`))
	require.NoError(t, err)
	assert.Equal(t, []ir.Object{{"a": ir.Int(1)}}, records)
}

func TestLoadRecordsErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
		code string
		msg  string
	}{
		{"missing", filepath.Join(dir, "nope.jsonl"), ErrCodeNotFound, "not found"},
		{"bad line", write("bad.jsonl", "{\"a\": 1}\n[1]\n"), ErrCodeBadRecords, "line 2"},
		{"non-object item", write("list.json", `[{"a": 1}, 2]`), ErrCodeBadRecords, "record 1"},
		{"scalar", write("scalar.yaml", `3`), ErrCodeBadRecords, "expected object or list"},
		{"unsupported", write("rows.csv", "a,b\n"), ErrCodeBadRecords, "unsupported records format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRecords(tt.path, nil)
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.code, loadErr.Code)
			assert.Contains(t, loadErr.Message, tt.msg)
		})
	}
}
