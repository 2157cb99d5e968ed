package canonical

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/jsondoc"
	"github.com/conneroisu/wmnctl/internal/store"
)

const (
	dataPath   = "/repo/wmn-data.json"
	schemaPath = "/repo/wmn-data-schema.json"
)

const siteSchema = `{
  "type": "object",
  "properties": {
    "authors": {"type": "array"},
    "categories": {"type": "array"},
    "sites": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "headers": {"type": "object"}
        }
      }
    }
  }
}`

// countingFs records how many files are opened for writing.
type countingFs struct {
	afero.Fs
	creates int
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 {
		c.creates++
	}
	return c.Fs.OpenFile(name, flag, perm)
}

func setup(t *testing.T, data, schema string) (*store.Store, *countingFs) {
	t.Helper()
	fs := &countingFs{Fs: afero.NewMemMapFs()}
	require.NoError(t, fs.MkdirAll("/repo", 0o755))
	require.NoError(t, afero.WriteFile(fs.Fs, dataPath, []byte(data), 0o644))
	require.NoError(t, afero.WriteFile(fs.Fs, schemaPath, []byte(schema), 0o644))
	return store.New(fs, dataPath, schemaPath), fs
}

func TestFormatDataEndToEnd(t *testing.T) {
	st, _ := setup(t,
		`{"authors":["b","a"],"categories":["y","x"],"sites":[{"name":"Zeta","headers":{"b":"2","a":"1"}},{"name":"Alpha","headers":{}}]}`,
		siteSchema)

	out, err := New(st).FormatData()
	require.NoError(t, err)

	expected := `{
  "authors": [
    "a",
    "b"
  ],
  "categories": [
    "x",
    "y"
  ],
  "sites": [
    {
      "name": "Alpha",
      "headers": {}
    },
    {
      "name": "Zeta",
      "headers": {
        "a": "1",
        "b": "2"
      }
    }
  ]
}`
	assert.Equal(t, expected, out)

	// The cached document reflects the rewrite.
	data, err := st.Data()
	require.NoError(t, err)
	authors, _ := data.(*jsondoc.Object).Get("authors")
	assert.Equal(t, []any{"a", "b"}, authors)
}

func TestFormatDataOrdering(t *testing.T) {
	st, _ := setup(t, `{
  "sites": [
    {"headers": {"X-b": "1", "x-A": "2", "x-a": "3"}, "name": "beta"},
    {"name": "Alpha"},
    {"headers": "raw"},
    {"name": "alpha", "headers": {}},
    {"name": "ÉCOLE"},
    {"name": "ecole"}
  ],
  "categories": ["social", "Coding", "art"],
  "authors": ["zed", "Amy", "amy"]
}`, siteSchema)

	_, err := New(st).FormatData()
	require.NoError(t, err)

	raw, err := st.Data()
	require.NoError(t, err)
	data := raw.(*jsondoc.Object)

	// Top-level order is preserved.
	assert.Equal(t, []string{"sites", "categories", "authors"}, data.Keys())

	authors, _ := data.Get("authors")
	assert.Equal(t, []any{"Amy", "amy", "zed"}, authors)
	categories, _ := data.Get("categories")
	assert.Equal(t, []any{"art", "Coding", "social"}, categories)

	sitesRaw, _ := data.Get("sites")
	sites := sitesRaw.([]any)
	var names []any
	for _, s := range sites {
		name, _ := s.(*jsondoc.Object).Get("name")
		names = append(names, name)
	}
	assert.Equal(t, []any{nil, "Alpha", "alpha", "beta", "ecole", "ÉCOLE"}, names)

	// A non-object headers value passes through.
	headers, _ := sites[0].(*jsondoc.Object).Get("headers")
	assert.Equal(t, "raw", headers)

	beta := sites[3].(*jsondoc.Object)
	assert.Equal(t, []string{"name", "headers"}, beta.Keys())
	betaHeaders, _ := beta.Get("headers")
	assert.Equal(t, []string{"x-A", "x-a", "X-b"}, betaHeaders.(*jsondoc.Object).Keys())
}

func TestFormatDataStringArrayErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{name: "missing authors", data: `{"categories": ["a"], "sites": []}`, message: "'authors' is required but not found"},
		{name: "null authors", data: `{"authors": null, "categories": ["a"], "sites": []}`, message: "'authors' is required but not found"},
		{name: "empty authors", data: `{"authors": [], "categories": ["a"], "sites": []}`, message: "'authors' must be a non-empty list"},
		{name: "authors not a list", data: `{"authors": "a", "categories": ["a"], "sites": []}`, message: "'authors' must be a non-empty list"},
		{name: "blank author", data: `{"authors": ["a", "  "], "categories": ["a"], "sites": []}`, message: "'authors' must contain non-empty strings"},
		{name: "non-string category", data: `{"authors": ["a"], "categories": ["a", 1], "sites": []}`, message: "'categories' must contain non-empty strings"},
		{name: "sites not a list", data: `{"authors": ["a"], "categories": ["a"], "sites": {}}`, message: "'sites' must be a list, got object"},
		{name: "site not an object", data: `{"authors": ["a"], "categories": ["a"], "sites": [1]}`, message: "site at index 0 must be an object"},
		{name: "data not an object", data: `[]`, message: "data must be an object, got array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _ := setup(t, tt.data, siteSchema)
			_, err := New(st).FormatData()
			require.Error(t, err)
			assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeFormat))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFormatDataSchemaErrors(t *testing.T) {
	data := `{"authors": ["a"], "categories": ["a"], "sites": [{"name": "x"}]}`

	tests := []struct {
		name   string
		schema string
		code   string
	}{
		{name: "no properties", schema: `{"type": "object"}`, code: wmnerrors.ErrCodeSchemaMissing},
		{name: "no items", schema: `{"properties": {"sites": {"type": "array"}}}`, code: wmnerrors.ErrCodeSchemaMissing},
		{name: "site properties not an object", schema: `{"properties": {"sites": {"items": {"properties": ["name"]}}}}`, code: wmnerrors.ErrCodeSchemaInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _ := setup(t, data, tt.schema)
			_, err := New(st).FormatData()
			require.Error(t, err)
			assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeSchema))
			assert.Equal(t, tt.code, wmnerrors.CodeOf(err))
		})
	}
}

func TestFormatDataUnknownKeysIsStrict(t *testing.T) {
	input := `{"authors": ["b", "a"], "categories": ["a"], "sites": [{"name": "Site", "extra": 1, "url": "u"}]}`
	st, fs := setup(t, input, siteSchema)
	f := New(st)

	previous, err := st.DataRaw()
	require.NoError(t, err)
	changed, err := f.FormatFile(f.FormatData, previous, dataPath)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, wmnerrors.ErrCodeUnknownKeys, wmnerrors.CodeOf(err))
	assert.Contains(t, err.Error(), `"extra"`)
	assert.Contains(t, err.Error(), `"url"`)

	var we *wmnerrors.WMNError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "Site", we.Context["site"])

	assert.Zero(t, fs.creates)
	onDisk, err := afero.ReadFile(fs, dataPath)
	require.NoError(t, err)
	assert.Equal(t, input, string(onDisk))

	// The cached document is left as parsed.
	data, err := st.Data()
	require.NoError(t, err)
	authors, _ := data.(*jsondoc.Object).Get("authors")
	assert.Equal(t, []any{"b", "a"}, authors)
}

func TestFormatDataOmitsAbsentKeys(t *testing.T) {
	schema := `{"properties": {"sites": {"items": {"properties": {"name": {}, "uri_check": {}, "cat": {}}}}}}`
	st, _ := setup(t, `{"authors": ["a"], "categories": ["c"], "sites": [{"cat": "x", "name": "n"}]}`, schema)

	_, err := New(st).FormatData()
	require.NoError(t, err)

	data, _ := st.Data()
	sites, _ := data.(*jsondoc.Object).Get("sites")
	assert.Equal(t, []string{"name", "cat"}, sites.([]any)[0].(*jsondoc.Object).Keys())
}

func TestFormatDataIsIdempotent(t *testing.T) {
	st, _ := setup(t,
		`{"authors":["b","a"],"categories":["y","x"],"sites":[{"headers":{"b":"2","a":"1"},"name":"Zeta"},{"name":"Alpha","headers":{}}]}`,
		siteSchema)

	first, err := New(st).FormatData()
	require.NoError(t, err)

	st2, _ := setup(t, first, siteSchema)
	second, err := New(st2).FormatData()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFormatSchema(t *testing.T) {
	st, _ := setup(t, `{}`, `{"b": 1, "a": {"ü": [true, null]}}`)

	out, err := New(st, WithIndent(4)).FormatSchema()
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"b\": 1,\n    \"a\": {\n        \"ü\": [\n            true,\n            null\n        ]\n    }\n}", out)
}

func TestFormatSchemaParseError(t *testing.T) {
	st, _ := setup(t, `{}`, `{"a": `)

	_, err := New(st).FormatSchema()
	require.Error(t, err)
	assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeFormat))
	assert.Equal(t, wmnerrors.ErrCodeInvalidJSON, wmnerrors.CodeOf(err))
}

func TestFormatFileWritesOnce(t *testing.T) {
	st, fs := setup(t,
		`{"authors":["b","a"],"categories":["x"],"sites":[{"name":"A"}]}`,
		siteSchema)
	f := New(st)

	previous, err := st.DataRaw()
	require.NoError(t, err)
	changed, err := f.FormatFile(f.FormatData, previous, dataPath)
	require.NoError(t, err)
	assert.True(t, changed)
	writes := fs.creates
	assert.Positive(t, writes)

	previous, err = st.DataRaw()
	require.NoError(t, err)
	changed, err = f.FormatFile(f.FormatData, previous, dataPath)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, writes, fs.creates)
}

func TestFormatFileWrapsUnexpectedErrors(t *testing.T) {
	st, _ := setup(t, `{}`, `{}`)
	f := New(st)

	_, err := f.FormatFile(func() (string, error) { return "", errors.New("boom") }, "", dataPath)
	require.Error(t, err)
	assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeFormat))
	assert.Contains(t, err.Error(), "unexpected error formatting wmn-data.json")
	assert.Contains(t, err.Error(), "boom")

	_, err = f.FormatFile(func() (string, error) { panic("kaboom") }, "", dataPath)
	require.Error(t, err)
	assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeFormat))
	assert.Contains(t, err.Error(), "kaboom")

	domain := wmnerrors.NewSchemaError(wmnerrors.ErrCodeSchemaMissing, "missing", nil)
	_, err = f.FormatFile(func() (string, error) { return "", domain }, "", dataPath)
	assert.Same(t, domain, err)
}

func TestFormatFileWriteFailure(t *testing.T) {
	st, _ := setup(t, `{}`, `{}`)
	f := New(st)

	_, err := f.FormatFile(func() (string, error) { return "x", nil }, "", "/missing/dir/out.json")
	require.Error(t, err)
	assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeFile))
}

func TestSiteKeyOrder(t *testing.T) {
	schema, err := jsondoc.Parse([]byte(siteSchema))
	require.NoError(t, err)

	keys, err := SiteKeyOrder(schema)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "headers"}, keys)

	_, err = SiteKeyOrder("not a schema")
	assert.Equal(t, wmnerrors.ErrCodeSchemaMissing, wmnerrors.CodeOf(err))
}

func TestNameKeyNonStringNames(t *testing.T) {
	site := func(src string) *jsondoc.Object {
		v, err := jsondoc.Parse([]byte(src))
		require.NoError(t, err)
		return v.(*jsondoc.Object)
	}

	assert.Equal(t, "Alpha", nameKey(site(`{"name": "Alpha"}`)))
	assert.Equal(t, "null", nameKey(site(`{"name": null}`)))
	assert.Equal(t, "true", nameKey(site(`{"name": true}`)))
	assert.Equal(t, "12", nameKey(site(`{"name": 12}`)))
	assert.Equal(t, "", nameKey(site(`{"url": "x"}`)))
}
