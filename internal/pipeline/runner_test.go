package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/wmnctl/internal/config"
	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/integrity"
	"github.com/conneroisu/wmnctl/internal/logging"
)

const schema = `{"$schema":"http://json-schema.org/draft-07/schema#","type":"object",` +
	`"required":["authors","categories","sites"],"properties":{` +
	`"authors":{"type":"array","items":{"type":"string"}},` +
	`"categories":{"type":"array","items":{"type":"string"}},` +
	`"sites":{"type":"array","items":{"type":"object","required":["name","uri_check"],"properties":{` +
	`"name":{"type":"string"},"uri_check":{"type":"string"},"e_code":{"type":"integer"},"headers":{"type":"object"}}}}}}`

const messyData = `{"sites":[{"uri_check":"https://z.example/{account}","name":"Zeta","e_code":200},` +
	`{"e_code":404,"name":"alpha","uri_check":"https://a.example/{account}"}],` +
	`"categories":["social","coding"],"authors":["zed","amy"]}`

type fixture struct {
	fs     afero.Fs
	config *config.Config
	out    *bytes.Buffer
	logs   *bytes.Buffer
	runner *Runner
}

func newFixture(t *testing.T, data string) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/repo", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/repo/wmn-data.json", []byte(data), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/wmn-data-schema.json", []byte(schema), 0o644))

	cfg := config.Default()
	cfg.Files.Data = "/repo/wmn-data.json"
	cfg.Files.Schema = "/repo/wmn-data-schema.json"

	f := &fixture{fs: fs, config: cfg, out: &bytes.Buffer{}, logs: &bytes.Buffer{}}
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelInfo, Format: "text", Output: f.logs})
	f.runner = New(cfg, fs, f.out, logger)
	return f
}

func (f *fixture) read(t *testing.T, path string) string {
	t.Helper()
	b, err := afero.ReadFile(f.fs, path)
	require.NoError(t, err)
	return string(b)
}

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func TestFormat(t *testing.T) {
	f := newFixture(t, messyData)
	ctx := context.Background()

	result, err := f.runner.Format(ctx)
	require.NoError(t, err)
	assert.True(t, result.DataChanged)
	assert.True(t, result.SchemaChanged)
	assert.Contains(t, f.logs.String(), "wmn-data.json updated and formatted")
	assert.Contains(t, f.logs.String(), "JSON files updated and formatted successfully")

	data := f.read(t, "/repo/wmn-data.json")
	assert.Less(t, bytes.Index([]byte(data), []byte(`"alpha"`)), bytes.Index([]byte(data), []byte(`"Zeta"`)))
	assert.Contains(t, data, "{\n      \"name\": \"alpha\",\n      \"uri_check\"")

	f.logs.Reset()
	result, err = f.runner.Format(ctx)
	require.NoError(t, err)
	assert.False(t, result.Changed())
	assert.Contains(t, f.logs.String(), "wmn-data-schema.json already formatted")
	assert.Contains(t, f.logs.String(), "JSON files are already formatted")
	assert.Equal(t, data, f.read(t, "/repo/wmn-data.json"))
}

func TestFormatUnknownKeyLeavesFileUntouched(t *testing.T) {
	bad := `{"authors":["a"],"categories":["c"],"sites":[{"name":"x","uri_check":"u","extra":1}]}`
	f := newFixture(t, bad)

	_, err := f.runner.Format(context.Background())
	require.Error(t, err)
	assert.Equal(t, wmnerrors.ErrCodeUnknownKeys, wmnerrors.CodeOf(err))
	assert.Equal(t, bad, f.read(t, "/repo/wmn-data.json"))
}

func TestHashTransitions(t *testing.T) {
	f := newFixture(t, messyData)
	ctx := context.Background()

	results, err := f.runner.Hash(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, integrity.StatusNew, results[0].Status)
	assert.Equal(t, integrity.StatusNew, results[1].Status)
	assert.Equal(t, sum(messyData)+"\n", f.read(t, "/repo/wmn-data.json.sha256"))
	assert.Equal(t, sum(schema)+"\n", f.read(t, "/repo/wmn-data-schema.json.sha256"))
	assert.Contains(t, f.logs.String(), "Generated new hash for wmn-data.json")
	assert.Contains(t, f.logs.String(), "SHA256 hash files updated successfully")

	f.logs.Reset()
	results, err = f.runner.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusUnchanged, results[0].Status)
	assert.Contains(t, f.logs.String(), "No hash change for wmn-data.json")
	assert.Contains(t, f.logs.String(), "SHA256 hash files are up to date")

	f.logs.Reset()
	changed := messyData + " "
	require.NoError(t, afero.WriteFile(f.fs, "/repo/wmn-data.json", []byte(changed), 0o644))
	results, err = f.runner.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusUpdated, results[0].Status)
	assert.Equal(t, integrity.StatusUnchanged, results[1].Status)
	assert.Contains(t, f.logs.String(),
		"Hash updated for wmn-data.json: "+sum(messyData)[:8]+"... -> "+sum(changed)[:8]+"...")
}

func TestHashAlgorithmLabel(t *testing.T) {
	f := newFixture(t, messyData)
	f.config.Hash.Algorithm = "blake2b-256"

	_, err := f.runner.Hash(context.Background())
	require.NoError(t, err)
	exists, err := afero.Exists(f.fs, "/repo/wmn-data.json.blake2b")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, f.logs.String(), "BLAKE2B-256 hash files updated successfully")
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := newFixture(t, messyData)
		report, err := f.runner.Validate(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Valid())
		assert.Contains(t, f.logs.String(), "JSON schema validation successful")
		assert.Contains(t, f.logs.String(), "No duplicate site names found")
		assert.Contains(t, f.logs.String(), "All validations passed successfully")
		assert.Empty(t, f.out.String())
	})

	t.Run("schema violations", func(t *testing.T) {
		f := newFixture(t, `{"authors":["a"],"categories":["c"],"sites":[`+
			`{"name":"Alpha","uri_check":"u","e_code":"200"},{"name":"Beta"}]}`)
		report, err := f.runner.Validate(context.Background())
		require.Error(t, err)
		assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeValidation))
		assert.Equal(t, wmnerrors.ErrCodeValidationFailed, wmnerrors.CodeOf(err))
		assert.Contains(t, err.Error(), "JSON schema validation failed with 2 error(s)")
		require.Len(t, report.Findings, 2)
		assert.False(t, report.DuplicatesChecked)

		logs := f.logs.String()
		assert.Contains(t, logs, "Schema violation at $.sites[0].e_code")
		assert.Contains(t, logs, "site=Alpha")
		assert.Contains(t, logs, "Schema violation at $.sites[1]")
		assert.NotContains(t, logs, "JSON schema validation successful")
	})

	t.Run("duplicates", func(t *testing.T) {
		f := newFixture(t, `{"authors":["a"],"categories":["c"],"sites":[`+
			`{"name":"A","uri_check":"u"},{"name":"b","uri_check":"u"},{"name":"A","uri_check":"u"}]}`)
		report, err := f.runner.Validate(context.Background())
		require.Error(t, err)
		assert.Equal(t, wmnerrors.ErrCodeDuplicateNames, wmnerrors.CodeOf(err))
		assert.Contains(t, err.Error(), `Duplicate site 'name' values found: ["A"]`)
		assert.Equal(t, []string{"A"}, report.Duplicates)
		assert.Contains(t, f.logs.String(), "JSON schema validation successful")
	})

	t.Run("casefold duplicates", func(t *testing.T) {
		f := newFixture(t, `{"authors":["a"],"categories":["c"],"sites":[`+
			`{"name":"GitHub","uri_check":"u"},{"name":"github","uri_check":"u"}]}`)
		_, err := f.runner.Validate(context.Background())
		require.NoError(t, err)

		f.config.Validate.CasefoldDuplicates = true
		report, err := f.runner.Validate(context.Background())
		require.Error(t, err)
		assert.Equal(t, []string{"GitHub"}, report.Duplicates)
	})

	t.Run("json output", func(t *testing.T) {
		f := newFixture(t, `{"authors":["a"],"categories":["c"],"sites":[{"name":"Alpha"}]}`)
		f.config.Validate.Output = "json"

		_, err := f.runner.Validate(context.Background())
		require.Error(t, err)
		assert.NotContains(t, f.logs.String(), "Schema violation")

		var doc struct {
			Valid             bool   `json:"valid"`
			Data              string `json:"data"`
			DuplicatesChecked bool   `json:"duplicates_checked"`
			Findings          []struct {
				Path string `json:"path"`
				Site string `json:"site"`
			} `json:"findings"`
		}
		require.NoError(t, json.Unmarshal(f.out.Bytes(), &doc))
		assert.False(t, doc.Valid)
		assert.Equal(t, "/repo/wmn-data.json", doc.Data)
		assert.False(t, doc.DuplicatesChecked)
		require.Len(t, doc.Findings, 1)
		assert.Equal(t, "$.sites[0]", doc.Findings[0].Path)
		assert.Equal(t, "Alpha", doc.Findings[0].Site)
	})

	t.Run("unknown draft", func(t *testing.T) {
		f := newFixture(t, messyData)
		f.config.Validate.Draft = "draft3"
		_, err := f.runner.Validate(context.Background())
		require.Error(t, err)
		assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeSchema))
	})
}

func TestCheck(t *testing.T) {
	f := newFixture(t, messyData)

	require.NoError(t, f.runner.Check(context.Background()))

	data := f.read(t, "/repo/wmn-data.json")
	assert.NotEqual(t, messyData, data)
	assert.Equal(t, sum(data)+"\n", f.read(t, "/repo/wmn-data.json.sha256"))
	assert.Equal(t, sum(f.read(t, "/repo/wmn-data-schema.json"))+"\n", f.read(t, "/repo/wmn-data-schema.json.sha256"))
	assert.Contains(t, f.logs.String(), "All validations passed successfully")
}

func TestCheckStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, `{"authors":[],"categories":["c"],"sites":[]}`)

	err := f.runner.Check(context.Background())
	require.Error(t, err)
	assert.True(t, wmnerrors.IsKind(err, wmnerrors.ErrorTypeFormat))

	exists, err := afero.Exists(f.fs, "/repo/wmn-data.json.sha256")
	require.NoError(t, err)
	assert.False(t, exists, "hash must not run after a failed format")
}

func TestCheckCancelled(t *testing.T) {
	f := newFixture(t, messyData)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, f.runner.Check(ctx), context.Canceled)
	assert.Equal(t, messyData, f.read(t, "/repo/wmn-data.json"))
}

func TestMissingDataFile(t *testing.T) {
	f := newFixture(t, messyData)
	f.config.Files.Data = "/repo/missing.json"

	_, err := f.runner.Hash(context.Background())
	require.Error(t, err)
	assert.Equal(t, wmnerrors.ErrCodeFileNotFound, wmnerrors.CodeOf(err))
}

func TestWatchRerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "wmn-data.json")
	schemaFile := filepath.Join(dir, "wmn-data-schema.json")
	fs := afero.NewOsFs()
	require.NoError(t, afero.WriteFile(fs, data, []byte(messyData), 0o644))
	require.NoError(t, afero.WriteFile(fs, schemaFile, []byte(schema), 0o644))

	cfg := config.Default()
	cfg.Files.Data = data
	cfg.Files.Schema = schemaFile
	cfg.Watch.Debounce = 50 * time.Millisecond
	runner := New(cfg, fs, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Watch(ctx) }()

	digest := func() string {
		b, err := afero.ReadFile(fs, data+".sha256")
		if err != nil {
			return ""
		}
		return string(b)
	}
	require.Eventually(t, func() bool { return digest() != "" }, 5*time.Second, 20*time.Millisecond)
	first := digest()

	edited := `{"authors":["amy"],"categories":["coding"],"sites":[{"name":"Beta","uri_check":"b"}]}`
	require.NoError(t, afero.WriteFile(fs, data, []byte(edited), 0o644))

	require.Eventually(t, func() bool {
		d := digest()
		return d != "" && d != first
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
