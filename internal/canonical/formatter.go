// Package canonical rewrites the dataset and its schema into one
// deterministic textual form.
//
// The dataset's authors and categories are sorted case-insensitively, sites
// are sorted by name, each site's headers are sorted by key and each site's
// keys are re-emitted in the order the schema declares them. The schema is
// only re-indented. Running the formatter on its own output yields the same
// bytes.
package canonical

import (
	"context"
	"fmt"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/jsondoc"
	"github.com/conneroisu/wmnctl/internal/logging"
)

// DefaultIndent is the indentation width of canonical output.
const DefaultIndent = 2

// Storage is the part of the store the formatter needs.
type Storage interface {
	Data() (any, error)
	Schema() (any, error)
	WriteFile(path, content string) error
}

// Formatter produces canonical text for the dataset and schema held by a
// Storage.
type Formatter struct {
	st     Storage
	indent int
	logger logging.Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithIndent sets the indentation width. Negative values are ignored.
func WithIndent(n int) Option {
	return func(f *Formatter) {
		if n >= 0 {
			f.indent = n
		}
	}
}

// WithLogger sets the formatter's logger.
func WithLogger(l logging.Logger) Option {
	return func(f *Formatter) {
		if l != nil {
			f.logger = l.WithComponent("canonical")
		}
	}
}

// New returns a Formatter over st.
func New(st Storage, opts ...Option) *Formatter {
	f := &Formatter{
		st:     st,
		indent: DefaultIndent,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Indent returns the configured indentation width.
func (f *Formatter) Indent() int { return f.indent }

// FormatSchema re-serializes the schema with the configured indentation,
// keeping its key order.
func (f *Formatter) FormatSchema() (string, error) {
	schema, err := f.st.Schema()
	if err != nil {
		return "", err
	}

	out, err := jsondoc.Marshal(schema, f.indent)
	if err != nil {
		return "", wmnerrors.NewFormatError(wmnerrors.ErrCodeNotSerializable, "schema is not JSON-serializable", err)
	}
	return out, nil
}

// FormatData canonicalizes the dataset and returns its serialized form.
//
// On success the cached dataset is rewritten in place to the canonical
// structure. On failure it is left untouched.
func (f *Formatter) FormatData() (string, error) {
	ctx := context.Background()
	perf := logging.StartOperation(f.logger, "format_data")

	out, err := f.formatData()
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", err
	}
	perf.End(ctx)
	return out, nil
}

func (f *Formatter) formatData() (string, error) {
	raw, err := f.st.Data()
	if err != nil {
		return "", err
	}
	data, ok := raw.(*jsondoc.Object)
	if !ok {
		return "", wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
			fmt.Sprintf("data must be an object, got %s", jsondoc.TypeName(raw)), nil)
	}

	folder := newFolder()

	authors, err := sortedStrings(data, keyAuthors, folder)
	if err != nil {
		return "", err
	}
	categories, err := sortedStrings(data, keyCategories, folder)
	if err != nil {
		return "", err
	}

	schema, err := f.st.Schema()
	if err != nil {
		return "", err
	}
	sites, err := f.formatSites(data, schema, folder)
	if err != nil {
		return "", err
	}

	// Everything validated; commit to the cached document.
	data.Set(keyAuthors, authors)
	data.Set(keyCategories, categories)
	data.Set(keySites, sites)

	out, err := jsondoc.Marshal(data, f.indent)
	if err != nil {
		return "", wmnerrors.NewFormatError(wmnerrors.ErrCodeNotSerializable, "data is not JSON-serializable", err)
	}
	return out, nil
}

func (f *Formatter) formatSites(data *jsondoc.Object, schema any, folder *folder) ([]any, error) {
	raw, _ := data.Get(keySites)
	sites, ok := raw.([]any)
	if !ok {
		return nil, wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
			fmt.Sprintf("'%s' must be a list, got %s", keySites, jsondoc.TypeName(raw)), nil)
	}

	objects := make([]*jsondoc.Object, len(sites))
	for i, s := range sites {
		site, ok := s.(*jsondoc.Object)
		if !ok {
			return nil, wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
				fmt.Sprintf("site at index %d must be an object, got %s", i, jsondoc.TypeName(s)), nil).
				WithContext("index", i)
		}
		objects[i] = site
	}

	keyOrder, err := SiteKeyOrder(schema)
	if err != nil {
		return nil, err
	}

	sortSitesByName(objects, folder)

	out := make([]any, len(objects))
	for i, site := range objects {
		formatted, err := formatSite(site, keyOrder, folder)
		if err != nil {
			return nil, err
		}
		out[i] = formatted
	}
	f.logger.Debug(context.Background(), "Formatted sites", "count", len(out), "site_keys", len(keyOrder))
	return out, nil
}

// formatSite returns a copy of site with sorted headers and keys in
// keyOrder. Keys outside keyOrder are an error.
func formatSite(site *jsondoc.Object, keyOrder []string, folder *folder) (*jsondoc.Object, error) {
	declared := make(map[string]struct{}, len(keyOrder))
	for _, k := range keyOrder {
		declared[k] = struct{}{}
	}

	var unknown []string
	for _, k := range site.Keys() {
		if _, ok := declared[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		err := wmnerrors.NewFormatError(wmnerrors.ErrCodeUnknownKeys,
			fmt.Sprintf("unknown keys found in site data: %q", unknown), nil).
			WithContext("keys", unknown)
		if name, ok := siteName(site); ok {
			err = err.WithContext("site", name)
		}
		return nil, err
	}

	out := jsondoc.NewObject()
	for _, k := range keyOrder {
		v, ok := site.Get(k)
		if !ok {
			continue
		}
		if k == keyHeaders {
			v = sortHeaders(v, folder)
		}
		out.Set(k, v)
	}
	return out, nil
}

func siteName(site *jsondoc.Object) (string, bool) {
	v, ok := site.Get(keyName)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok && name != ""
}
