// Package validation checks the dataset against its JSON Schema and against
// the rules the schema cannot express, such as unique site names.
package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/jsondoc"
	"github.com/conneroisu/wmnctl/internal/logging"
)

// DefaultDraft is the draft assumed for schemas without "$schema".
const DefaultDraft = "draft7"

const schemaURL = "wmn-data-schema.json"

var drafts = map[string]*jsonschema.Draft{
	"draft4":       jsonschema.Draft4,
	"draft6":       jsonschema.Draft6,
	"draft7":       jsonschema.Draft7,
	"draft2019-09": jsonschema.Draft2019,
	"draft2020-12": jsonschema.Draft2020,
}

// Drafts lists the supported draft names.
func Drafts() []string {
	names := make([]string, 0, len(drafts))
	for name := range drafts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage is the part of the store the validator needs.
type Storage interface {
	Data() (any, error)
	Schema() (any, error)
}

// Validator validates the dataset held by a Storage.
type Validator struct {
	st            Storage
	draft         string
	casefold      bool
	snippetIndent int
	logger        logging.Logger
}

// Option configures a Validator.
type Option func(*Validator) error

// WithDraft sets the draft used when the schema does not declare one.
func WithDraft(name string) Option {
	return func(v *Validator) error {
		if _, ok := drafts[name]; !ok {
			return wmnerrors.NewSchemaError(wmnerrors.ErrCodeSchemaInvalid,
				fmt.Sprintf("unknown JSON schema draft %q (supported: %v)", name, Drafts()), nil)
		}
		v.draft = name
		return nil
	}
}

// WithCasefoldDuplicates makes duplicate detection ignore case.
func WithCasefoldDuplicates(enabled bool) Option {
	return func(v *Validator) error {
		v.casefold = enabled
		return nil
	}
}

// WithSnippetIndent sets the indentation of offending value snippets.
func WithSnippetIndent(n int) Option {
	return func(v *Validator) error {
		if n >= 0 {
			v.snippetIndent = n
		}
		return nil
	}
}

// WithLogger sets the validator's logger.
func WithLogger(l logging.Logger) Option {
	return func(v *Validator) error {
		if l != nil {
			v.logger = l.WithComponent("validation")
		}
		return nil
	}
}

// New returns a Validator over st.
func New(st Storage, opts ...Option) (*Validator, error) {
	v := &Validator{
		st:            st,
		draft:         DefaultDraft,
		snippetIndent: 2,
		logger:        logging.Nop(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Report is the outcome of Validate.
type Report struct {
	Findings          []Finding `json:"findings"`
	Duplicates        []string  `json:"duplicates"`
	DuplicatesChecked bool      `json:"duplicates_checked"`
}

// Valid reports whether the dataset passed every check.
func (r *Report) Valid() bool {
	return len(r.Findings) == 0 && len(r.Duplicates) == 0
}

// Validate runs schema validation and, only when it finds nothing, the
// duplicate name check.
func (v *Validator) Validate() (*Report, error) {
	findings, err := v.ValidateSchema()
	if err != nil {
		return nil, err
	}
	report := &Report{Findings: findings, Duplicates: []string{}}
	if len(findings) > 0 {
		return report, nil
	}

	dups, err := v.ValidateDuplicates()
	if err != nil {
		return nil, err
	}
	report.Duplicates = dups
	report.DuplicatesChecked = true
	return report, nil
}

// ValidateSchema compiles the schema and returns every place the dataset
// does not conform to it, ordered by location.
func (v *Validator) ValidateSchema() ([]Finding, error) {
	schema, err := v.compile()
	if err != nil {
		return nil, err
	}

	data, err := v.st.Data()
	if err != nil {
		return nil, err
	}

	verr := schema.Validate(jsondoc.ToAny(data))
	if verr == nil {
		return []Finding{}, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(verr, &ve) {
		return nil, wmnerrors.NewInternalError(wmnerrors.ErrCodeUnexpected, "schema validation failed unexpectedly", verr)
	}

	leaves := flatten(ve)
	findings := make([]Finding, 0, len(leaves))
	for _, leaf := range leaves {
		findings = append(findings, v.newFinding(data, leaf))
	}
	sortFindings(findings)

	v.logger.Debug(context.Background(), "Schema validation finished", "findings", len(findings))
	return findings, nil
}

func (v *Validator) compile() (*jsonschema.Schema, error) {
	doc, err := v.st.Schema()
	if err != nil {
		return nil, err
	}

	text, err := jsondoc.Marshal(doc, 0)
	if err != nil {
		return nil, wmnerrors.NewSchemaError(wmnerrors.ErrCodeSchemaInvalid, "invalid JSON schema", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = drafts[v.draft]
	if err := c.AddResource(schemaURL, strings.NewReader(text)); err != nil {
		return nil, wmnerrors.NewSchemaError(wmnerrors.ErrCodeSchemaInvalid, "invalid JSON schema", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, wmnerrors.NewSchemaError(wmnerrors.ErrCodeSchemaInvalid, "invalid JSON schema", err)
	}
	return schema, nil
}

// flatten returns the leaves of a validation error tree. anyOf and oneOf
// failures are kept whole since their branches are alternatives, not
// separate problems.
func flatten(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 || isAlternative(ve.KeywordLocation) {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}

func isAlternative(keywordLocation string) bool {
	tokens := jsondoc.SplitPointer(keywordLocation)
	if len(tokens) == 0 {
		return false
	}
	last := tokens[len(tokens)-1]
	return last == "anyOf" || last == "oneOf"
}
