package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/conneroisu/wmnctl/internal/jsondoc"
)

// Finding is one place where the dataset does not conform to the schema.
type Finding struct {
	// Path is the location in "$.sites[3].name" form.
	Path string `json:"path"`
	// Pointer is the same location as a JSON pointer.
	Pointer string `json:"pointer"`
	// Data is the offending value as indented JSON, empty when there is
	// no concrete value at Path.
	Data    string `json:"data,omitempty"`
	Message string `json:"message"`
	// Site is the name of the site the finding falls under, if any.
	Site    string `json:"site,omitempty"`
	Keyword string `json:"keyword"`
}

// String renders the finding on one line.
func (f Finding) String() string {
	if f.Site != "" {
		return fmt.Sprintf("%s (%s): %s", f.Path, f.Site, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Path, f.Message)
}

func (v *Validator) newFinding(data any, ve *jsonschema.ValidationError) Finding {
	f := Finding{
		Path:    jsondoc.JSONPath(data, ve.InstanceLocation),
		Pointer: ve.InstanceLocation,
		Message: strings.TrimSpace(strings.ReplaceAll(ve.Message, "\n", " ")),
		Keyword: ve.KeywordLocation,
	}
	f.Data = v.snippet(data, ve.InstanceLocation)
	f.Site = siteNameAt(data, ve.InstanceLocation)
	return f
}

// snippet returns the value at pointer as indented JSON. The document root,
// null values and anything that cannot be located yield no snippet.
func (v *Validator) snippet(data any, pointer string) string {
	if pointer == "" {
		return ""
	}
	value, ok := jsondoc.Lookup(data, pointer)
	if !ok || value == nil {
		return ""
	}
	text, err := jsondoc.Marshal(value, v.snippetIndent)
	if err != nil {
		return ""
	}
	return text
}

// siteNameAt returns the non-blank name of the site pointer points into.
func siteNameAt(data any, pointer string) string {
	tokens := jsondoc.SplitPointer(pointer)
	if len(tokens) < 2 || tokens[0] != "sites" {
		return ""
	}
	site, ok := jsondoc.Lookup(data, "/sites/"+tokens[1])
	if !ok {
		return ""
	}
	obj, ok := site.(*jsondoc.Object)
	if !ok {
		return ""
	}
	name, _ := obj.Get("name")
	s, ok := name.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// sortFindings orders findings by instance location, comparing array
// indices numerically, then by keyword location.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if c := comparePointers(findings[i].Pointer, findings[j].Pointer); c != 0 {
			return c < 0
		}
		return findings[i].Keyword < findings[j].Keyword
	})
}

func comparePointers(a, b string) int {
	ta, tb := jsondoc.SplitPointer(a), jsondoc.SplitPointer(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if c := compareTokens(ta[i], tb[i]); c != 0 {
			return c
		}
	}
	return len(ta) - len(tb)
}

func compareTokens(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
