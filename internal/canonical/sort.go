package canonical

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/jsondoc"
)

const (
	keyAuthors    = "authors"
	keyCategories = "categories"
	keySites      = "sites"
	keyName       = "name"
	keyHeaders    = "headers"
	keyProperties = "properties"
	keyItems      = "items"
)

// folder computes case-insensitive sort keys. A cases.Caser keeps state, so
// each formatting run gets its own.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(s)
}

// sortedStrings validates data[key] as a non-empty array of non-blank strings
// and returns a case-insensitively sorted copy.
func sortedStrings(data *jsondoc.Object, key string, folder *folder) ([]any, error) {
	raw, ok := data.Get(key)
	if !ok || raw == nil {
		return nil, wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
			fmt.Sprintf("'%s' is required but not found", key), nil)
	}
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
			fmt.Sprintf("'%s' must be a non-empty list", key), nil)
	}

	keys := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
				fmt.Sprintf("'%s' must contain non-empty strings", key), nil).
				WithContext("index", i)
		}
		keys[i] = folder.fold(s)
	}

	out := make([]any, len(items))
	copy(out, items)
	stableSortBy(out, keys)
	return out, nil
}

// sortSitesByName orders sites by case-folded name. A missing name sorts as
// the empty string; a non-string name sorts by its JSON text.
func sortSitesByName(sites []*jsondoc.Object, folder *folder) {
	keys := make([]string, len(sites))
	for i, site := range sites {
		keys[i] = folder.fold(nameKey(site))
	}
	stableSortBy(sites, keys)
}

func nameKey(site *jsondoc.Object) string {
	v, ok := site.Get(keyName)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	// Non-string names order by JSON text, so null sorts as "null" rather than "None".
	text, err := jsondoc.Marshal(v, 0)
	if err != nil {
		return ""
	}
	return text
}

// sortHeaders returns headers with keys in case-folded order when it is a
// non-empty object, and returns it unchanged otherwise.
func sortHeaders(headers any, folder *folder) any {
	obj, ok := headers.(*jsondoc.Object)
	if !ok || obj.Len() == 0 {
		return headers
	}

	members := obj.Members()
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = folder.fold(m.Key)
	}
	stableSortBy(members, keys)

	out := jsondoc.NewObject()
	out.SetMembers(members)
	return out
}

// stableSortBy sorts items by the parallel slice keys, keeping the input
// order of equal keys.
func stableSortBy[T any](items []T, keys []string) {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})

	sortedItems := make([]T, len(items))
	sortedKeys := make([]string, len(keys))
	for i, j := range idx {
		sortedItems[i] = items[j]
		sortedKeys[i] = keys[j]
	}
	copy(items, sortedItems)
	copy(keys, sortedKeys)
}

// SiteKeyOrder returns the site property names declared by schema at
// properties.sites.items.properties, in declaration order.
func SiteKeyOrder(schema any) ([]string, error) {
	cur := schema
	for _, key := range []string{keyProperties, keySites, keyItems, keyProperties} {
		obj, ok := cur.(*jsondoc.Object)
		if !ok {
			return nil, siteSchemaMissing()
		}
		next, ok := obj.Get(key)
		if !ok || next == nil {
			return nil, siteSchemaMissing()
		}
		cur = next
	}

	props, ok := cur.(*jsondoc.Object)
	if !ok {
		return nil, wmnerrors.NewSchemaError(wmnerrors.ErrCodeSchemaInvalid,
			fmt.Sprintf("site schema properties must be an object, got %s", jsondoc.TypeName(cur)), nil)
	}
	return props.Keys(), nil
}

func siteSchemaMissing() error {
	return wmnerrors.NewSchemaError(wmnerrors.ErrCodeSchemaMissing, "site schema properties not found in schema", nil)
}
