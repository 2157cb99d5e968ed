package validation

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/jsondoc"
)

// ValidateDuplicates returns the site names that occur more than once, in
// the order they were first seen. Sites without a non-empty string name are
// ignored. Names match exactly unless case folding was enabled, in which case
// the first spelling of each group is reported.
func (v *Validator) ValidateDuplicates() ([]string, error) {
	raw, err := v.st.Data()
	if err != nil {
		return nil, err
	}
	data, ok := raw.(*jsondoc.Object)
	if !ok {
		return nil, wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
			fmt.Sprintf("data must be an object, got %s", jsondoc.TypeName(raw)), nil)
	}

	var sites []any
	if s, ok := data.Get("sites"); ok {
		sites, ok = s.([]any)
		if !ok {
			return nil, wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidField,
				fmt.Sprintf("'sites' must be a list, got %s", jsondoc.TypeName(s)), nil)
		}
	}
	v.logger.Debug(context.Background(), "Checking sites for duplicates", "sites", len(sites), "casefold", v.casefold)

	key := func(s string) string { return s }
	if v.casefold {
		caser := cases.Fold()
		key = caser.String
	}

	counts := make(map[string]int)
	first := make(map[string]string)
	var order []string
	for _, s := range sites {
		site, ok := s.(*jsondoc.Object)
		if !ok {
			continue
		}
		nameValue, _ := site.Get("name")
		// Only string names are counted.
		name, ok := nameValue.(string)
		if !ok || name == "" {
			continue
		}
		k := key(name)
		if _, seen := counts[k]; !seen {
			first[k] = name
			order = append(order, k)
		}
		counts[k]++
	}

	dups := []string{}
	for _, k := range order {
		if counts[k] > 1 {
			dups = append(dups, first[k])
		}
	}
	return dups, nil
}
