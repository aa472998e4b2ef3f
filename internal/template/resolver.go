package template

import (
	"unicode/utf8"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

// MaxVariableValueLen caps the length of any substituted value, in runes.
const MaxVariableValueLen = 100

// Resolve substitutes every placeholder in text for one recipient, left to
// right in a single pass. Lookup order: recipient override, then the common
// value, then the empty string. Replacement is literal; substituted values
// are never re-scanned.
func Resolve(text string, ch model.Channel, common map[string]string, r model.Recipient) string {
	g := grammarFor(ch)

	return g.re.ReplaceAllStringFunc(text, func(m string) string {
		name := g.name(m)

		if v, ok := r.Overrides[name]; ok && v != "" {
			return v
		}

		return common[name]
	})
}

// ValidateVariables runs the pre-send variable checks for a batch and returns
// every violation.
//
// A non-empty common value is required for every extracted name only on
// channels that enforce it (Alimtalk, Brand, Naver); the other channels
// substitute empty strings. The value length cap applies everywhere, to
// common values and per-recipient overrides alike, but only for names the
// text actually references: an override that never substitutes cannot fail
// the batch.
func ValidateVariables(text string, ch model.Channel, common map[string]string, recipients []model.Recipient) []model.ValidationError {
	var errs []model.ValidationError

	names := ExtractVariables(text, ch)

	if ch.RequiresCommonValues() {
		for _, name := range names {
			if common[name] == "" {
				errs = append(errs, model.Violation(
					model.CodeMissingVariableValue, name,
					"no common value supplied for variable %q", name,
				))
			}
		}
	}

	for _, name := range names {
		if n := utf8.RuneCountInString(common[name]); n > MaxVariableValueLen {
			errs = append(errs, model.Violation(
				model.CodeVariableValueTooLong, name,
				"common value for %q is %d characters, max %d", name, n, MaxVariableValueLen,
			))
		}
	}

	inText := make(map[string]struct{}, len(names))
	for _, name := range names {
		inText[name] = struct{}{}
	}

	for _, r := range recipients {
		for name, v := range r.Overrides {
			if _, ok := inText[name]; !ok {
				continue
			}

			if n := utf8.RuneCountInString(v); n > MaxVariableValueLen {
				errs = append(errs, model.Violation(
					model.CodeVariableValueTooLong, name,
					"override for %q (%s) is %d characters, max %d", name, r.Phone, n, MaxVariableValueLen,
				))
			}
		}
	}

	return errs
}
