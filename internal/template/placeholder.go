// Package template implements the per-channel placeholder grammar and the
// variable substitution engine used to produce final per-recipient text.
package template

import (
	"regexp"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

// grammar is the lexical rule one channel uses for variable references.
// The delimiters are stripped from a match to obtain the variable name.
type grammar struct {
	re    *regexp.Regexp
	open  int // opening delimiter length in bytes
	close int // closing delimiter length in bytes
}

var (
	// #[이름] — SMS/LMS/MMS and legacy Friendtalk.
	bracketGrammar = grammar{re: regexp.MustCompile(`#\[[^\[\]]+\]`), open: 2, close: 1}
	// #{이름} — Alimtalk, Brand, Naver.
	braceGrammar = grammar{re: regexp.MustCompile(`#\{[^{}]+\}`), open: 2, close: 1}
	// {{이름}} — RCS.
	doubleGrammar = grammar{re: regexp.MustCompile(`\{\{[^{}]+\}\}`), open: 2, close: 2}
)

var grammars = map[model.Channel]grammar{
	model.ChannelSMS:        bracketGrammar,
	model.ChannelFriendtalk: bracketGrammar,
	model.ChannelAlimtalk:   braceGrammar,
	model.ChannelBrand:      braceGrammar,
	model.ChannelNaver:      braceGrammar,
	model.ChannelRCS:        doubleGrammar,
}

func grammarFor(ch model.Channel) grammar {
	if g, ok := grammars[ch]; ok {
		return g
	}

	return braceGrammar
}

// name extracts the variable name from a full match.
func (g grammar) name(match string) string {
	return match[g.open : len(match)-g.close]
}

// ExtractVariables returns the unique placeholder names found in text for
// the given channel, in first-appearance order. Unclosed or nested
// delimiters never match.
func ExtractVariables(text string, ch model.Channel) []string {
	g := grammarFor(ch)

	var names []string
	seen := make(map[string]struct{})

	for _, m := range g.re.FindAllString(text, -1) {
		n := g.name(m)
		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		names = append(names, n)
	}

	return names
}

// HasVariables reports whether text contains at least one placeholder.
func HasVariables(text string, ch model.Channel) bool {
	return grammarFor(ch).re.MatchString(text)
}

// CountVariables counts placeholder occurrences, duplicates included.
func CountVariables(text string, ch model.Channel) int {
	return len(grammarFor(ch).re.FindAllString(text, -1))
}

var legacyRe = regexp.MustCompile(`#\[([^\[\]]+)\]`)

// MigrateLegacy converts the old #[name] placeholder format to #{name}.
func MigrateLegacy(text string) string {
	return legacyRe.ReplaceAllString(text, "#{$1}")
}
