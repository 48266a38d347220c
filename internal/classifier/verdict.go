package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Verdict is the outcome of classifying one item.
type Verdict int

const (
	Unknown Verdict = iota
	Standup
	NotStandup
)

func (v Verdict) String() string {
	switch v {
	case Standup:
		return "standup"
	case NotStandup:
		return "not_standup"
	default:
		return "unknown"
	}
}

var (
	affirmativeTokens = map[string]bool{"yes": true, "true": true}
	negativeTokens    = map[string]bool{"no": true, "false": true}
)

// letterVerdicts only apply when the letter is the whole reply.
var letterVerdicts = map[string]Verdict{"y": Standup, "n": NotStandup}

// ParseVerdict interprets a model reply. A leading yes or true decides. A
// leading no or false decides only when it stands alone or ends a clause, so
// "No idea." is not a verdict. Otherwise the remaining words must contain only
// affirmative or only negative tokens. Anything else is Unknown.
func ParseVerdict(text string) Verdict {
	words := splitWords(text)
	if len(words) == 0 {
		return Unknown
	}
	first := words[0]
	if len(words) == 1 {
		if v, ok := letterVerdicts[first.text]; ok {
			return v
		}
	}
	switch {
	case affirmativeTokens[first.text]:
		return Standup
	case negativeTokens[first.text] && endsClause(first.next):
		return NotStandup
	}

	var yes, no bool
	for _, w := range words[1:] {
		yes = yes || affirmativeTokens[w.text]
		no = no || negativeTokens[w.text]
	}
	switch {
	case yes && !no:
		return Standup
	case no && !yes:
		return NotStandup
	default:
		return Unknown
	}
}

type word struct {
	text string
	// next is the first meaningful rune after the word, or 0 at the end.
	next rune
}

// splitWords case-folds text and splits it into words, dropping markdown and
// punctuation. Apostrophes are dropped so "don't" stays one word, and a slash
// between letters joins them so "n/a" and "yes/no" are single words.
func splitWords(text string) []word {
	folded := cases.Fold().String(text)
	folded = strings.NewReplacer("'", "", "\u2019", "").Replace(folded)
	runes := []rune(folded)

	var words []word
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) {
			if isWordRune(runes[i]) {
				i++
				continue
			}
			if runes[i] == '/' && i+1 < len(runes) && isWordRune(runes[i+1]) {
				i++
				continue
			}
			break
		}
		words = append(words, word{text: string(runes[start:i]), next: nextMark(runes[i:])})
	}
	return words
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// nextMark skips blanks, emphasis and quotes and returns the following rune.
func nextMark(rest []rune) rune {
	for _, r := range rest {
		switch r {
		case ' ', '\t', '*', '_', '`', '"', '\u201c', '\u201d', ')', ']':
			continue
		}
		return r
	}
	return 0
}

func endsClause(r rune) bool {
	switch r {
	case 0, '.', ',', '!', ';', ':', '-', '\n', '\r':
		return true
	}
	return false
}
