package textutil

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var leadingArticles = []string{"the ", "a ", "an "}

// Fold lowercases text, removes combining marks, transliterates anything left
// outside ASCII, spells out "&" and reduces every other non-alphanumeric run to
// a single space.
func Fold(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
	if err != nil {
		stripped = text
	}
	ascii := unidecode.Unidecode(stripped)
	ascii = strings.ReplaceAll(strings.ToLower(ascii), "&", " and ")

	var b strings.Builder
	b.Grow(len(ascii))
	space := false
	for _, r := range ascii {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			space = false
			continue
		}
		if r == '\'' {
			// don't -> dont
			continue
		}
		if !space && b.Len() > 0 {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// StripArticle drops a single leading English article from folded text, or a
// trailing one left behind by "Matrix, The" style names.
func StripArticle(folded string) string {
	for _, article := range leadingArticles {
		if rest, ok := strings.CutPrefix(folded, article); ok && rest != "" {
			return rest
		}
	}
	if rest, ok := strings.CutSuffix(folded, " the"); ok && rest != "" {
		return rest
	}
	return folded
}

// Tokenize splits folded text into tokens.
func Tokenize(text string) []string {
	return strings.Fields(Fold(text))
}
