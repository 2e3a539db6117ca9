package normalize

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"cinematch/internal/language"
	"cinematch/internal/textutil"
)

// MinYear is the year of the earliest surviving motion picture.
const MinYear = 1888

// Query is the normalized form of a filename.
type Query struct {
	Title         string   `json:"title"`
	Year          int      `json:"year,omitempty"`
	Stripped      []string `json:"stripped,omitempty"`
	LanguageHints []string `json:"language_hints,omitempty"`
	Source        string   `json:"source"`
}

// HasYear reports whether a release year was extracted.
func (q Query) HasYear() bool { return q.Year > 0 }

// Normalizer applies the release-token rules. The zero value is not usable;
// construct with New.
type Normalizer struct {
	now func() time.Time
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the clock used to bound plausible years.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// New constructs a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize cleans name using the default Normalizer.
func Normalize(name, dir string) Query {
	return defaultNormalizer.Normalize(name, dir)
}

var separators = regexp.MustCompile(`[\s._()]+`)

// Normalize cleans a filename. dir is the parent directory name, used when the
// filename itself carries no usable title (or no year while the directory
// names the same title with one). Normalize never fails; when nothing usable
// remains the trimmed raw name is returned as the title.
func (n *Normalizer) Normalize(name, dir string) Query {
	raw := strings.TrimSpace(name)
	q := n.parse(raw, true)
	if strings.TrimSpace(dir) != "" && (q.Title == "" || !q.HasYear()) {
		fromDir := n.parse(strings.TrimSpace(dir), false)
		switch {
		case q.Title == "" && fromDir.Title != "":
			fromDir.Stripped = append(q.Stripped, fromDir.Stripped...)
			q = fromDir
		case fromDir.HasYear() && sameTitle(q.Title, fromDir.Title):
			q.Year = fromDir.Year
		}
	}
	if q.Title == "" {
		q.Title = raw
	}
	q.Source = raw
	return q
}

func (n *Normalizer) parse(name string, isFile bool) Query {
	var q Query
	base := name
	evidence := false
	if isFile {
		if ext := strings.ToLower(filepath.Ext(base)); ext != "" {
			if _, ok := knownExtensions[ext]; ok {
				base = strings.TrimSuffix(base, filepath.Ext(base))
				evidence = true
			}
		}
	}

	explicit := 0
	if m := explicitYear.FindStringSubmatch(base); m != nil {
		explicit, _ = strconv.Atoi(m[1])
		base = explicitYear.ReplaceAllString(base, " $1 ")
		evidence = true
	}

	for _, rule := range textRules {
		for _, match := range rule.Pattern.FindAllString(base, -1) {
			q.Stripped = append(q.Stripped, match)
			q.addLanguageHints(match)
			evidence = true
		}
		base = rule.Pattern.ReplaceAllString(base, " ")
	}
	base = dottedCodec.ReplaceAllString(base, "$1$2")
	if strings.ContainsAny(base, "._") {
		evidence = true
	}

	tokens := tokenize(base)
	if len(tokens) == 0 {
		return q
	}

	categories := make([]Category, len(tokens))
	firstStrong := -1
	for i := 0; i < len(tokens); i++ {
		category, ok := matchRule(strongRules, tokens[i])
		if !ok {
			if head, group, split := splitGroup(tokens[i]); split {
				category, _ = matchRule(strongRules, head)
				tokens[i] = head
				tokens = append(tokens[:i+1], append([]string{group}, tokens[i+1:]...)...)
				categories = append(categories[:i+1], append([]Category{CategoryGroup}, categories[i+1:]...)...)
				ok = true
			}
		}
		if ok {
			categories[i] = category
			evidence = true
			if i > 0 && firstStrong < 0 {
				firstStrong = i
			}
		}
	}

	yearIdx := -1
	if evidence {
		yearIdx = n.findYear(tokens, categories, firstStrong, explicit)
	}

	end := len(tokens)
	if firstStrong >= 0 {
		end = firstStrong
	}
	if yearIdx >= 0 && yearIdx < end {
		end = yearIdx
		q.Year, _ = strconv.Atoi(tokens[yearIdx])
	}

	title := make([]string, 0, end)
	allStrong := true
	for i := 0; i < end; i++ {
		title = append(title, tokens[i])
		if categories[i] == "" {
			allStrong = false
		}
	}
	if allStrong {
		// nothing but release tags; let the caller fall back
		q.Stripped = append(q.Stripped, title...)
		title = nil
	}
	if evidence && yearIdx < 0 {
		cut := len(title)
		for cut > 1 && trailingTag(title[cut-1], firstStrong >= 0) {
			cut--
		}
		for _, tag := range title[cut:] {
			q.Stripped = append(q.Stripped, tag)
			q.addLanguageHints(tag)
		}
		title = title[:cut]
	}

	for i := end; i < len(tokens); i++ {
		if i == yearIdx {
			continue
		}
		q.Stripped = append(q.Stripped, tokens[i])
		q.addLanguageHints(tokens[i])
	}

	q.Title = titleCase(strings.Join(title, " "))
	return q
}

// trailingTag reports whether a token at the end of a yearless title is a
// release tag. Language words only count when a quality token closed the
// title, so "The Italian Job" keeps its words.
func trailingTag(token string, closed bool) bool {
	if _, weak := matchRule(weakRules, token); weak {
		return true
	}
	if !closed {
		return false
	}
	_, ok := language.FromReleaseTag(token)
	return ok
}

func (n *Normalizer) findYear(tokens []string, categories []Category, firstStrong, explicit int) int {
	limit := len(tokens)
	if firstStrong >= 0 {
		limit = firstStrong
	}
	maxYear := n.now().Year() + 2
	candidate := -1
	for i := 1; i < limit; i++ {
		if categories[i] != "" || len(tokens[i]) != 4 {
			continue
		}
		year, err := strconv.Atoi(tokens[i])
		if err != nil || year < MinYear || year > maxYear {
			continue
		}
		if _, blocked := yearBlockers[strings.ToLower(tokens[i-1])]; blocked {
			continue
		}
		if explicit != 0 && year == explicit {
			return i
		}
		candidate = i
	}
	return candidate
}

func (q *Query) addLanguageHints(text string) {
	for _, token := range tokenize(text) {
		code, ok := language.FromReleaseTag(strings.Trim(token, "[]{}-"))
		if !ok {
			continue
		}
		seen := false
		for _, existing := range q.LanguageHints {
			if existing == code {
				seen = true
				break
			}
		}
		if !seen {
			q.LanguageHints = append(q.LanguageHints, code)
		}
	}
}

func tokenize(text string) []string {
	raw := separators.Split(text, -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.Trim(token, "-,;:!~")
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// splitGroup separates a trailing release group ("x264-GRP").
func splitGroup(token string) (string, string, bool) {
	idx := strings.LastIndex(token, "-")
	if idx <= 0 || idx == len(token)-1 {
		return "", "", false
	}
	head, group := token[:idx], token[idx+1:]
	if _, ok := matchRule(strongRules, head); !ok {
		return "", "", false
	}
	return head, group, true
}

func titleCase(title string) string {
	title = strings.TrimSpace(title)
	if title == "" || (title != strings.ToLower(title) && title != strings.ToUpper(title)) {
		return title
	}
	return cases.Title(xlanguage.Und).String(title)
}

func sameTitle(a, b string) bool {
	fa, fb := textutil.Fold(a), textutil.Fold(b)
	return fa != "" && fa == fb
}
