package language

import "strings"

// lang describes one ISO 639-1 language. iso3 lists the ISO 639-2 codes
// (terminological first) and aliases the spellings release groups use.
type lang struct {
	name    string
	iso3    []string
	aliases []string
}

var known = map[string]lang{
	"ar": {name: "Arabic", iso3: []string{"ara"}, aliases: []string{"arabic"}},
	"bs": {name: "Bosnian", iso3: []string{"bos"}, aliases: []string{"bosnian"}},
	"cs": {name: "Czech", iso3: []string{"ces", "cze"}, aliases: []string{"czech"}},
	"da": {name: "Danish", iso3: []string{"dan"}, aliases: []string{"danish"}},
	"de": {name: "German", iso3: []string{"deu", "ger"}, aliases: []string{"german", "deutsch"}},
	"el": {name: "Greek", iso3: []string{"ell", "gre"}, aliases: []string{"greek"}},
	"en": {name: "English", iso3: []string{"eng"}, aliases: []string{"english"}},
	"es": {name: "Spanish", iso3: []string{"spa"}, aliases: []string{"spanish", "castellano", "latino"}},
	"fi": {name: "Finnish", iso3: []string{"fin"}, aliases: []string{"finnish"}},
	"fr": {name: "French", iso3: []string{"fra", "fre"}, aliases: []string{"french", "truefrench", "vff", "vfq"}},
	"he": {name: "Hebrew", iso3: []string{"heb"}, aliases: []string{"hebrew"}},
	"hi": {name: "Hindi", iso3: []string{"hin"}, aliases: []string{"hindi"}},
	"hr": {name: "Croatian", iso3: []string{"hrv"}, aliases: []string{"croatian"}},
	"hu": {name: "Hungarian", iso3: []string{"hun"}, aliases: []string{"hungarian"}},
	"it": {name: "Italian", iso3: []string{"ita"}, aliases: []string{"italian"}},
	"ja": {name: "Japanese", iso3: []string{"jpn"}, aliases: []string{"japanese"}},
	"ko": {name: "Korean", iso3: []string{"kor"}, aliases: []string{"korean"}},
	"nl": {name: "Dutch", iso3: []string{"nld", "dut"}, aliases: []string{"dutch", "flemish"}},
	"no": {name: "Norwegian", iso3: []string{"nor"}, aliases: []string{"norwegian"}},
	"pl": {name: "Polish", iso3: []string{"pol"}, aliases: []string{"polish"}},
	"pt": {name: "Portuguese", iso3: []string{"por"}, aliases: []string{"portuguese"}},
	"ru": {name: "Russian", iso3: []string{"rus"}, aliases: []string{"russian"}},
	"sl": {name: "Slovenian", iso3: []string{"slv"}, aliases: []string{"slovenian"}},
	"sr": {name: "Serbian", iso3: []string{"srp"}, aliases: []string{"serbian"}},
	"sv": {name: "Swedish", iso3: []string{"swe"}, aliases: []string{"swedish"}},
	"tr": {name: "Turkish", iso3: []string{"tur"}, aliases: []string{"turkish"}},
	"uk": {name: "Ukrainian", iso3: []string{"ukr"}, aliases: []string{"ukrainian"}},
	"zh": {name: "Chinese", iso3: []string{"zho", "chi"}, aliases: []string{"chinese", "mandarin", "cantonese"}},
}

// tagIndex maps every three-letter code and alias to its ISO 639-1 code.
var tagIndex = func() map[string]string {
	idx := make(map[string]string, len(known)*3)
	for code, l := range known {
		for _, c := range l.iso3 {
			idx[c] = code
		}
		for _, a := range l.aliases {
			idx[a] = code
		}
	}
	return idx
}()

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// resolve finds the ISO 639-1 code for a known two-letter code, three-letter
// code or alias.
func resolve(s string) (string, bool) {
	if _, ok := known[s]; ok {
		return s, true
	}
	code, ok := tagIndex[s]
	return code, ok
}

// ToISO2 converts a language code or name to ISO 639-1. Unknown two-letter
// input passes through; anything else unknown yields "".
func ToISO2(code string) string {
	code = clean(code)
	if mapped, ok := resolve(code); ok {
		return mapped
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// FromReleaseTag maps a release-name token to an ISO 639-1 code. Two-letter
// tokens are never treated as languages since "it", "no" and "de" are common
// words in titles.
func FromReleaseTag(token string) (string, bool) {
	token = clean(token)
	if len(token) < 3 {
		return "", false
	}
	code, ok := tagIndex[token]
	return code, ok
}

// DisplayName returns the English name of a language, "Unknown" for blank
// input, and the upper-cased input when unrecognized.
func DisplayName(code string) string {
	code = clean(code)
	if code == "" {
		return "Unknown"
	}
	if mapped, ok := resolve(code); ok {
		return known[mapped].name
	}
	return strings.ToUpper(code)
}

// NormalizeList maps codes to ISO 639-1 and drops blanks and duplicates,
// keeping first-seen order.
func NormalizeList(codes []string) []string {
	var out []string
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = clean(c)
		if c == "" {
			continue
		}
		if mapped := ToISO2(c); mapped != "" {
			c = mapped
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
