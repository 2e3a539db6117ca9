package normalize

import "regexp"

// Category labels the kind of release token a rule removes.
type Category string

const (
	CategoryBracket    Category = "bracket"
	CategoryAudio      Category = "audio"
	CategoryResolution Category = "resolution"
	CategorySource     Category = "source"
	CategoryCodec      Category = "codec"
	CategoryHDR        Category = "hdr"
	CategoryPart       Category = "part"
	CategoryRelease    Category = "release"
	CategoryEdition    Category = "edition"
	CategoryLanguage   Category = "language"
	CategoryGroup      Category = "group"
	CategoryOther      Category = "other"
)

// Rule matches one kind of release token.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
}

// textRules run over the whole name before tokenizing, in order. They catch
// tags that separators would otherwise split apart.
var textRules = []Rule{
	{CategoryBracket, regexp.MustCompile(`\[[^\]]*\]|\{[^}]*\}`)},
	{CategoryAudio, regexp.MustCompile(`(?i)\b(?:dd\+?|ddp|e?ac-?3|aac|dts(?:-?hd)?(?:[ ._-]?ma)?|truehd|flac|opus|lpcm)[ ._-]?[1-7][ .][01]\b`)},
	{CategoryAudio, regexp.MustCompile(`(?i)\bdts[ ._-]hd(?:[ ._-]ma)?\b`)},
}

// dottedCodec rewrites "H.264" style tokens so the token rules see one token.
var dottedCodec = regexp.MustCompile(`(?i)\b([hx])\.(26[45])\b`)

// explicitYear matches a year wrapped in parentheses or brackets.
var explicitYear = regexp.MustCompile(`[\(\[]((?:18|19|20)\d{2})[\)\]]`)

// strongRules identify tokens that never appear in a title. The first one
// found after the opening token ends the title.
var strongRules = []Rule{
	{CategoryResolution, regexp.MustCompile(`(?i)^(?:\d{3,4}[pi]|[48]k|uhd)$`)},
	{CategorySource, regexp.MustCompile(`(?i)^(?:blu-?ray|bdrip|brrip|bdremux|remux|web-?dl|web-?rip|hdtv|pdtv|hdrip|dvdrip|dvdscr|dvdr|hdcam|telesync|screener|amzn|dsnp|hmax|atvp)$`)},
	{CategoryCodec, regexp.MustCompile(`(?i)^(?:[xh]26[45]|hevc|avc|xvid|divx|av1|vp9|10-?bit|8-?bit|hi10p?)$`)},
	{CategoryAudio, regexp.MustCompile(`(?i)^(?:aac|ac-?3|e-?ac-?3|ddp|dd\+|dts(?:-?hd|-?x|-?ma)?|truehd|atmos|flac|mp3|opus|lpcm)$`)},
	{CategoryHDR, regexp.MustCompile(`(?i)^(?:hdr(?:10\+?)?|dovi|dolby-?vision|hlg|sdr)$`)},
	{CategoryPart, regexp.MustCompile(`(?i)^(?:cd|disc|disk)\d{1,2}$`)},
}

// weakRules classify tokens that are only release tags once the title has
// ended; inside a title they are ordinary words.
var weakRules = []Rule{
	{CategoryRelease, regexp.MustCompile(`(?i)^(?:proper|repack|rerip|internal|limited|readnfo|nfofix|dubbed|subbed|multi|multisubs|subs?|hardsubs?|dual(?:-?audio)?|complete|retail|hc)$`)},
	{CategoryEdition, regexp.MustCompile(`(?i)^(?:extended|unrated|uncut|remastered|theatrical|imax|director'?s|criterion|restored|edition|ultimate|collector'?s|anniversary|open-?matte)$`)},
}

// yearBlockers are words that make a following number a part or volume index.
var yearBlockers = map[string]struct{}{
	"part": {}, "pt": {}, "cd": {}, "disc": {}, "disk": {}, "vol": {}, "volume": {}, "chapter": {}, "episode": {},
}

// knownExtensions are stripped from the end of a name before parsing.
var knownExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {}, ".webm": {}, ".m4v": {},
	".mpg": {}, ".mpeg": {}, ".ts": {}, ".m2ts": {}, ".iso": {}, ".srt": {}, ".ass": {}, ".ssa": {},
	".sub": {}, ".idx": {}, ".vtt": {}, ".nfo": {},
}

func matchRule(rules []Rule, token string) (Category, bool) {
	for _, rule := range rules {
		if rule.Pattern.MatchString(token) {
			return rule.Category, true
		}
	}
	return "", false
}
