// Package normalize strips release noise from movie filenames.
//
// Tokens are classified by ordered rule lists. Resolution, source, codec,
// audio, HDR and part tokens are strong: the first one after the opening token
// ends the title. Release markers, edition words and language tags are weak
// and only count as noise once the title has ended. A four digit year is
// recognized only when the name looks like a release (a known extension, dot
// or underscore separators, a bracketed year, or a strong token), so plain
// titles such as "Wonder Woman 1984" pass through untouched.
package normalize
