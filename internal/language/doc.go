// Package language maps the language tags found in release names and catalog
// metadata onto ISO 639-1 codes so filename hints and catalog original
// languages can be compared directly.
package language
