// Package textutil provides the text folding and similarity primitives used to
// compare a cleaned filename title against catalog titles.
//
// Folding lowercases text, strips diacritics, transliterates non-Latin scripts,
// and collapses punctuation, so "Beli Očnjak", "BELI OCNJAK" and "beli.ocnjak"
// all compare equal. Similarity ratios are in [0,1].
package textutil
