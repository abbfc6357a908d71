// Package language provides unified language code normalization and
// matching.
//
// All language-related conversions (ISO 639-1, ISO 639-2 with bibliographic
// variants, full words, BCP 47 tags) are consolidated here so condition
// evaluation, track filtering, and synthesis source scoring agree on what
// counts as "the same language".
package language
