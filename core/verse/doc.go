// Package verse provides the verse text engine for song lyrics.
//
// Lyrics live in three co-existing representations:
//
//   - Tagged markup: <verse label="v1">text</verse> elements, optionally wrapped in a
//     <song><lyrics> document, with entity-escaped or CDATA content
//   - Plain text: verses separated by blank lines
//   - Records: a []Verse list, the shape every other package consumes
//
// # Identifiers
//
// Every record normalizes to a canonical identifier made of a type prefix and a number:
//
//   - v: verse
//   - c: chorus
//   - b: bridge
//   - p: pre-chorus
//   - t: tag
//
// # Order Notation
//
// A performance sequence is stored as unique source verses plus an order string such as
// "v1 c1 v2 c1". Expand replays the sources in that order, ToOrderString contracts a
// sequence back into notation, and Dedupe recovers the unique sources from a sequence.
//
// All functions in this package are pure and safe for concurrent use.
package verse
