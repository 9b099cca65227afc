// Package dataprocessing turns the raw source resources into merged country
// series.
//
// # Pipeline
//
//	TableLoader  semicolon separated tables keyed by trimmed country name
//	Resolver     country metadata to a name index (CountryIndex)
//	Merger       GDP names resolved to identities, every indicator read per year
//
// Table cells are parsed leniently: GDP reads the leading integer of a cell,
// the inequality indices read the leading decimal number. Anything else is
// NaN and never widens a range.
//
// Collisions are resolved last-write-wins. Duplicate table rows, names that
// map to two codes and GDP names that resolve to one country are logged at
// Warn.
package dataprocessing
