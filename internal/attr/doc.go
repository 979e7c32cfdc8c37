// Package attr defines the typed attribute values stored in the single-table
// store and their wire encoding.
//
// A value is one of exactly five kinds:
//
//	Null       {"NULL":true}
//	String     {"S":"text"}
//	Int        {"N":"42"}
//	Bool       {"BOOL":true}
//	StringSet  {"SS":["a","b"]}
//
// The store forbids empty string sets. An attribute with no members must be
// written as Null; encoding or decoding an empty StringSet fails with
// ErrEmptySet.
package attr
