// Package datatype generates immutable Go value types from schema files.
//
// See the compiler package for the generation pipeline and cmd/datatype for
// the command line tool.
package datatype

// Name identifies the generator in cache fingerprints and file headers.
const Name = "datatype"

// Version is the semantic version of the generator. Bumping it invalidates
// every cached generation run.
const Version = "0.4.0"
