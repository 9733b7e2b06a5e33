// Package domain defines the core business entities for the curator.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
// documents, tags, tag assignments, and the sentinel values and errors
// shared by every other layer.
package domain
