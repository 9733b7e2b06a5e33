// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): persistence, text extraction and LLM access.
package driven
