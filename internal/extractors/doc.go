// Package extractors provides the format-dispatching text extraction
// pipeline. Each format defines an ordered chain of strategies; the
// dispatcher accepts the first strategy returning non-empty text and
// aggregates all failures when the whole chain fails.
//
// All winning text passes through a cleaning pass before word counting,
// and truncation to the word budget always happens after cleaning.
package extractors
