// Package strategies implements the kind-specific ingestion strategies
// and their registry. Each content kind (document, note, activity) gets
// one strategy; all strategies share the same staged pipeline and differ
// in validation ceilings, chunking policy, searchable-text construction,
// and store batch sizes.
package strategies
