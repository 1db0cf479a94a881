// Package diag defines the diagnostic model shared by every flowscope pass.
//
// Passes never print. They report through a Reporter, usually a BagReporter
// wrapped in a DedupReporter, and the driver renders the resulting Bag with
// internal/diagfmt.
//
// Codes are grouped by range:
//
//	IN1000   loading and decoding syntax trees
//	SEM3000  scope and symbol resolution, class construction
//	TYP4000  type inference
//	OBS6000  observability
package diag
