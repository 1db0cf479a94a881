// Package fuzztests houses Go fuzz harnesses for the front half of the
// analyzer: syntax-tree decoding, IR translation and the default pass
// pipeline. They guard against panics and hangs on arbitrary input.
package fuzztests
