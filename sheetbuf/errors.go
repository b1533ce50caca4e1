package sheetbuf

import "errors"

// ErrOutOfRange indicates a row or column beyond the format limits, or
// a handle beyond a table's current size. Never silently clamped.
var ErrOutOfRange = errors.New("out of range")

// ErrCorruptBuffer indicates structural damage found while decoding a
// sheet buffer: an unrecognized type tag, a string offset outside the
// blob, or a row entry pointing outside the cell-data section.
var ErrCorruptBuffer = errors.New("corrupt buffer")

// ErrUnsupportedFormat indicates a magic or version mismatch on decode,
// detected before any data is interpreted. Distinct from
// ErrCorruptBuffer because it signals version skew, not damage.
var ErrUnsupportedFormat = errors.New("unsupported buffer format")
