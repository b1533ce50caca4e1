package sheetbuf

import "fmt"

// Font represents font formatting properties for cell content.
// These properties correspond to the OpenXML font element as defined in ECMA-376.
type Font struct {
	Name          string        // Font family name ("" = use default)
	Size          float64       // Font size in points (0 = use default of 11)
	Bold          bool          // Bold text
	Italic        bool          // Italic text
	Underline     UnderlineType // Underline style
	Strikethrough bool          // Strikethrough text
	Color         string        // ARGB hex color ("" = automatic)
}

// UnderlineType represents the type of underline formatting.
type UnderlineType string

// Underline type constants as defined in ECMA-376 (ST_UnderlineValues).
const (
	UnderlineNone             UnderlineType = ""                 // No underline (default)
	UnderlineSingle           UnderlineType = "single"           // Single underline
	UnderlineDouble           UnderlineType = "double"           // Double underline
	UnderlineSingleAccounting UnderlineType = "singleAccounting" // Single accounting underline
	UnderlineDoubleAccounting UnderlineType = "doubleAccounting" // Double accounting underline
)

// IsDefault returns true if the font uses all default properties.
func (f *Font) IsDefault() bool {
	return *f == Font{}
}

// PatternType identifies a fill pattern.
type PatternType string

// Fill pattern constants (ST_PatternType subset).
const (
	PatternNone    PatternType = ""
	PatternSolid   PatternType = "solid"
	PatternGray125 PatternType = "gray125"
)

// Fill represents cell background formatting.
type Fill struct {
	Pattern   PatternType
	ForeColor string // ARGB hex
	BackColor string // ARGB hex
}

// BorderStyle identifies a border line style.
type BorderStyle string

// Border style constants (ST_BorderStyle subset).
const (
	BorderNone   BorderStyle = ""
	BorderThin   BorderStyle = "thin"
	BorderMedium BorderStyle = "medium"
	BorderThick  BorderStyle = "thick"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
	BorderDouble BorderStyle = "double"
	BorderHair   BorderStyle = "hair"
)

// BorderEdge is one side of a cell border.
type BorderEdge struct {
	Style BorderStyle
	Color string // ARGB hex
}

// Border represents the four cell border edges.
type Border struct {
	Left   BorderEdge
	Right  BorderEdge
	Top    BorderEdge
	Bottom BorderEdge
}

// HorizontalAlign identifies horizontal cell alignment.
type HorizontalAlign string

// Horizontal alignment constants.
const (
	HAlignDefault HorizontalAlign = ""
	HAlignLeft    HorizontalAlign = "left"
	HAlignCenter  HorizontalAlign = "center"
	HAlignRight   HorizontalAlign = "right"
	HAlignFill    HorizontalAlign = "fill"
)

// VerticalAlign identifies vertical cell alignment.
type VerticalAlign string

// Vertical alignment constants.
const (
	VAlignDefault VerticalAlign = ""
	VAlignTop     VerticalAlign = "top"
	VAlignCenter  VerticalAlign = "center"
	VAlignBottom  VerticalAlign = "bottom"
)

// Alignment represents cell content alignment.
type Alignment struct {
	Horizontal   HorizontalAlign
	Vertical     VerticalAlign
	WrapText     bool
	TextRotation int // degrees, -90..90
	Indent       int
}

// Protection represents cell protection flags, effective only when the
// enclosing sheet is protected.
type Protection struct {
	Locked bool
	Hidden bool
}

// Style is one complete formatting record. All fields are comparable,
// so two records built independently with identical content compare
// equal and deduplicate to the same handle. Records are immutable once
// inserted; a modified style is a new record with a new handle.
type Style struct {
	Font         Font
	Fill         Fill
	Border       Border
	Alignment    Alignment
	NumberFormat string // format code, e.g. "0.00" ("" = General)
	Protection   Protection
}

// StyleTable deduplicates structurally identical style records,
// returning a stable integer handle per unique record. The set of
// distinct formats in a real workbook is orders of magnitude smaller
// than the cell count, so this is the dominant space saving for styled
// workbooks.
type StyleTable struct {
	list  []Style
	index map[Style]int
}

// NewStyleTable creates an empty table.
func NewStyleTable() *StyleTable {
	return &StyleTable{
		index: map[Style]int{},
	}
}

// Insert returns the handle for st, minting a new one when no
// field-for-field identical record exists yet.
func (t *StyleTable) Insert(st Style) int {
	if i, ok := t.index[st]; ok {
		return i
	}
	i := len(t.list)
	t.list = append(t.list, st)
	t.index[st] = i
	return i
}

// Resolve returns the record for a previously minted handle.
func (t *StyleTable) Resolve(handle int) (Style, error) {
	if handle < 0 || handle >= len(t.list) {
		return Style{}, fmt.Errorf("style handle %d: %w", handle, ErrOutOfRange)
	}
	return t.list[handle], nil
}

// Count returns the number of unique style records in the table.
func (t *StyleTable) Count() int {
	return len(t.list)
}
