package sheetbuf

import (
	"strconv"
	"time"
)

// ValueKind identifies the active variant of a CellValue.
type ValueKind uint8

// Cell value kinds enumeration.
const (
	KindEmpty ValueKind = iota
	KindNumber
	KindBool
	KindString
	KindSharedString
	KindDate
	KindFormula
	KindError
	KindRichString
)

// String returns a human-readable name for the ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindNumber:
		return "Number"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindSharedString:
		return "SharedString"
	case KindDate:
		return "Date"
	case KindFormula:
		return "Formula"
	case KindError:
		return "Error"
	case KindRichString:
		return "RichString"
	default:
		return "Unknown"
	}
}

// Spreadsheet error code strings as they appear in cell error values.
const (
	ErrCodeNull  = "#NULL!"
	ErrCodeDiv0  = "#DIV/0!"
	ErrCodeValue = "#VALUE!"
	ErrCodeRef   = "#REF!"
	ErrCodeName  = "#NAME?"
	ErrCodeNum   = "#NUM!"
	ErrCodeNA    = "#N/A"
)

// RichRun is one formatted run of a rich-text cell value.
// A nil Font means the run inherits the cell's formatting.
type RichRun struct {
	Text string
	Font *Font
}

// CellValue is a closed tagged union over everything a cell can hold.
// The zero value is the Empty variant.
type CellValue struct {
	kind   ValueKind
	num    float64 // Number, Date
	flag   bool    // Bool
	str    string  // String, Error, Formula expression
	handle int     // SharedString
	cached *CellValue
	runs   []RichRun
}

// EmptyValue returns the Empty variant.
func EmptyValue() CellValue {
	return CellValue{}
}

// NumberValue wraps a float64 as a Number value.
func NumberValue(v float64) CellValue {
	return CellValue{kind: KindNumber, num: v}
}

// BoolValue wraps a bool as a Bool value.
func BoolValue(v bool) CellValue {
	return CellValue{kind: KindBool, flag: v}
}

// StringValue wraps text as an inline String value that does not go
// through the workbook's shared string table.
func StringValue(s string) CellValue {
	return CellValue{kind: KindString, str: s}
}

// SharedStringValue wraps a handle minted by a SharedStringTable.
func SharedStringValue(handle int) CellValue {
	return CellValue{kind: KindSharedString, handle: handle}
}

// DateValue wraps a date serial (days since the 1899-12-30 epoch, the
// fractional part is time of day).
func DateValue(serial float64) CellValue {
	return CellValue{kind: KindDate, num: serial}
}

// dateEpoch is day zero of the serial date system.
var dateEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateValueFromTime converts a time.Time to a Date value.
func DateValueFromTime(t time.Time) CellValue {
	serial := t.UTC().Sub(dateEpoch).Hours() / 24
	return CellValue{kind: KindDate, num: serial}
}

// FormulaValue wraps a formula expression (without leading '=') and an
// optional cached evaluation result. A nil cached result means the
// formula needs evaluation; it never stands for zero or an error.
func FormulaValue(expr string, cached *CellValue) CellValue {
	return CellValue{kind: KindFormula, str: expr, cached: cached}
}

// ErrorValue wraps a spreadsheet error code such as ErrCodeDiv0.
func ErrorValue(code string) CellValue {
	return CellValue{kind: KindError, str: code}
}

// RichStringValue wraps an ordered sequence of formatted text runs.
func RichStringValue(runs ...RichRun) CellValue {
	return CellValue{kind: KindRichString, runs: runs}
}

// Kind reports the active variant.
func (v CellValue) Kind() ValueKind { return v.kind }

// IsEmpty reports whether this is the Empty variant.
func (v CellValue) IsEmpty() bool { return v.kind == KindEmpty }

// Number returns the numeric payload of a Number value.
func (v CellValue) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Bool returns the payload of a Bool value.
func (v CellValue) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Str returns the payload of an inline String value.
func (v CellValue) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// SharedString returns the handle of a SharedString value.
func (v CellValue) SharedString() (int, bool) {
	return v.handle, v.kind == KindSharedString
}

// Serial returns the serial payload of a Date value.
func (v CellValue) Serial() (float64, bool) {
	return v.num, v.kind == KindDate
}

// Time converts a Date value to a time.Time in UTC.
func (v CellValue) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	d := time.Duration(v.num * float64(24) * float64(time.Hour))
	return dateEpoch.Add(d), true
}

// Formula returns the expression and cached result of a Formula value.
// The cached result is nil when the formula has not been evaluated.
func (v CellValue) Formula() (expr string, cached *CellValue, ok bool) {
	return v.str, v.cached, v.kind == KindFormula
}

// ErrorCode returns the payload of an Error value.
func (v CellValue) ErrorCode() (string, bool) {
	return v.str, v.kind == KindError
}

// Runs returns the runs of a RichString value.
func (v CellValue) Runs() ([]RichRun, bool) {
	return v.runs, v.kind == KindRichString
}

// PlainText returns the concatenated text of a RichString value with
// all run formatting stripped.
func (v CellValue) PlainText() string {
	var s string
	for _, r := range v.runs {
		s += r.Text
	}
	return s
}

// Equal reports deep equality of two values, including the variant.
func (v CellValue) Equal(o CellValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindNumber, KindDate:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindString, KindError:
		return v.str == o.str
	case KindSharedString:
		return v.handle == o.handle
	case KindFormula:
		if v.str != o.str {
			return false
		}
		if (v.cached == nil) != (o.cached == nil) {
			return false
		}
		return v.cached == nil || v.cached.Equal(*o.cached)
	case KindRichString:
		if len(v.runs) != len(o.runs) {
			return false
		}
		for i := range v.runs {
			a, b := v.runs[i], o.runs[i]
			if a.Text != b.Text {
				return false
			}
			if (a.Font == nil) != (b.Font == nil) {
				return false
			}
			if a.Font != nil && *a.Font != *b.Font {
				return false
			}
		}
		return true
	}
	return false
}

// displayText renders a value the way it would appear in a cell, used
// when a buffer carries only the displayable form of a value. Shared
// string handles are resolved against sst.
func displayText(v CellValue, sst *SharedStringTable) (string, error) {
	switch v.kind {
	case KindEmpty:
		return "", nil
	case KindNumber, KindDate:
		return strconv.FormatFloat(v.num, 'g', -1, 64), nil
	case KindBool:
		if v.flag {
			return "TRUE", nil
		}
		return "FALSE", nil
	case KindString, KindError:
		return v.str, nil
	case KindSharedString:
		return sst.Resolve(v.handle)
	case KindRichString:
		return v.PlainText(), nil
	case KindFormula:
		if v.cached == nil {
			return "", nil
		}
		return displayText(*v.cached, sst)
	}
	return "", nil
}
