package sheetbuf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer format constants. The layout is bit-exact and little-endian so
// independently built producers and consumers interoperate.
const (
	bufferMagic   uint32 = 0x46554253 // "SBUF"
	bufferVersion uint16 = 1

	headerSize        = 16
	rowIndexEntrySize = 8  // uint32 row number + uint32 data offset
	denseSlotSize     = 9  // 1-byte tag + 8-byte payload
	sparseEntrySize   = 11 // uint16 column + 1-byte tag + 8-byte payload

	// emptyRowOffset marks a row present in the index with zero cells,
	// so readers can tell it apart from an absent row.
	emptyRowOffset uint32 = 0xFFFFFFFF

	// layoutSparse is the low flag bit; the remaining flag bits hold the
	// zero-based offset of the bounding box's minimum column.
	layoutSparse uint32 = 1
)

// Cell type tags, a closed enumeration. Unrecognized tags make a
// decoder fail rather than guess.
const (
	tagEmpty byte = iota
	tagNumber
	tagString
	tagBool
	tagDate
	tagError
	tagFormula
	tagRichString

	tagMax = tagRichString
)

// CellEntry is one decoded (row, column, value) triple.
type CellEntry struct {
	Row, Col int
	Value    CellValue
}

// localStrings collects the unique strings referenced by one buffer.
// Indices are local to the buffer, not the workbook's handle space, so
// decoding never needs access to the original workbook.
type localStrings struct {
	list  []string
	index map[string]int
}

func (ls *localStrings) add(s string) int {
	if i, ok := ls.index[s]; ok {
		return i
	}
	if ls.index == nil {
		ls.index = map[string]int{}
	}
	i := len(ls.list)
	ls.list = append(ls.list, s)
	ls.index[s] = i
	return i
}

// EncodeSheet serializes the cell values inside the sheet's bounding
// box into one contiguous buffer. The physical layout is dense when at
// least 30% of the box is occupied, sparse otherwise; decoders never
// need to know which was chosen. Style handles are not carried.
//
// Encoding is read-only over the store; the store must not be mutated
// while an encode of it is in flight.
func EncodeSheet(s *SheetStore) ([]byte, error) {
	bounds, hasBounds := s.Bounds()
	occupied := s.CellCount()

	sparse := true
	var area int64
	if hasBounds {
		area = bounds.Area()
		// density >= 0.30 selects dense; exact integer form, a tie
		// selects dense
		sparse = 10*int64(occupied) < 3*area
	} else {
		bounds = Bounds{MinRow: 1, MaxRow: 0, MinCol: 1, MaxCol: 0}
	}

	colSpan := 0
	if hasBounds {
		colSpan = bounds.MaxCol - bounds.MinCol + 1
	}

	var sst *SharedStringTable
	if s.book != nil {
		sst = s.book.Strings()
	} else {
		sst = NewSharedStringTable()
	}

	var ls localStrings
	var cellData []byte
	var rowNums []uint32
	var rowOffs []uint32

	appendRow := func(rowNum int, r map[int]Cell) error {
		if sparse {
			n := 0
			for _, c := range r {
				if !c.Value.IsEmpty() {
					n++
				}
			}
			if n == 0 {
				return nil
			}
			rowNums = append(rowNums, uint32(rowNum))
			rowOffs = append(rowOffs, uint32(len(cellData)))
			cellData = binary.LittleEndian.AppendUint16(cellData, uint16(n))
			return enumerate(r, func(col int, c Cell) error {
				if c.Value.IsEmpty() {
					return nil
				}
				tag, payload, err := encodeValue(c.Value, sst, &ls)
				if err != nil {
					return err
				}
				cellData = binary.LittleEndian.AppendUint16(cellData, uint16(col-bounds.MinCol))
				cellData = append(cellData, tag)
				cellData = append(cellData, payload[:]...)
				return nil
			})
		}

		// dense: every row of the box gets an index entry; zero-cell
		// rows carry the sentinel offset and no slot data
		rowNums = append(rowNums, uint32(rowNum))
		if !rowHasValue(r) {
			rowOffs = append(rowOffs, emptyRowOffset)
			return nil
		}
		rowOffs = append(rowOffs, uint32(len(cellData)))
		for col := bounds.MinCol; col <= bounds.MaxCol; col++ {
			c, ok := r[col]
			if !ok || c.Value.IsEmpty() {
				cellData = append(cellData, tagEmpty, 0, 0, 0, 0, 0, 0, 0, 0)
				continue
			}
			tag, payload, err := encodeValue(c.Value, sst, &ls)
			if err != nil {
				return err
			}
			cellData = append(cellData, tag)
			cellData = append(cellData, payload[:]...)
		}
		return nil
	}

	if hasBounds {
		if sparse {
			err := enumerate(s.rows, func(rowNum int, r map[int]Cell) error {
				return appendRow(rowNum, r)
			})
			if err != nil {
				return nil, err
			}
		} else {
			for rowNum := bounds.MinRow; rowNum <= bounds.MaxRow; rowNum++ {
				if err := appendRow(rowNum, s.rows[rowNum]); err != nil {
					return nil, err
				}
			}
		}
	}

	flags := uint32(bounds.MinCol-1) << 1
	if sparse {
		flags |= layoutSparse
	}

	blobLen := 0
	for _, str := range ls.list {
		blobLen += len(str)
	}

	size := headerSize +
		len(rowNums)*rowIndexEntrySize +
		8 + len(ls.list)*4 + blobLen +
		len(cellData)
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint32(buf, bufferMagic)
	buf = binary.LittleEndian.AppendUint16(buf, bufferVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(rowNums)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(colSpan))
	buf = binary.LittleEndian.AppendUint32(buf, flags)

	for i := range rowNums {
		buf = binary.LittleEndian.AppendUint32(buf, rowNums[i])
		buf = binary.LittleEndian.AppendUint32(buf, rowOffs[i])
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ls.list)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(blobLen))
	off := 0
	for _, str := range ls.list {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(off))
		off += len(str)
	}
	for _, str := range ls.list {
		buf = append(buf, str...)
	}

	buf = append(buf, cellData...)

	logger.Debug().
		Str("sheet", s.Name).
		Int("occupied", occupied).
		Int64("area", area).
		Bool("sparse", sparse).
		Int("bytes", len(buf)).
		Msg("sheet encoded")

	return buf, nil
}

func rowHasValue(r map[int]Cell) bool {
	for _, c := range r {
		if !c.Value.IsEmpty() {
			return true
		}
	}
	return false
}

// encodeValue maps a value to its tag and 8-byte payload. String-like
// payloads hold a local string-table index in the low 4 bytes; formula
// cells carry the display text of their cached result and rich strings
// their plain text.
func encodeValue(v CellValue, sst *SharedStringTable, ls *localStrings) (byte, [8]byte, error) {
	var payload [8]byte
	switch v.Kind() {
	case KindEmpty:
		return tagEmpty, payload, nil
	case KindNumber:
		n, _ := v.Number()
		binary.LittleEndian.PutUint64(payload[:], math.Float64bits(n))
		return tagNumber, payload, nil
	case KindDate:
		n, _ := v.Serial()
		binary.LittleEndian.PutUint64(payload[:], math.Float64bits(n))
		return tagDate, payload, nil
	case KindBool:
		b, _ := v.Bool()
		if b {
			payload[0] = 1
		}
		return tagBool, payload, nil
	case KindString:
		s, _ := v.Str()
		binary.LittleEndian.PutUint32(payload[:4], uint32(ls.add(s)))
		return tagString, payload, nil
	case KindSharedString:
		h, _ := v.SharedString()
		s, err := sst.Resolve(h)
		if err != nil {
			return 0, payload, err
		}
		binary.LittleEndian.PutUint32(payload[:4], uint32(ls.add(s)))
		return tagString, payload, nil
	case KindError:
		code, _ := v.ErrorCode()
		binary.LittleEndian.PutUint32(payload[:4], uint32(ls.add(code)))
		return tagError, payload, nil
	case KindFormula:
		display, err := displayText(v, sst)
		if err != nil {
			return 0, payload, err
		}
		binary.LittleEndian.PutUint32(payload[:4], uint32(ls.add(display)))
		return tagFormula, payload, nil
	case KindRichString:
		binary.LittleEndian.PutUint32(payload[:4], uint32(ls.add(v.PlainText())))
		return tagRichString, payload, nil
	}
	return 0, payload, fmt.Errorf("cell value kind %d: %w", v.Kind(), ErrOutOfRange)
}

// SheetBuffer is the decoded view over an encoded sheet buffer. All
// structure and tags are validated during DecodeSheet, so lookups and
// iteration cannot fail afterwards.
type SheetBuffer struct {
	sparse   bool
	minCol   int
	colSpan  int
	rowNums  []int
	rowOffs  []uint32
	rowIndex map[int]int // absolute row number -> index into rowNums
	strings  []string
	data     []byte
}

// Decode is a convenience wrapper returning all entries of a buffer.
func Decode(buf []byte) ([]CellEntry, error) {
	sb, err := DecodeSheet(buf)
	if err != nil {
		return nil, err
	}
	return sb.Entries(), nil
}

// DecodeSheet parses and fully validates an encoded sheet buffer. A
// magic or version mismatch fails with ErrUnsupportedFormat before any
// other data is interpreted; structural damage fails with
// ErrCorruptBuffer and no partial result.
func DecodeSheet(buf []byte) (*SheetBuffer, error) {
	if len(buf) < 6 {
		return nil, fmt.Errorf("buffer too short for magic and version: %w", ErrUnsupportedFormat)
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != bufferMagic {
		return nil, fmt.Errorf("bad magic: %w", ErrUnsupportedFormat)
	}
	if v := binary.LittleEndian.Uint16(buf[4:6]); v != bufferVersion {
		return nil, fmt.Errorf("version %d: %w", v, ErrUnsupportedFormat)
	}
	if len(buf) < headerSize {
		return nil, fmt.Errorf("truncated header: %w", ErrCorruptBuffer)
	}

	rowCount := int(binary.LittleEndian.Uint32(buf[6:10]))
	colSpan := int(binary.LittleEndian.Uint16(buf[10:12]))
	flags := binary.LittleEndian.Uint32(buf[12:16])

	sb := &SheetBuffer{
		sparse:   flags&layoutSparse != 0,
		minCol:   int(flags>>1) + 1,
		colSpan:  colSpan,
		rowIndex: make(map[int]int, rowCount),
	}

	pos := headerSize
	if int64(len(buf)-pos) < int64(rowCount)*rowIndexEntrySize {
		return nil, fmt.Errorf("truncated row index: %w", ErrCorruptBuffer)
	}
	sb.rowNums = make([]int, rowCount)
	sb.rowOffs = make([]uint32, rowCount)
	for i := 0; i < rowCount; i++ {
		n := int(binary.LittleEndian.Uint32(buf[pos:]))
		if _, dup := sb.rowIndex[n]; dup {
			return nil, fmt.Errorf("duplicate row %d in index: %w", n, ErrCorruptBuffer)
		}
		sb.rowNums[i] = n
		sb.rowOffs[i] = binary.LittleEndian.Uint32(buf[pos+4:])
		sb.rowIndex[n] = i
		pos += rowIndexEntrySize
	}

	if len(buf)-pos < 8 {
		return nil, fmt.Errorf("truncated string table: %w", ErrCorruptBuffer)
	}
	strCount := int(binary.LittleEndian.Uint32(buf[pos:]))
	blobLen := int(binary.LittleEndian.Uint32(buf[pos+4:]))
	pos += 8
	if int64(len(buf)-pos) < int64(strCount)*4+int64(blobLen) {
		return nil, fmt.Errorf("truncated string table: %w", ErrCorruptBuffer)
	}
	offsets := make([]int, strCount)
	for i := range offsets {
		offsets[i] = int(binary.LittleEndian.Uint32(buf[pos:]))
		pos += 4
	}
	blob := buf[pos : pos+blobLen]
	pos += blobLen
	sb.strings = make([]string, strCount)
	for i := range offsets {
		end := blobLen
		if i+1 < strCount {
			end = offsets[i+1]
		}
		if offsets[i] > end || end > blobLen {
			return nil, fmt.Errorf("string offset outside blob: %w", ErrCorruptBuffer)
		}
		sb.strings[i] = string(blob[offsets[i]:end])
	}

	sb.data = buf[pos:]
	if err := sb.validateCellData(); err != nil {
		return nil, err
	}
	return sb, nil
}

// validateCellData walks every row's cell data once so that Entries and
// At never encounter malformed input.
func (sb *SheetBuffer) validateCellData() error {
	for i, n := range sb.rowNums {
		off := sb.rowOffs[i]
		if off == emptyRowOffset {
			continue
		}
		if !sb.sparse {
			end := int64(off) + int64(sb.colSpan)*denseSlotSize
			if int64(off) > int64(len(sb.data)) || end > int64(len(sb.data)) {
				return fmt.Errorf("row %d data outside buffer: %w", n, ErrCorruptBuffer)
			}
			for c := 0; c < sb.colSpan; c++ {
				p := int(off) + c*denseSlotSize
				if err := sb.validateSlot(sb.data[p], sb.data[p+1:p+9], false); err != nil {
					return err
				}
			}
			continue
		}
		if int64(off)+2 > int64(len(sb.data)) {
			return fmt.Errorf("row %d data outside buffer: %w", n, ErrCorruptBuffer)
		}
		count := int(binary.LittleEndian.Uint16(sb.data[off:]))
		end := int64(off) + 2 + int64(count)*sparseEntrySize
		if end > int64(len(sb.data)) {
			return fmt.Errorf("row %d data outside buffer: %w", n, ErrCorruptBuffer)
		}
		for c := 0; c < count; c++ {
			p := int(off) + 2 + c*sparseEntrySize
			if col := int(binary.LittleEndian.Uint16(sb.data[p:])); col >= sb.colSpan {
				return fmt.Errorf("row %d column %d outside span: %w", n, col, ErrCorruptBuffer)
			}
			if err := sb.validateSlot(sb.data[p+2], sb.data[p+3:p+11], true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (sb *SheetBuffer) validateSlot(tag byte, payload []byte, sparse bool) error {
	if tag > tagMax || (sparse && tag == tagEmpty) {
		return fmt.Errorf("cell type tag %d: %w", tag, ErrCorruptBuffer)
	}
	switch tag {
	case tagString, tagError, tagFormula, tagRichString:
		if idx := binary.LittleEndian.Uint32(payload[:4]); int(idx) >= len(sb.strings) {
			return fmt.Errorf("string index %d outside table: %w", idx, ErrCorruptBuffer)
		}
	}
	return nil
}

// Entries returns every non-empty (row, col, value) triple in the
// buffer, rows in index order, columns ascending within a row.
func (sb *SheetBuffer) Entries() []CellEntry {
	var out []CellEntry
	for i, n := range sb.rowNums {
		off := sb.rowOffs[i]
		if off == emptyRowOffset {
			continue
		}
		if !sb.sparse {
			for c := 0; c < sb.colSpan; c++ {
				p := int(off) + c*denseSlotSize
				if sb.data[p] == tagEmpty {
					continue
				}
				out = append(out, CellEntry{
					Row:   n,
					Col:   sb.minCol + c,
					Value: sb.decodeSlot(sb.data[p], sb.data[p+1:p+9]),
				})
			}
			continue
		}
		count := int(binary.LittleEndian.Uint16(sb.data[off:]))
		for c := 0; c < count; c++ {
			p := int(off) + 2 + c*sparseEntrySize
			col := int(binary.LittleEndian.Uint16(sb.data[p:]))
			out = append(out, CellEntry{
				Row:   n,
				Col:   sb.minCol + col,
				Value: sb.decodeSlot(sb.data[p+2], sb.data[p+3:p+11]),
			})
		}
	}
	return out
}

// At reports the value at (row, col). Lookup is O(1) for dense buffers
// and linear in the row's cell count for sparse buffers. ok is false
// for empty positions.
func (sb *SheetBuffer) At(row, col int) (CellValue, bool) {
	i, exists := sb.rowIndex[row]
	if !exists || col < sb.minCol || col >= sb.minCol+sb.colSpan {
		return EmptyValue(), false
	}
	off := sb.rowOffs[i]
	if off == emptyRowOffset {
		return EmptyValue(), false
	}
	if !sb.sparse {
		p := int(off) + (col-sb.minCol)*denseSlotSize
		if sb.data[p] == tagEmpty {
			return EmptyValue(), false
		}
		return sb.decodeSlot(sb.data[p], sb.data[p+1:p+9]), true
	}
	count := int(binary.LittleEndian.Uint16(sb.data[off:]))
	for c := 0; c < count; c++ {
		p := int(off) + 2 + c*sparseEntrySize
		if int(binary.LittleEndian.Uint16(sb.data[p:]))+sb.minCol == col {
			return sb.decodeSlot(sb.data[p+2], sb.data[p+3:p+11]), true
		}
	}
	return EmptyValue(), false
}

// decodeSlot assumes the tag and payload were validated during decode.
func (sb *SheetBuffer) decodeSlot(tag byte, payload []byte) CellValue {
	switch tag {
	case tagNumber:
		return NumberValue(math.Float64frombits(binary.LittleEndian.Uint64(payload)))
	case tagDate:
		return DateValue(math.Float64frombits(binary.LittleEndian.Uint64(payload)))
	case tagBool:
		return BoolValue(payload[0] != 0)
	case tagString:
		return StringValue(sb.strings[binary.LittleEndian.Uint32(payload[:4])])
	case tagError:
		return ErrorValue(sb.strings[binary.LittleEndian.Uint32(payload[:4])])
	case tagFormula:
		// only the cached display text crosses the buffer boundary
		cached := StringValue(sb.strings[binary.LittleEndian.Uint32(payload[:4])])
		return FormulaValue("", &cached)
	case tagRichString:
		return RichStringValue(RichRun{Text: sb.strings[binary.LittleEndian.Uint32(payload[:4])]})
	}
	return EmptyValue()
}
