package sheetbuf

import (
	"archive/zip"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage is the sink for encoded sheet buffers crossing an I/O
// boundary. Implementations can write to ZIP archives or directory
// structures.
type Storage interface {
	WriteBlob(path string, blob []byte) error
}

// DirStorage writes buffers to a directory structure on disk. This is
// useful for debugging as it allows inspection of individual buffers.
type DirStorage struct {
	Dir string // Root directory path
}

// ZipStorage writes buffers to a ZIP archive for single-file hand-off.
type ZipStorage struct {
	z *zip.Writer
}

// NewDirStorage creates a new directory-based storage that writes blobs
// under the specified directory. The directory will be created if it
// doesn't exist.
func NewDirStorage(dir string) *DirStorage {
	return &DirStorage{
		Dir: dir,
	}
}

// WriteBlob writes a blob into the directory structure.
// Creates any necessary parent directories automatically.
func (ds *DirStorage) WriteBlob(path string, blob []byte) error {
	path = strings.TrimPrefix(path, "/")
	fn := filepath.Join(ds.Dir, path)
	err := os.MkdirAll(filepath.Dir(fn), 0777)
	if err != nil {
		return err
	}
	return os.WriteFile(fn, blob, 0666)
}

// NewZipStorage creates a new ZIP-based storage that writes to the
// given writer, typically a file opened for writing.
func NewZipStorage(out io.Writer) *ZipStorage {
	return &ZipStorage{z: zip.NewWriter(out)}
}

// WriteBlob writes a blob as one entry of the ZIP archive.
func (zs *ZipStorage) WriteBlob(path string, blob []byte) error {
	path = strings.TrimPrefix(path, "/")
	f, err := zs.z.Create(path)
	if err != nil {
		return err
	}
	_, err = f.Write(blob)
	return err
}

// Close finalizes the ZIP archive. Must be called after all writes are
// complete; an unclosed archive is unreadable.
func (zs *ZipStorage) Close() error {
	return zs.z.Close()
}

// BlobHash content-addresses a blob. Identical buffers hash to the same
// name, which lets the export layer write them once.
func BlobHash(blob []byte) uuid.UUID {
	h := fnv.New128()
	h.Write(blob)
	uid, _ := uuid.FromBytes(h.Sum([]byte{}))
	return uid
}

// ExportBuffers encodes every sheet of the workbook and writes each
// encoded buffer to st under "buffers/<hash>.sbuf". Sheets whose
// buffers are byte-identical share one blob. The returned map gives the
// blob path per sheet name.
func ExportBuffers(st Storage, wb *Workbook) (map[string]string, error) {
	paths := make(map[string]string, len(wb.Sheets))
	written := map[uuid.UUID]string{}
	for _, sheet := range wb.Sheets {
		buf, err := EncodeSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("encode sheet '%s': %w", sheet.Name, err)
		}
		uid := BlobHash(buf)
		path, ok := written[uid]
		if !ok {
			path = "buffers/" + uid.String() + ".sbuf"
			if err := st.WriteBlob(path, buf); err != nil {
				return nil, fmt.Errorf("write sheet '%s': %w", sheet.Name, err)
			}
			written[uid] = path
		}
		paths[sheet.Name] = path
	}
	return paths, nil
}
