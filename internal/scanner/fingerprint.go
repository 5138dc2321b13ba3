package scanner

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const (
	fieldSep  = 0x00
	recordSep = 0x1e
)

// Fingerprint digests the (path, mtime) pairs of files in path order.
// The result does not depend on the order of the input slice.
func Fingerprint(files []FileInfo) uint64 {
	sorted := files
	if !sort.SliceIsSorted(files, func(i, j int) bool { return files[i].Path < files[j].Path }) {
		sorted = make([]FileInfo, len(files))
		copy(sorted, files)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	}

	h := xxhash.New()
	buf := make([]byte, 0, 64)
	for _, f := range sorted {
		buf = append(buf[:0], f.Path...)
		buf = append(buf, fieldSep)
		buf = strconv.AppendInt(buf, f.ModTime, 10)
		buf = append(buf, recordSep)
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}
