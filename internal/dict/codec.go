package dict

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/eslsoft/studycore/internal/entity"
)

// Cache artifact layout, little-endian throughout:
//
//	8  bytes  magic
//	4  bytes  format version
//	32 bytes  source fingerprint
//	8  bytes  word count
//	8  bytes  entry-table offset
//	nodes     label(1) firstChild(4) nextSibling(4) entry(4), root first
//	entries   count(4), then per entry four length-prefixed strings
//	          (word, phonetic, definition, translation) and a 2-byte
//	          example count followed by length-prefixed examples
const (
	FormatVersion uint32 = 1

	headerSize = 8 + 4 + 32 + 8 + 8
	nodeSize   = 1 + 4 + 4 + 4
	noLink     = uint32(0xFFFFFFFF)
)

var magic = [8]byte{'S', 'T', 'U', 'D', 'Y', 'T', 'R', 'I'}

// Encode serializes the trie and its entry table.
func Encode(w io.Writer, t *Trie, fingerprint [32]byte) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, FormatVersion); err != nil {
		return err
	}
	if _, err := bw.Write(fingerprint[:]); err != nil {
		return err
	}
	entryOffset := uint64(headerSize + len(t.nodes)*nodeSize)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(t.entries))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, entryOffset); err != nil {
		return err
	}

	for _, n := range t.nodes {
		if err := bw.WriteByte(n.label); err != nil {
			return err
		}
		for _, link := range []int32{n.firstChild, n.nextSibling, n.entry} {
			if err := binary.Write(bw, binary.LittleEndian, encodeLink(link)); err != nil {
				return err
			}
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(t.entries))); err != nil {
		return err
	}
	for i := range t.entries {
		if err := writeEntry(bw, &t.entries[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads an artifact back into a queryable trie. It rejects bad
// magic, an unknown format version, and a fingerprint that disagrees
// with the current source database, all as entity.ErrCacheInvalid.
func Decode(r io.Reader, fingerprint [32]byte) (*Trie, error) {
	br := bufio.NewReader(r)

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", entity.ErrCacheInvalid, err)
	}
	if !bytes.Equal(header[:8], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", entity.ErrCacheInvalid)
	}
	if v := binary.LittleEndian.Uint32(header[8:12]); v != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", entity.ErrCacheInvalid, v, FormatVersion)
	}
	if !bytes.Equal(header[12:44], fingerprint[:]) {
		return nil, fmt.Errorf("%w: source fingerprint mismatch", entity.ErrCacheInvalid)
	}
	wordCount := binary.LittleEndian.Uint64(header[44:52])
	entryOffset := binary.LittleEndian.Uint64(header[52:60])

	nodeBytes := entryOffset - headerSize
	if entryOffset < headerSize || nodeBytes%nodeSize != 0 {
		return nil, fmt.Errorf("%w: misaligned node section", entity.ErrCacheInvalid)
	}
	nodeCount := nodeBytes / nodeSize
	if nodeCount == 0 || nodeCount > math.MaxInt32 {
		return nil, fmt.Errorf("%w: node count %d out of range", entity.ErrCacheInvalid, nodeCount)
	}

	t := &Trie{nodes: make([]node, nodeCount)}
	buf := make([]byte, nodeSize)
	for i := range t.nodes {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: truncated node section: %v", entity.ErrCacheInvalid, err)
		}
		t.nodes[i] = node{
			label:       buf[0],
			firstChild:  decodeLink(binary.LittleEndian.Uint32(buf[1:5])),
			nextSibling: decodeLink(binary.LittleEndian.Uint32(buf[5:9])),
			entry:       decodeLink(binary.LittleEndian.Uint32(buf[9:13])),
		}
	}

	var entryCount uint32
	if err := binary.Read(br, binary.LittleEndian, &entryCount); err != nil {
		return nil, fmt.Errorf("%w: truncated entry table: %v", entity.ErrCacheInvalid, err)
	}
	if uint64(entryCount) != wordCount {
		return nil, fmt.Errorf("%w: entry count %d disagrees with header word count %d",
			entity.ErrCacheInvalid, entryCount, wordCount)
	}
	t.entries = make([]entity.WordEntry, entryCount)
	for i := range t.entries {
		if err := readEntry(br, &t.entries[i]); err != nil {
			return nil, err
		}
	}

	for i := range t.nodes {
		n := &t.nodes[i]
		if !validLink(n.firstChild, int32(nodeCount)) || !validLink(n.nextSibling, int32(nodeCount)) {
			return nil, fmt.Errorf("%w: node %d links outside the node section", entity.ErrCacheInvalid, i)
		}
		if !validLink(n.entry, int32(entryCount)) {
			return nil, fmt.Errorf("%w: node %d references entry %d of %d", entity.ErrCacheInvalid, i, n.entry, entryCount)
		}
	}
	return t, nil
}

// validLink accepts -1 (no link) or an index into a table of n items.
func validLink(v, n int32) bool {
	return v == -1 || (v >= 0 && v < n)
}

func writeEntry(w *bufio.Writer, e *entity.WordEntry) error {
	for _, s := range []string{e.Word, e.Phonetic, e.Definition, e.Translation} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	if len(e.Examples) > math.MaxUint16 {
		return fmt.Errorf("entry %q: %d examples exceed the format limit", e.Word, len(e.Examples))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(e.Examples))); err != nil {
		return err
	}
	for _, ex := range e.Examples {
		if err := writeString(w, ex); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(r *bufio.Reader, e *entity.WordEntry) error {
	var err error
	if e.Word, err = readString(r); err != nil {
		return err
	}
	if e.Phonetic, err = readString(r); err != nil {
		return err
	}
	if e.Definition, err = readString(r); err != nil {
		return err
	}
	if e.Translation, err = readString(r); err != nil {
		return err
	}
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("%w: truncated example count: %v", entity.ErrCacheInvalid, err)
	}
	if count > 0 {
		e.Examples = make([]string, count)
		for i := range e.Examples {
			if e.Examples[i], err = readString(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func readString(r *bufio.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: truncated string length: %v", entity.ErrCacheInvalid, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: truncated string: %v", entity.ErrCacheInvalid, err)
	}
	return string(buf), nil
}

func encodeLink(v int32) uint32 {
	if v < 0 {
		return noLink
	}
	return uint32(v)
}

func decodeLink(v uint32) int32 {
	if v == noLink {
		return -1
	}
	return int32(v)
}
