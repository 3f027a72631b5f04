// Package dict implements the prefix-trie dictionary: offline build from
// a source database, a compact on-disk cache artifact, and lock-free
// read-only queries after load.
package dict

import (
	"strings"
	"unicode"

	"github.com/eslsoft/studycore/internal/entity"
)

// NormalizeKey produces the trie key for a surface word: surrounding
// whitespace trimmed, ASCII letters lowercased, everything else passed
// through byte-wise. ok is false when the trimmed key still contains
// whitespace. An empty key is returned with ok=true; insertion rejects
// it, prefix search accepts it.
func NormalizeKey(word string) (string, bool) {
	trimmed := strings.TrimSpace(word)
	if strings.ContainsFunc(trimmed, unicode.IsSpace) {
		return "", false
	}
	var b strings.Builder
	b.Grow(len(trimmed))
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String(), true
}

// InsertStatus reports what happened to one inserted record.
type InsertStatus int

const (
	Inserted  InsertStatus = iota // new entry stored
	Coalesced                     // duplicate key, first-seen entry kept
	Rejected                      // key failed normalization
)

// node children form a first-child/next-sibling chain kept sorted by
// label, so a depth-first walk emits keys in lexicographic order.
type node struct {
	label       byte
	firstChild  int32
	nextSibling int32
	entry       int32 // index into the entry table, -1 if not terminal
}

// Trie is an arena-backed prefix trie over normalized keys. It is
// mutable only during build; all query methods are safe for unbounded
// parallel use afterwards.
type Trie struct {
	nodes   []node
	entries []entity.WordEntry
}

// NewTrie allocates a trie holding only the root node.
func NewTrie() *Trie {
	return &Trie{nodes: []node{{firstChild: -1, nextSibling: -1, entry: -1}}}
}

// Len returns the number of stored word entries.
func (t *Trie) Len() int { return len(t.entries) }

// Entry returns the entry table record at id.
func (t *Trie) Entry(id int) entity.WordEntry { return t.entries[id] }

// Insert adds a record under its normalized key. Later duplicates of a
// key coalesce silently into the first-seen entry.
func (t *Trie) Insert(e entity.WordEntry) InsertStatus {
	key, ok := NormalizeKey(e.Word)
	if !ok || key == "" {
		return Rejected
	}
	cur := int32(0)
	for i := 0; i < len(key); i++ {
		cur = t.childOf(cur, key[i], true)
	}
	if t.nodes[cur].entry >= 0 {
		return Coalesced
	}
	t.entries = append(t.entries, e)
	t.nodes[cur].entry = int32(len(t.entries) - 1)
	return Inserted
}

// childOf finds the child of parent carrying label, creating it in label
// order when create is set. Returns -1 on a miss without create.
func (t *Trie) childOf(parent int32, label byte, create bool) int32 {
	prev := int32(-1)
	c := t.nodes[parent].firstChild
	for c >= 0 && t.nodes[c].label < label {
		prev = c
		c = t.nodes[c].nextSibling
	}
	if c >= 0 && t.nodes[c].label == label {
		return c
	}
	if !create {
		return -1
	}
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{label: label, firstChild: -1, nextSibling: c, entry: -1})
	if prev < 0 {
		t.nodes[parent].firstChild = idx
	} else {
		t.nodes[prev].nextSibling = idx
	}
	return idx
}

// Lookup returns the entry stored under the word's normalized key.
func (t *Trie) Lookup(word string) (*entity.WordEntry, bool) {
	key, ok := NormalizeKey(word)
	if !ok || key == "" {
		return nil, false
	}
	n := t.walk(key)
	if n < 0 || t.nodes[n].entry < 0 {
		return nil, false
	}
	e := t.entries[t.nodes[n].entry]
	return &e, true
}

// SearchPrefix collects up to limit entries whose normalized keys start
// with the normalized prefix, in lexicographic key order. An empty
// prefix enumerates from the first word.
func (t *Trie) SearchPrefix(prefix string, limit int) []entity.WordEntry {
	key, ok := NormalizeKey(prefix)
	if !ok {
		return nil
	}
	n := t.walk(key)
	if n < 0 {
		return nil
	}
	out := make([]entity.WordEntry, 0, limit)
	t.collect(n, limit, &out)
	return out
}

// Fuzzy walks as far into the key as possible and returns up to k
// terminal descendants of the deepest matching node: the first as the
// main candidate, the rest as suggestions.
func (t *Trie) Fuzzy(word string, k int) (*entity.WordEntry, []entity.WordEntry) {
	key, ok := NormalizeKey(word)
	if !ok || key == "" || k <= 0 {
		return nil, nil
	}
	n := t.deepestMatch(key)
	out := make([]entity.WordEntry, 0, k)
	t.collect(n, k, &out)
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], out[1:]
}

// walk follows key from the root, returning -1 when a character has no
// matching child.
func (t *Trie) walk(key string) int32 {
	cur := int32(0)
	for i := 0; i < len(key); i++ {
		cur = t.childOf(cur, key[i], false)
		if cur < 0 {
			return -1
		}
	}
	return cur
}

// deepestMatch follows key as far as it goes and returns the last node
// reached, which is the root when nothing matches.
func (t *Trie) deepestMatch(key string) int32 {
	cur := int32(0)
	for i := 0; i < len(key); i++ {
		next := t.childOf(cur, key[i], false)
		if next < 0 {
			return cur
		}
		cur = next
	}
	return cur
}

// collect appends terminal descendants of n in lexicographic key order
// until limit entries are gathered.
func (t *Trie) collect(n int32, limit int, out *[]entity.WordEntry) {
	if limit > 0 && len(*out) >= limit {
		return
	}
	if id := t.nodes[n].entry; id >= 0 {
		*out = append(*out, t.entries[id])
	}
	for c := t.nodes[n].firstChild; c >= 0; c = t.nodes[c].nextSibling {
		if limit > 0 && len(*out) >= limit {
			return
		}
		t.collect(c, limit, out)
	}
}
