package dict

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/eslsoft/studycore/internal/entity"
)

var testFingerprint = [32]byte{1, 2, 3, 4}

func encodeTestTrie(t *testing.T, tr *Trie) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, tr, testFingerprint); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTripReproducesQueries(t *testing.T) {
	tr := NewTrie()
	entries := []entity.WordEntry{
		{Word: "Hello", Phonetic: "həˈləʊ", Definition: "int. a greeting", Translation: "你好", Examples: []string{"Hello, world.", "Say hello."}},
		{Word: "help", Definition: "v. assist", Translation: "帮助"},
		{Word: "helm", Definition: "n. steering gear", Translation: "舵"},
		{Word: "world", Translation: "世界"},
	}
	for _, e := range entries {
		if tr.Insert(e) != Inserted {
			t.Fatalf("insert %q failed", e.Word)
		}
	}

	decoded, err := Decode(bytes.NewReader(encodeTestTrie(t, tr)), testFingerprint)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Len() != tr.Len() {
		t.Fatalf("decoded Len = %d, want %d", decoded.Len(), tr.Len())
	}
	for _, e := range entries {
		before, okB := tr.Lookup(e.Word)
		after, okA := decoded.Lookup(e.Word)
		if !okB || !okA {
			t.Fatalf("lookup %q: before ok=%v after ok=%v", e.Word, okB, okA)
		}
		if !reflect.DeepEqual(before, after) {
			t.Errorf("lookup %q diverged after round trip:\n before %+v\n after  %+v", e.Word, before, after)
		}
	}
	for _, prefix := range []string{"", "he", "hel", "w", "zz"} {
		before := wordsOf(tr.SearchPrefix(prefix, 10))
		after := wordsOf(decoded.SearchPrefix(prefix, 10))
		if !reflect.DeepEqual(before, after) {
			t.Errorf("SearchPrefix(%q) diverged: before %v, after %v", prefix, before, after)
		}
	}
	mainB, _ := tr.Fuzzy("helpp", 5)
	mainA, _ := decoded.Fuzzy("helpp", 5)
	if !reflect.DeepEqual(mainB, mainA) {
		t.Errorf("Fuzzy diverged: before %v, after %v", mainB, mainA)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	raw := encodeTestTrie(t, buildTestTrie(t, "one"))
	raw[0] ^= 0xFF
	if _, err := Decode(bytes.NewReader(raw), testFingerprint); !errors.Is(err, entity.ErrCacheInvalid) {
		t.Errorf("expected ErrCacheInvalid, got %v", err)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	raw := encodeTestTrie(t, buildTestTrie(t, "one"))
	binary.LittleEndian.PutUint32(raw[8:12], FormatVersion+1)
	if _, err := Decode(bytes.NewReader(raw), testFingerprint); !errors.Is(err, entity.ErrCacheInvalid) {
		t.Errorf("expected ErrCacheInvalid, got %v", err)
	}
}

func TestDecodeRejectsFingerprintMismatch(t *testing.T) {
	raw := encodeTestTrie(t, buildTestTrie(t, "one"))
	other := testFingerprint
	other[0] ^= 0xFF
	if _, err := Decode(bytes.NewReader(raw), other); !errors.Is(err, entity.ErrCacheInvalid) {
		t.Errorf("expected ErrCacheInvalid, got %v", err)
	}
}

func TestDecodeRejectsDanglingNodeLinks(t *testing.T) {
	// Offsets of the three link fields inside a serialized node.
	const (
		firstChildOff  = 1
		nextSiblingOff = 5
		entryOff       = 9
	)
	for name, off := range map[string]int{
		"first child":  firstChildOff,
		"next sibling": nextSiblingOff,
		"entry":        entryOff,
	} {
		raw := encodeTestTrie(t, buildTestTrie(t, "hello", "world"))
		binary.LittleEndian.PutUint32(raw[headerSize+off:], 9999)
		tr, err := Decode(bytes.NewReader(raw), testFingerprint)
		if !errors.Is(err, entity.ErrCacheInvalid) {
			t.Errorf("%s link out of range: expected ErrCacheInvalid, got trie=%v err=%v", name, tr, err)
		}
	}
}

func TestDecodeRejectsTruncatedArtifact(t *testing.T) {
	raw := encodeTestTrie(t, buildTestTrie(t, "one", "two"))
	for _, cut := range []int{10, headerSize, len(raw) - 3} {
		if _, err := Decode(bytes.NewReader(raw[:cut]), testFingerprint); !errors.Is(err, entity.ErrCacheInvalid) {
			t.Errorf("cut at %d: expected ErrCacheInvalid, got %v", cut, err)
		}
	}
}
