package entity

// WordEntry is one dictionary record. The surface word keeps the casing
// supplied by the source; lookups compare case-insensitively.
type WordEntry struct {
	Word        string   `json:"word"`
	Phonetic    string   `json:"phonetic,omitempty"`
	Definition  string   `json:"definition,omitempty"`
	Translation string   `json:"translation,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// LookupResult wraps a dictionary hit. A fuzzy hit is a successful
// result, not an error path.
type LookupResult struct {
	Entry       WordEntry `json:"entry"`
	Fuzzy       bool      `json:"fuzzy"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Completion pairs a surface word with a short definition preview.
type Completion struct {
	Word    string `json:"word"`
	Preview string `json:"preview"`
}

// DictStats describes a loaded dictionary.
type DictStats struct {
	WordCount   int    `json:"word_count"`
	Fingerprint string `json:"fingerprint"`
}
