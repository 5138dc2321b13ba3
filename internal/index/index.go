// Package index derives the inverted token index and the per-entry metadata
// from a set of extracted documents.
package index

import (
	"sort"

	"github.com/Aman-CERP/livedoc/internal/doc"
)

// EntryType names the kind of documented unit.
type EntryType string

const (
	TypeModule   EntryType = "module"
	TypeClass    EntryType = "class"
	TypeFunction EntryType = "function"
	TypeMethod   EntryType = "method"
)

// snippetLimit caps the snippet length in runes.
const snippetLimit = 200

// Metadata describes one indexed entry.
type Metadata struct {
	Key     string    `json:"key"`
	File    string    `json:"file"`
	FQN     string    `json:"fqn"`
	Snippet string    `json:"snippet"`
	Type    EntryType `json:"type"`
}

// Index maps each token to the entries containing it and the number of
// occurrences. An Index is never modified after Build returns.
type Index struct {
	Postings map[string]map[string]int
	Metadata map[string]Metadata
}

// Empty returns an index with no entries.
func Empty() *Index {
	return &Index{
		Postings: map[string]map[string]int{},
		Metadata: map[string]Metadata{},
	}
}

// Build indexes every module, class, method and function in docs.
// docs is keyed by module key and is not modified.
func Build(docs map[string]*doc.Document) *Index {
	ix := Empty()
	for key, d := range docs {
		if d == nil {
			continue
		}
		ix.addDocument(key, d)
	}
	return ix
}

// Lookup returns the posting for term, or nil.
func (ix *Index) Lookup(term string) map[string]int {
	return ix.Postings[term]
}

// TermCount returns the number of distinct index terms.
func (ix *Index) TermCount() int {
	return len(ix.Postings)
}

// ModuleKeys returns the keys of module entries in ascending order.
func (ix *Index) ModuleKeys() []string {
	var keys []string
	for k, m := range ix.Metadata {
		if m.Type == TypeModule {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (ix *Index) addDocument(moduleKey string, d *doc.Document) {
	modName := doc.ModuleName(moduleKey)
	file := d.File
	if file == "" {
		file = moduleKey
	}

	ix.add(Metadata{
		Key:     moduleKey,
		File:    file,
		FQN:     modName,
		Snippet: snippet(d.Docstring),
		Type:    TypeModule,
	}, moduleKey, d.Docstring)

	// Later definitions of the same name replace earlier ones.
	classes := make(map[string]*doc.ClassDoc, len(d.Classes))
	for i := range d.Classes {
		classes[d.Classes[i].Name] = &d.Classes[i]
	}
	for name, c := range classes {
		classKey := doc.ClassKey(moduleKey, name)
		ix.add(Metadata{
			Key:     classKey,
			File:    file,
			FQN:     doc.QualifiedName(modName, name),
			Snippet: snippet(c.Docstring),
			Type:    TypeClass,
		}, name, c.Docstring)

		for mname, m := range lastByName(c.Methods) {
			scoped := m.FQN
			if scoped == "" {
				scoped = name + "." + mname
			}
			ix.add(Metadata{
				Key:     doc.MethodKey(classKey, mname),
				File:    file,
				FQN:     doc.QualifiedName(modName, scoped),
				Snippet: snippet(m.Docstring),
				Type:    TypeMethod,
			}, mname, m.Docstring)
		}
	}

	for fname, f := range lastByName(d.Functions) {
		ix.add(Metadata{
			Key:     doc.FunctionKey(moduleKey, fname),
			File:    file,
			FQN:     doc.QualifiedName(modName, fname),
			Snippet: snippet(f.Docstring),
			Type:    TypeFunction,
		}, fname, f.Docstring)
	}
}

// add records meta and posts the tokens of name and of the first docstring line.
func (ix *Index) add(meta Metadata, name, docstring string) {
	ix.Metadata[meta.Key] = meta

	tokens := Tokenize(name)
	tokens = append(tokens, Tokenize(doc.FirstLine(docstring))...)
	for _, tok := range tokens {
		for _, term := range Expand(tok) {
			posting := ix.Postings[term]
			if posting == nil {
				posting = make(map[string]int)
				ix.Postings[term] = posting
			}
			posting[meta.Key]++
		}
	}
}

func lastByName(fns []doc.FunctionDoc) map[string]*doc.FunctionDoc {
	out := make(map[string]*doc.FunctionDoc, len(fns))
	for i := range fns {
		out[fns[i].Name] = &fns[i]
	}
	return out
}

func snippet(docstring string) string {
	line := doc.FirstLine(docstring)
	r := []rune(line)
	if len(r) > snippetLimit {
		return string(r[:snippetLimit])
	}
	return line
}
