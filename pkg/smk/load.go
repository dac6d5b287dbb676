package smk

import (
	"encoding/json"
	"fmt"
	"io"
)

// The JSON export format produced by the Snakemake shim. Keyword entries
// are arrays (not objects) so declaration order survives the round trip.

type dagJSON struct {
	Jobs         []jobJSON         `json:"jobs"`
	Dependencies []edgeJSON        `json:"dependencies"`
	Targets      []string          `json:"targets"`
	Externals    []json.RawMessage `json:"externals"`
}

type jobJSON struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Input     namedListJSON     `json:"input"`
	Output    namedListJSON     `json:"output"`
	Params    namedListJSON     `json:"params"`
	Wildcards map[string]string `json:"wildcards,omitempty"`
	Threads   int               `json:"threads,omitempty"`
	Resources map[string]string `json:"resources,omitempty"`
	Log       []string          `json:"log,omitempty"`
	Benchmark string            `json:"benchmark,omitempty"`
	Rules     []string          `json:"rules"`
	Group     []string          `json:"group,omitempty"`
}

type edgeJSON struct {
	Job      string            `json:"job"`
	Producer string            `json:"producer"`
	Files    []json.RawMessage `json:"files"`
}

type namedListJSON struct {
	Positional []json.RawMessage `json:"positional"`
	Keyword    []keywordJSON     `json:"keyword"`
}

type keywordJSON struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// Load reads a DAG export document and constructs the DAG.
func Load(r io.Reader) (*DAG, error) {
	var doc dagJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse DAG export: %w", err)
	}

	jobs := make([]*Job, 0, len(doc.Jobs))
	for i, jj := range doc.Jobs {
		j, err := decodeJob(jj)
		if err != nil {
			return nil, fmt.Errorf("jobs[%d] (%s): %w", i, jj.ID, err)
		}
		jobs = append(jobs, j)
	}

	deps := make(map[string][]Dependency)
	for i, e := range doc.Dependencies {
		files := make([]FileRef, 0, len(e.Files))
		for _, raw := range e.Files {
			f, err := decodeFileRef(raw)
			if err != nil {
				return nil, fmt.Errorf("dependencies[%d]: %w", i, err)
			}
			files = append(files, f)
		}
		deps[e.Job] = append(deps[e.Job], Dependency{ProducerID: e.Producer, Files: files})
	}

	var externals []FileRef
	if doc.Externals != nil {
		externals = []FileRef{}
		for i, raw := range doc.Externals {
			f, err := decodeFileRef(raw)
			if err != nil {
				return nil, fmt.Errorf("externals[%d]: %w", i, err)
			}
			externals = append(externals, f)
		}
	}

	return New(jobs, deps, doc.Targets, externals)
}

func decodeJob(jj jobJSON) (*Job, error) {
	input, err := decodeNamedList(jj.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	output, err := decodeNamedList(jj.Output)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	params, err := decodeNamedList(jj.Params)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}

	return &Job{
		ID:          jj.ID,
		Name:        jj.Name,
		Input:       input.Flatten(),
		Output:      output.Flatten(),
		Wildcards:   jj.Wildcards,
		InputList:   input,
		OutputList:  output,
		ParamsList:  params,
		Threads:     jj.Threads,
		Resources:   jj.Resources,
		Log:         jj.Log,
		Benchmark:   jj.Benchmark,
		Rules:       jj.Rules,
		GroupJobIDs: jj.Group,
	}, nil
}

func decodeNamedList(nl namedListJSON) (NamedList, error) {
	var out NamedList
	for i, raw := range nl.Positional {
		e, err := decodeEntry(raw)
		if err != nil {
			return out, fmt.Errorf("positional[%d]: %w", i, err)
		}
		out.Positional = append(out.Positional, e)
	}
	for _, kw := range nl.Keyword {
		e, err := decodeEntry(kw.Value)
		if err != nil {
			return out, fmt.Errorf("keyword %q: %w", kw.Name, err)
		}
		out.Keyword = append(out.Keyword, KeywordEntry{Name: kw.Name, Entry: e})
	}
	return out, nil
}

// decodeEntry accepts a bare string, an annotated {"value","flags"} object,
// or an array of either.
func decodeEntry(raw json.RawMessage) (Entry, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		e := Entry{IsList: true}
		for i, item := range arr {
			f, err := decodeFileRef(item)
			if err != nil {
				return e, fmt.Errorf("[%d]: %w", i, err)
			}
			e.Files = append(e.Files, f)
		}
		return e, nil
	}

	f, err := decodeFileRef(raw)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Files: []FileRef{f}}, nil
}

func decodeFileRef(raw json.RawMessage) (FileRef, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return FileRef{Path: s}, nil
	}

	var annotated struct {
		Value string          `json:"value"`
		Flags map[string]bool `json:"flags"`
	}
	if err := json.Unmarshal(raw, &annotated); err != nil {
		return FileRef{}, fmt.Errorf("file entry must be a string or {value, flags} object: %w", err)
	}
	if annotated.Value == "" {
		return FileRef{}, fmt.Errorf("file entry has empty value")
	}
	return FileRef{Path: annotated.Value, Flags: annotated.Flags}, nil
}

// Flatten returns every file in the list: keyword entries in declaration
// order, then positional entries.
func (n NamedList) Flatten() []FileRef {
	var out []FileRef
	for _, kw := range n.Keyword {
		out = append(out, kw.Entry.Files...)
	}
	for _, e := range n.Positional {
		out = append(out, e.Files...)
	}
	return out
}
