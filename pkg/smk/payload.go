package smk

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON renders the list in the shape the single-job re-entry shim
// consumes: {"positional": [...], "keyword": {...}}. Keyword keys are
// written in declaration order, so the output is deterministic.
func (n NamedList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"positional":[`)
	for i, e := range n.Positional {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeEntry(&buf, e); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`],"keyword":{`)
	for i, kw := range n.Keyword {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kw.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := writeEntry(&buf, kw.Entry); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

func writeEntry(buf *bytes.Buffer, e Entry) error {
	if e.IsList {
		buf.WriteByte('[')
		for i, f := range e.Files {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeFileRef(buf, f); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	if len(e.Files) != 1 {
		return fmt.Errorf("scalar entry holds %d files", len(e.Files))
	}
	return writeFileRef(buf, e.Files[0])
}

// writeFileRef renders a bare string for unannotated refs and a
// {"value", "flags"} object otherwise. encoding/json sorts the flag map
// keys, keeping the render deterministic.
func writeFileRef(buf *bytes.Buffer, f FileRef) error {
	if len(f.Flags) == 0 {
		b, err := json.Marshal(f.Path)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
	b, err := json.Marshal(struct {
		Value string          `json:"value"`
		Flags map[string]bool `json:"flags"`
	}{f.Path, f.Flags})
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// RulePayload builds the JSON data blob passed to the re-entry shim in the
// generated task's environment: per-rule named input/output/param lists and
// the job's concrete output paths. The render is byte-deterministic.
func RulePayload(job *Job) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"rules":{`)
	for i, rule := range job.Rules {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rule)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(`:{"inputs":`)
		if err := writeNamedList(&buf, job.InputList); err != nil {
			return nil, err
		}
		buf.WriteString(`,"outputs":`)
		if err := writeNamedList(&buf, job.OutputList); err != nil {
			return nil, err
		}
		buf.WriteString(`,"params":`)
		if err := writeNamedList(&buf, job.ParamsList); err != nil {
			return nil, err
		}
		buf.WriteByte('}')
	}
	buf.WriteString(`},"outputs":[`)
	for i, o := range job.Output {
		if i > 0 {
			buf.WriteByte(',')
		}
		p, err := json.Marshal(o.Path)
		if err != nil {
			return nil, err
		}
		buf.Write(p)
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

func writeNamedList(buf *bytes.Buffer, n NamedList) error {
	b, err := n.MarshalJSON()
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
