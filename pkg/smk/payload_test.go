package smk

import (
	"encoding/json"
	"testing"
)

func TestNamedListMarshalJSON(t *testing.T) {
	nl := NamedList{
		Positional: []Entry{
			{Files: []FileRef{ref("ref.fa")}},
			{Files: []FileRef{ref("a.txt"), ref("b.txt")}, IsList: true},
		},
		Keyword: []KeywordEntry{
			{Name: "zeta", Entry: Entry{Files: []FileRef{ref("z.fq")}}},
			{Name: "alpha", Entry: Entry{Files: []FileRef{ref("dir", "directory")}}},
		},
	}

	got, err := json.Marshal(nl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Keyword keys stay in declaration order, not sorted.
	want := `{"positional":["ref.fa",["a.txt","b.txt"]],` +
		`"keyword":{"zeta":"z.fq","alpha":{"value":"dir","flags":{"directory":true}}}}`
	if string(got) != want {
		t.Errorf("Marshal =\n%s\nwant\n%s", got, want)
	}
}

func TestNamedListMarshalJSON_BadScalar(t *testing.T) {
	nl := NamedList{Positional: []Entry{{Files: []FileRef{ref("a"), ref("b")}}}}
	if _, err := json.Marshal(nl); err == nil {
		t.Fatal("Marshal accepted a scalar entry holding two files")
	}
}

func TestRulePayload(t *testing.T) {
	j := &Job{
		ID:    "0",
		Name:  "align",
		Rules: []string{"align"},
		Output: []FileRef{
			ref("aligned.bam"),
		},
		InputList: NamedList{
			Keyword: []KeywordEntry{
				{Name: "reads", Entry: Entry{Files: []FileRef{ref("r1.fq"), ref("r2.fq")}, IsList: true}},
			},
		},
		OutputList: NamedList{
			Keyword: []KeywordEntry{
				{Name: "bam", Entry: Entry{Files: []FileRef{ref("aligned.bam")}}},
			},
		},
	}

	got, err := RulePayload(j)
	if err != nil {
		t.Fatalf("RulePayload: %v", err)
	}

	want := `{"rules":{"align":{` +
		`"inputs":{"positional":[],"keyword":{"reads":["r1.fq","r2.fq"]}},` +
		`"outputs":{"positional":[],"keyword":{"bam":"aligned.bam"}},` +
		`"params":{"positional":[],"keyword":{}}}},` +
		`"outputs":["aligned.bam"]}`
	if string(got) != want {
		t.Errorf("RulePayload =\n%s\nwant\n%s", got, want)
	}

	// The payload must itself be valid JSON.
	var parsed map[string]any
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}

	// Identical calls produce identical bytes.
	again, err := RulePayload(j)
	if err != nil {
		t.Fatalf("RulePayload: %v", err)
	}
	if string(again) != string(got) {
		t.Error("payload render is not deterministic")
	}
}
