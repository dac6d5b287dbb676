package wfgraph

import (
	"encoding/json"
	"fmt"
)

// Wire shapes for the serialized workflow spec consumed by the
// registration side. Field order and slice order are fixed, and map keys
// are sorted by encoding/json, so the render is byte-deterministic.

type specDoc struct {
	Name        string             `json:"name"`
	Inputs      []specParam        `json:"inputs"`
	Outputs     []specBinding      `json:"outputs"`
	Nodes       []specNode         `json:"nodes"`
	Literals    map[string]Literal `json:"literals,omitempty"`
	RemoteFiles []RemoteFile       `json:"remote_files,omitempty"`
}

type specParam struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
	Target   string `json:"target,omitempty"`
}

type specBinding struct {
	Param       string `json:"param"`
	SourceNode  string `json:"source_node"`
	SourceParam string `json:"source_param"`
}

type specNode struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Inputs   []specParam   `json:"inputs"`
	Outputs  []specParam   `json:"outputs"`
	Bindings []specBinding `json:"bindings"`
	Upstream []string      `json:"upstream"`
	IsTarget bool          `json:"is_target,omitempty"`
}

func specParams(ps []TypedParameter) []specParam {
	out := make([]specParam, 0, len(ps))
	for _, p := range ps {
		out = append(out, specParam{
			Name:     p.Name,
			Type:     p.Type.String(),
			Required: p.Required,
			Default:  p.Default,
			Target:   p.TargetPath,
		})
	}
	return out
}

func specBindings(bs []Binding) []specBinding {
	out := make([]specBinding, 0, len(bs))
	for _, b := range bs {
		out = append(out, specBinding{Param: b.Param, SourceNode: b.SourceNode, SourceParam: b.SourceParam})
	}
	return out
}

// MarshalSpec serializes the graph as the workflow spec document.
// The graph must validate; a broken graph is never serialized.
func (g *Graph) MarshalSpec() ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	doc := specDoc{
		Name:        g.Name,
		Inputs:      specParams(g.Inputs),
		Outputs:     specBindings(g.Outputs),
		Literals:    g.Literals,
		RemoteFiles: g.RemoteFiles,
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, specNode{
			ID:       n.ID,
			Name:     n.Name,
			Inputs:   specParams(n.Interface.Inputs),
			Outputs:  specParams(n.Interface.Outputs),
			Bindings: specBindings(n.Bindings),
			Upstream: n.Upstream,
			IsTarget: n.IsTarget,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalSpec parses a serialized workflow spec back into a Graph.
// Generated code is not part of the spec, so node bodies come back empty.
func UnmarshalSpec(data []byte) (*Graph, error) {
	var doc specDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse workflow spec: %w", err)
	}

	g := &Graph{
		Name:        doc.Name,
		Literals:    doc.Literals,
		RemoteFiles: doc.RemoteFiles,
	}
	var err error
	if g.Inputs, err = paramsFromSpec(doc.Inputs); err != nil {
		return nil, err
	}
	for _, b := range doc.Outputs {
		g.Outputs = append(g.Outputs, Binding(b))
	}
	for _, sn := range doc.Nodes {
		n := &TaskNode{
			ID:       sn.ID,
			Name:     sn.Name,
			Upstream: sn.Upstream,
			IsTarget: sn.IsTarget,
		}
		if n.Interface.Inputs, err = paramsFromSpec(sn.Inputs); err != nil {
			return nil, err
		}
		if n.Interface.Outputs, err = paramsFromSpec(sn.Outputs); err != nil {
			return nil, err
		}
		for _, b := range sn.Bindings {
			n.Bindings = append(n.Bindings, Binding(b))
		}
		g.Nodes = append(g.Nodes, n)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow spec: %w", err)
	}
	return g, nil
}

func paramsFromSpec(ps []specParam) ([]TypedParameter, error) {
	out := make([]TypedParameter, 0, len(ps))
	for _, p := range ps {
		var t ParamType
		switch p.Type {
		case "File":
			t = ParamFile
		case "Directory":
			t = ParamDirectory
		default:
			return nil, fmt.Errorf("unknown parameter type %q for %q", p.Type, p.Name)
		}
		out = append(out, TypedParameter{
			Name:       p.Name,
			Type:       t,
			Required:   p.Required,
			Default:    p.Default,
			TargetPath: p.Target,
		})
	}
	return out, nil
}
