// Package wfgraph defines the compiled workflow graph: typed task nodes,
// the bindings wiring them together, and the graph-level interface. The
// compiler in internal/compiler produces these structures; the registration
// side serializes them (see json.go) and the code generator fills in each
// node's executable body.
package wfgraph

import "fmt"

// GlobalInputNodeID is the sentinel node id representing externally
// supplied values with no producer job.
const GlobalInputNodeID = "start-node"

// ParamType is the closed set of parameter types a task interface can
// carry. Anything else reaching the code generator is a compile error.
type ParamType int

const (
	ParamFile ParamType = iota
	ParamDirectory
)

// String returns the wire name used in serialized specs.
func (t ParamType) String() string {
	switch t {
	case ParamFile:
		return "File"
	case ParamDirectory:
		return "Directory"
	default:
		return fmt.Sprintf("ParamType(%d)", int(t))
	}
}

// PyType returns the runtime handle class the generated entrypoint
// constructs for values of this type.
func (t ParamType) PyType() string {
	switch t {
	case ParamFile:
		return "HelixFile"
	default:
		return "HelixDir"
	}
}

// TypedParameter is one slot of a task or graph interface.
type TypedParameter struct {
	Name     string
	Type     ParamType
	Required bool
	Default  string // literal render, empty when none

	// TargetPath is the on-disk path the underlying rule expects for this
	// parameter; the generated body moves downloaded inputs there and wraps
	// outputs read from there.
	TargetPath string
}

// Interface is the typed parameter surface of a task node or of the whole
// graph. Both lists are sorted by parameter name.
type Interface struct {
	Inputs  []TypedParameter
	Outputs []TypedParameter
}

// Input returns the input parameter with the given name.
func (i Interface) Input(name string) (TypedParameter, bool) {
	for _, p := range i.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return TypedParameter{}, false
}

// Output returns the output parameter with the given name.
func (i Interface) Output(name string) (TypedParameter, bool) {
	for _, p := range i.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return TypedParameter{}, false
}

// Binding ties an input parameter to its value source: a named output of
// an upstream node, or the graph's global input when SourceNode is
// GlobalInputNodeID.
type Binding struct {
	Param       string
	SourceNode  string
	SourceParam string
}

// TaskNode is one compiled, independently executable unit corresponding to
// one DAG job.
type TaskNode struct {
	ID        string // "n" + job id
	Name      string // rule name + job id
	JobID     string
	Interface Interface
	Bindings  []Binding // sorted by Param
	Upstream  []string  // upstream node ids, sorted
	IsTarget  bool      // produces a pipeline-level terminal output
	Code      string    // generated entrypoint body
}

// RemoteFile records an externally supplied input that must be uploaded to
// the content store before the compiled graph can run.
type RemoteFile struct {
	LocalPath  string
	RemotePath string
}

// Literal is a content-store URI literal pre-bound to a graph input.
type Literal struct {
	URI         string
	IsDirectory bool
}

// Graph is the full compiled workflow. Once compiled it is immutable.
type Graph struct {
	Name        string
	Inputs      []TypedParameter // graph-level interface, sorted by name
	Nodes       []*TaskNode      // topological order
	Outputs     []Binding        // graph outputs -> upstream node slots
	Literals    map[string]Literal
	RemoteFiles []RemoteFile
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *TaskNode {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Validate checks the structural invariants of a compiled graph:
// unique node ids, bindings referencing known nodes (or the global input
// sentinel), upstream ids strictly earlier in the node ordering, and
// output bindings naming real output slots.
func (g *Graph) Validate() error {
	pos := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == GlobalInputNodeID {
			return fmt.Errorf("node %d uses the reserved global input id", i)
		}
		if _, dup := pos[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		pos[n.ID] = i
	}

	for i, n := range g.Nodes {
		for _, up := range n.Upstream {
			j, ok := pos[up]
			if !ok {
				return fmt.Errorf("node %q: unknown upstream node %q", n.ID, up)
			}
			if j >= i {
				return fmt.Errorf("node %q: upstream node %q is not earlier in the ordering", n.ID, up)
			}
		}
		for _, b := range n.Bindings {
			if b.SourceNode == GlobalInputNodeID {
				continue
			}
			src, ok := pos[b.SourceNode]
			if !ok {
				return fmt.Errorf("node %q: binding %q references unknown node %q", n.ID, b.Param, b.SourceNode)
			}
			if src >= i {
				return fmt.Errorf("node %q: binding %q references non-upstream node %q", n.ID, b.Param, b.SourceNode)
			}
			if _, ok := g.Nodes[src].Interface.Output(b.SourceParam); !ok {
				return fmt.Errorf("node %q: binding %q references missing output %q of node %q",
					n.ID, b.Param, b.SourceParam, b.SourceNode)
			}
		}
	}

	for _, b := range g.Outputs {
		src := g.Node(b.SourceNode)
		if src == nil {
			return fmt.Errorf("graph output %q references unknown node %q", b.Param, b.SourceNode)
		}
		if _, ok := src.Interface.Output(b.SourceParam); !ok {
			return fmt.Errorf("graph output %q references missing output %q of node %q",
				b.Param, b.SourceParam, b.SourceNode)
		}
	}
	return nil
}
