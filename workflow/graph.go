package workflow

import (
	"context"
	"fmt"
)

// End is the terminal position. A run whose position reaches End is
// completed and can no longer be resumed.
const End = "__end__"

// NodeKind distinguishes executable steps from suspension points.
type NodeKind string

const (
	NodeStep       NodeKind = "step"
	NodeCheckpoint NodeKind = "checkpoint"
)

// Step is one unit of work: it reads fields from the state and returns a
// partial update containing exactly the fields it owns. Steps must be
// re-entrant so a failed invocation can be retried.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) (*Update, error)
}

// FuncStep adapts a function to the Step interface.
type FuncStep struct {
	name string
	fn   func(ctx context.Context, state *State) (*Update, error)
}

func NewFuncStep(name string, fn func(ctx context.Context, state *State) (*Update, error)) *FuncStep {
	return &FuncStep{name: name, fn: fn}
}

func (s *FuncStep) Name() string { return s.name }

func (s *FuncStep) Execute(ctx context.Context, state *State) (*Update, error) {
	return s.fn(ctx, state)
}

// Router selects the next node name from feedback-bearing state. It is
// evaluated once, immediately after a checkpoint resumes.
type Router func(state *State) string

// Node is one vertex of the workflow graph. Step nodes carry a Step and a
// single successor; checkpoint nodes carry the feedback contract and a
// Router choosing between their declared targets.
type Node struct {
	Name string
	Kind NodeKind

	// Step nodes.
	Step Step
	Next string

	// Checkpoint nodes.
	FeedbackField string
	ApplyFeedback func(state *State, text string)
	Route         Router
	Targets       []string
	Payload       func(state *State) any
}

// Forward returns the target routing takes when feedback approves the
// pending work, by convention the first declared target.
func (n *Node) Forward() string { return n.Targets[0] }

// Graph is the immutable node/edge table of the workflow. It is built once
// at startup and shared across all runs; per-run mutable data lives only in
// the checkpoint store.
type Graph struct {
	entry string
	nodes map[string]*Node
}

// Entry returns the name of the first node.
func (g *Graph) Entry() string { return g.entry }

// Node returns the named node, or nil.
func (g *Graph) Node(name string) *Node { return g.nodes[name] }

// Builder assembles a Graph and validates it on Build.
type Builder struct {
	entry string
	nodes []*Node
}

func NewBuilder() *Builder {
	return &Builder{}
}

// SetEntry names the node execution starts from.
func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

// AddStep adds an executable node whose single successor is next (or End).
func (b *Builder) AddStep(step Step, next string) *Builder {
	b.nodes = append(b.nodes, &Node{
		Name: step.Name(),
		Kind: NodeStep,
		Step: step,
		Next: next,
	})
	return b
}

// AddCheckpoint adds a suspension node. feedbackField names the state field
// the external actor's reply is merged into, apply performs that merge,
// route picks the successor after resume, and targets declares every node
// route may return, forward target first, for validation. payload projects
// the state slice shown to the external actor while suspended.
func (b *Builder) AddCheckpoint(name, feedbackField string, apply func(*State, string), route Router, targets []string, payload func(*State) any) *Builder {
	b.nodes = append(b.nodes, &Node{
		Name:          name,
		Kind:          NodeCheckpoint,
		FeedbackField: feedbackField,
		ApplyFeedback: apply,
		Route:         route,
		Targets:       targets,
		Payload:       payload,
	})
	return b
}

// Build validates the graph: a known entry, unique node names, and every
// edge pointing at an existing node or End.
func (b *Builder) Build() (*Graph, error) {
	if b.entry == "" {
		return nil, fmt.Errorf("graph has no entry node")
	}

	nodes := make(map[string]*Node, len(b.nodes))
	for _, n := range b.nodes {
		if n.Name == "" || n.Name == End {
			return nil, fmt.Errorf("invalid node name %q", n.Name)
		}
		if _, dup := nodes[n.Name]; dup {
			return nil, fmt.Errorf("duplicate node %q", n.Name)
		}
		nodes[n.Name] = n
	}

	if _, ok := nodes[b.entry]; !ok {
		return nil, fmt.Errorf("entry node %q not defined", b.entry)
	}

	for _, n := range nodes {
		switch n.Kind {
		case NodeStep:
			if n.Step == nil {
				return nil, fmt.Errorf("step node %q has no step", n.Name)
			}
			if err := checkEdge(nodes, n.Name, n.Next); err != nil {
				return nil, err
			}
		case NodeCheckpoint:
			if n.Route == nil {
				return nil, fmt.Errorf("checkpoint node %q has no router", n.Name)
			}
			if len(n.Targets) == 0 {
				return nil, fmt.Errorf("checkpoint node %q declares no targets", n.Name)
			}
			for _, t := range n.Targets {
				if err := checkEdge(nodes, n.Name, t); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("node %q has unknown kind %q", n.Name, n.Kind)
		}
	}

	return &Graph{entry: b.entry, nodes: nodes}, nil
}

func checkEdge(nodes map[string]*Node, from, to string) error {
	if to == End {
		return nil
	}
	if to == "" {
		return fmt.Errorf("node %q has no successor", from)
	}
	if _, ok := nodes[to]; !ok {
		return fmt.Errorf("node %q points at undefined node %q", from, to)
	}
	return nil
}
