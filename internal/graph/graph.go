// Package graph provides a typed state machine for multi-step workflows.
// Nodes transform a shared state value; edges, fixed or conditional, pick
// the next node. Compiled graphs run to completion, or pause at declared
// interrupt points and resume later from a checkpoint.
package graph

import (
	"context"
	"fmt"
)

// End is the terminal pseudo-node. Route to it to finish a run.
const End = "__end__"

// NodeFunc transforms the state. It receives the state after the previous
// node and returns the state passed to the next one.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouteFunc picks the next node name from the current state.
type RouteFunc[S any] func(state S) string

// StateGraph is a graph under construction. Build it with AddNode and the
// edge methods, then Compile.
type StateGraph[S any] struct {
	nodes       map[string]NodeFunc[S]
	edges       map[string]string
	conditional map[string]RouteFunc[S]
	entry       string
	err         error
}

// New creates an empty graph.
func New[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:       make(map[string]NodeFunc[S]),
		edges:       make(map[string]string),
		conditional: make(map[string]RouteFunc[S]),
	}
}

// AddNode registers a named node. Builder errors are deferred to Compile.
func (g *StateGraph[S]) AddNode(name string, fn NodeFunc[S]) *StateGraph[S] {
	switch {
	case g.err != nil:
	case name == "" || name == End:
		g.setErr(fmt.Errorf("invalid node name %q", name))
	case fn == nil:
		g.setErr(fmt.Errorf("node %q has nil func", name))
	default:
		if _, exists := g.nodes[name]; exists {
			g.setErr(fmt.Errorf("duplicate node %q", name))
		} else {
			g.nodes[name] = fn
		}
	}
	return g
}

// AddEdge sets a fixed transition from one node to another (or End).
func (g *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	if g.err == nil {
		if _, exists := g.edges[from]; exists {
			g.setErr(fmt.Errorf("node %q already has an edge", from))
		} else if _, exists := g.conditional[from]; exists {
			g.setErr(fmt.Errorf("node %q already has a conditional edge", from))
		} else {
			g.edges[from] = to
		}
	}
	return g
}

// AddConditionalEdge routes from a node via a function of the state. The
// function must return a node name or End.
func (g *StateGraph[S]) AddConditionalEdge(from string, route RouteFunc[S]) *StateGraph[S] {
	switch {
	case g.err != nil:
	case route == nil:
		g.setErr(fmt.Errorf("node %q has nil route func", from))
	default:
		if _, exists := g.edges[from]; exists {
			g.setErr(fmt.Errorf("node %q already has an edge", from))
		} else if _, exists := g.conditional[from]; exists {
			g.setErr(fmt.Errorf("node %q already has a conditional edge", from))
		} else {
			g.conditional[from] = route
		}
	}
	return g
}

// SetEntryPoint names the node a fresh run starts at.
func (g *StateGraph[S]) SetEntryPoint(name string) *StateGraph[S] {
	if g.err == nil {
		g.entry = name
	}
	return g
}

func (g *StateGraph[S]) setErr(err error) {
	if g.err == nil {
		g.err = err
	}
}

// Compile validates the graph and returns a runner.
func (g *StateGraph[S]) Compile(opts ...Option[S]) (*Runner[S], error) {
	if g.err != nil {
		return nil, g.err
	}
	if len(g.nodes) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}
	if g.entry == "" {
		return nil, fmt.Errorf("graph has no entry point")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry point %q is not a node", g.entry)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge from unknown node %q", from)
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("edge from %q to unknown node %q", from, to)
			}
		}
	}
	for from := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge from unknown node %q", from)
		}
	}
	// Every node needs a way out.
	for name := range g.nodes {
		_, fixed := g.edges[name]
		_, cond := g.conditional[name]
		if !fixed && !cond {
			return nil, fmt.Errorf("node %q has no outgoing edge", name)
		}
	}

	r := &Runner[S]{graph: g, maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// next resolves the node following from for the given state.
func (g *StateGraph[S]) next(from string, state S) (string, error) {
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	route := g.conditional[from]
	to := route(state)
	if to == End {
		return End, nil
	}
	if _, ok := g.nodes[to]; !ok {
		return "", fmt.Errorf("route from %q returned unknown node %q", from, to)
	}
	return to, nil
}
