// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arc

import "fmt"

// Value is whatever a node publishes as its output.
type Value any

// ValueNode is a Node that also exposes a readable current output, so a
// downstream node's factory can wire a direct accessor to it. Nodes with
// no readable output (pure sinks) need not implement this.
type ValueNode interface {
	Node
	Value() Value
}

// Resolver looks up an already-built upstream node by id, for a factory
// to wire as one of its own node's inputs. Only nodes in strata strictly
// below the node being built are available, since BuildScheduler
// constructs nodes in stratum order.
type Resolver func(id NodeID) (ValueNode, bool)

// NodeConfig is the declarative description of one node, as it arrives
// from a task's configuration: an identity, the kind of computation it
// performs, its declared inputs, and kind-specific parameters.
type NodeConfig struct {
	Key    NodeID
	Kind   string
	Inputs []NodeID
	Params map[string]any
}

// NodeFactory builds Nodes of the kinds it recognizes. Integrations (an
// expression-block kind, a rate-limiter kind, a debounce kind, ...) each
// contribute one NodeFactory to a FactoryChain.
type NodeFactory interface {
	CanBuild(kind string) bool
	Build(cfg NodeConfig, resolve Resolver) (Node, error)
}

// FactoryChain dispatches a NodeConfig to the first registered NodeFactory
// whose CanBuild claims its kind. A factory declines a kind by returning
// false from CanBuild; once a factory has claimed the kind, an error from
// its Build is returned and later factories are not tried.
type FactoryChain struct {
	factories []NodeFactory
}

// NewFactoryChain builds a FactoryChain trying factories in order.
// Ordering matters: more specific factories should come first.
func NewFactoryChain(factories ...NodeFactory) *FactoryChain {
	return &FactoryChain{factories: factories}
}

// Register appends a NodeFactory to the end of the chain.
func (c *FactoryChain) Register(f NodeFactory) {
	c.factories = append(c.factories, f)
}

// Build constructs the Node described by cfg, or an error if no registered
// factory claims cfg.Kind.
func (c *FactoryChain) Build(cfg NodeConfig, resolve Resolver) (Node, error) {
	for _, f := range c.factories {
		if f.CanBuild(cfg.Kind) {
			node, err := f.Build(cfg, resolve)
			if err != nil {
				return nil, fmt.Errorf("arc: node %q (kind %q): %w", cfg.Key, cfg.Kind, err)
			}
			return node, nil
		}
	}
	return nil, fmt.Errorf("arc: no node factory registered for kind %q (node %q)", cfg.Kind, cfg.Key)
}

// BuildScheduler topologically layers cfgs by declared input dependency,
// builds each node via chain in that order (so every node's factory can
// resolve its upstream nodes' accessors), registers it into a new
// Scheduler at the computed stratum, and wires the declared edges.
func BuildScheduler(cfgs []NodeConfig, chain *FactoryChain, inputQueueSize int) (*Scheduler, error) {
	byKey := make(map[NodeID]NodeConfig, len(cfgs))
	for _, cfg := range cfgs {
		if _, dup := byKey[cfg.Key]; dup {
			return nil, fmt.Errorf("arc: duplicate node key %q", cfg.Key)
		}
		byKey[cfg.Key] = cfg
	}

	inDegree := make(map[NodeID]int, len(cfgs))
	outgoing := make(map[NodeID][]NodeID, len(cfgs))
	for _, cfg := range cfgs {
		for _, in := range cfg.Inputs {
			if _, ok := byKey[in]; !ok {
				continue // externally driven input, no ordering constraint
			}
			outgoing[in] = append(outgoing[in], cfg.Key)
			inDegree[cfg.Key]++
		}
	}

	s := NewScheduler(inputQueueSize)
	built := make(map[NodeID]Node, len(cfgs))
	values := make(map[NodeID]ValueNode, len(cfgs))
	resolve := func(id NodeID) (ValueNode, bool) {
		v, ok := values[id]
		return v, ok
	}

	satisfied := make(map[NodeID]bool, len(cfgs))
	stratum := 0
	remaining := len(cfgs)
	for remaining > 0 {
		var layer []NodeID
		for _, cfg := range cfgs {
			if satisfied[cfg.Key] || inDegree[cfg.Key] > 0 {
				continue
			}
			layer = append(layer, cfg.Key)
		}
		if len(layer) == 0 {
			return nil, fmt.Errorf("arc: dependency cycle detected among %d unresolved nodes", remaining)
		}
		for _, key := range layer {
			cfg := byKey[key]
			node, err := chain.Build(cfg, resolve)
			if err != nil {
				return nil, err
			}
			if err := s.RegisterNode(key, node, stratum); err != nil {
				return nil, err
			}
			built[key] = node
			if vn, ok := node.(ValueNode); ok {
				values[key] = vn
			}

			satisfied[key] = true
			for _, consumer := range outgoing[key] {
				inDegree[consumer]--
			}
		}
		stratum++
		remaining -= len(layer)
	}

	for _, cfg := range cfgs {
		for _, in := range cfg.Inputs {
			if _, ok := byKey[in]; !ok {
				continue
			}
			if err := s.RegisterOutgoingEdge(in, OutputDefault, cfg.Key); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}
