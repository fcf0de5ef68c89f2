// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arc

import (
	"fmt"
	"sync"
)

// NodeID identifies one vertex in the scheduler's graph.
type NodeID string

// Param names one of a node's outputs. Most nodes have exactly one,
// conventionally named OutputDefault.
type Param string

// OutputDefault is the output param name single-output nodes publish
// under.
const OutputDefault Param = "out"

// Context is the handle a Node's Execute receives: it lets the node
// announce which of its outputs changed this cycle, which is the only
// way downstream nodes get scheduled.
type Context struct {
	s    *Scheduler
	node NodeID
}

// MarkChanged records that the node currently executing produced a new
// value on param, scheduling every node wired to (node, param) via an
// outgoing edge for execution later this cycle. Because an edge's target
// always sits in a higher stratum than its source (enforced at edge
// registration), marking a target changed here always happens before the
// scheduler reaches that target's stratum.
func (c *Context) MarkChanged(param Param) {
	for _, e := range c.s.outgoing[c.node] {
		if e.sourceParam == param {
			c.s.changed[e.target] = true
		}
	}
}

// Node is a vertex in the reactive graph.
type Node interface {
	// Execute runs the node's logic for one cycle, calling ctx.MarkChanged
	// for each output that changed. A returned error aborts the cycle.
	Execute(ctx *Context) error
}

type outgoingEdge struct {
	sourceParam Param
	target      NodeID
}

// Scheduler holds a stratified node graph and executes it cycle by cycle.
// It is the driver's single-threaded cooperative reactive core: Next must
// be called from one controller thread only, and must not allocate once
// the graph is built (strata, nodes and edges are fixed after the first
// Next call).
//
// Fields mirror spec: strata (nodes grouped by dependency layer), nodes
// (by id), node_stratum (id -> layer), outgoing_edges (id -> edges),
// changed (the current cycle's dirty set), current_executing (the node
// presently mid-Execute).
type Scheduler struct {
	setupMu sync.Mutex
	started bool

	nodes       map[NodeID]Node
	nodeStratum map[NodeID]int
	strata      [][]NodeID
	outgoing    map[NodeID][]outgoingEdge

	changed map[NodeID]bool

	input chan func()

	execMu  sync.Mutex
	current NodeID
	ctx     Context
}

// NewScheduler builds an empty Scheduler. inputQueueSize bounds how many
// pending I/O-thread updates (see Enqueue) may queue between cycles.
func NewScheduler(inputQueueSize int) *Scheduler {
	return &Scheduler{
		nodes:       make(map[NodeID]Node),
		nodeStratum: make(map[NodeID]int),
		outgoing:    make(map[NodeID][]outgoingEdge),
		changed:     make(map[NodeID]bool),
		input:       make(chan func(), inputQueueSize),
	}
}

// RegisterNode adds node under id at the given stratum. It fails if id is
// already registered. Stratum 0 is for nodes with no upstream dependency
// in this graph (their inputs come from outside, via Enqueue); every
// other stratum must be strictly greater than every one of its
// predecessors' strata, which the caller (typically a node-config builder
// that topologically sorts declared inputs) is responsible for computing.
func (s *Scheduler) RegisterNode(id NodeID, node Node, stratum int) error {
	s.setupMu.Lock()
	defer s.setupMu.Unlock()
	if _, exists := s.nodes[id]; exists {
		return fmt.Errorf("arc: node %q already registered", id)
	}
	s.nodes[id] = node
	s.nodeStratum[id] = stratum
	for len(s.strata) <= stratum {
		s.strata = append(s.strata, nil)
	}
	s.strata[stratum] = append(s.strata[stratum], id)
	return nil
}

// RegisterOutgoingEdge wires src's param output to tgt as an input. It
// must be called before the first Next; edges registered after that are
// rejected, since the scheduler's per-cycle hot path assumes a fixed
// edge set.
func (s *Scheduler) RegisterOutgoingEdge(src NodeID, param Param, tgt NodeID) error {
	s.setupMu.Lock()
	defer s.setupMu.Unlock()
	if s.started {
		return fmt.Errorf("arc: cannot register edge %q@%q->%q after the first Next", src, param, tgt)
	}
	if s.nodeStratum[tgt] <= s.nodeStratum[src] {
		return fmt.Errorf("arc: edge %q@%q->%q violates stratum ordering (%d <= %d)", src, param, tgt, s.nodeStratum[tgt], s.nodeStratum[src])
	}
	s.outgoing[src] = append(s.outgoing[src], outgoingEdge{sourceParam: param, target: tgt})
	return nil
}

// Enqueue schedules fn to run at the top of the next Next call, before
// stratum 0 executes. The I/O thread uses this to push freshly sampled
// data into a stratum-0 node's internal state ahead of that node's
// Execute.
func (s *Scheduler) Enqueue(fn func()) {
	s.input <- fn
}

// CurrentExecuting returns the node presently mid-Execute, or "" if Next
// is idle between cycles (or has not run yet).
func (s *Scheduler) CurrentExecuting() NodeID {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	return s.current
}

// Next runs one full cycle: drain the input queue, execute every
// stratum-0 node unconditionally, then execute every node in each
// subsequent stratum iff it was marked changed during this cycle. Changed
// is cleared at the end of every completed cycle; on a node error it is
// left as-is so the next cycle resumes fairly from wherever the prior one
// aborted.
func (s *Scheduler) Next() error {
	s.setupMu.Lock()
	s.started = true
	s.setupMu.Unlock()

drain:
	for {
		select {
		case fn := <-s.input:
			fn()
		default:
			break drain
		}
	}

	if len(s.strata) > 0 {
		for _, id := range s.strata[0] {
			if err := s.execute(id); err != nil {
				return err
			}
		}
	}

	for i := 1; i < len(s.strata); i++ {
		for _, id := range s.strata[i] {
			if !s.changed[id] {
				continue
			}
			if err := s.execute(id); err != nil {
				return err
			}
		}
	}

	for id := range s.changed {
		delete(s.changed, id)
	}
	return nil
}

func (s *Scheduler) execute(id NodeID) error {
	s.execMu.Lock()
	s.current = id
	s.execMu.Unlock()

	s.ctx = Context{s: s, node: id}
	err := s.nodes[id].Execute(&s.ctx)

	s.execMu.Lock()
	s.current = ""
	s.execMu.Unlock()

	if err != nil {
		return fmt.Errorf("arc: node %q: %w", id, err)
	}
	return nil
}

// Strata returns the node ids grouped by dependency layer, in execution
// order.
func (s *Scheduler) Strata() [][]NodeID {
	return s.strata
}

// StratumOf returns the dependency layer a node was registered under.
func (s *Scheduler) StratumOf(id NodeID) (int, bool) {
	st, ok := s.nodeStratum[id]
	return st, ok
}
