package document

import (
	"sync"

	"github.com/c360studio/pcforge/pc/eval"
)

// pendingMutation pairs a proposed Mutation with the sequence number the
// caller used to identify it in Ack/Reject.
type pendingMutation struct {
	seq int
	m   Mutation
}

// EditSession tracks one client's in-flight mutations against a Document:
// it applies each proposal optimistically (so the author's own edits feel
// instant) and keeps a queue of not-yet-acknowledged mutations so a
// rejection can be rebased without losing the client's later edits.
type EditSession struct {
	doc *Document
	ev  *eval.Evaluator

	mu      sync.Mutex
	nextSeq int
	pending []pendingMutation
}

// NewEditSession creates a session bound to doc, resolving each proposed
// Mutation's node/parent SemanticIDs against ev's evaluations of doc.
func NewEditSession(doc *Document, ev *eval.Evaluator) *EditSession {
	return &EditSession{doc: doc, ev: ev}
}

// Propose applies m against the document immediately, queuing it as
// pending until Ack or Reject resolves it. It returns the sequence number
// the caller should pass to Ack/Reject for this mutation.
func (s *EditSession) Propose(m Mutation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.doc.ApplyMutation(s.ev, m)
	if err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, result.Error
	}
	s.nextSeq++
	seq := s.nextSeq
	s.pending = append(s.pending, pendingMutation{seq: seq, m: m})
	return seq, nil
}

// Ack drops every pending mutation up to and including seq: the
// authoritative copy has accepted them and the client no longer needs to
// carry them for a future rebase.
func (s *EditSession) Ack(seq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = dropThrough(s.pending, seq)
}

// Reject removes the mutation identified by seq (it was rejected by the
// authoritative copy, e.g. a concurrent edit retargeted the node it
// addressed) and rebases every other pending mutation, earlier or later, by
// re-resolving them, in order, against the document's current state. A mutation that no
// longer resolves cleanly after rebase is dropped and returned to the
// caller so it can surface the conflict to the author instead of silently
// losing the edit.
func (s *EditSession) Reject(seq int) []Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rest []pendingMutation
	for _, pm := range s.pending {
		if pm.seq == seq {
			continue
		}
		rest = append(rest, pm)
	}

	var dropped []Mutation
	var kept []pendingMutation
	for _, pm := range rest {
		if !s.doc.canResolveMutation(s.ev, pm.m) {
			dropped = append(dropped, pm.m)
			continue
		}
		kept = append(kept, pm)
	}
	s.pending = kept
	return dropped
}

// Pending returns a snapshot of the currently unacknowledged mutations, in
// proposal order.
func (s *EditSession) Pending() []Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Mutation, len(s.pending))
	for i, pm := range s.pending {
		out[i] = pm.m
	}
	return out
}

func dropThrough(pending []pendingMutation, seq int) []pendingMutation {
	var rest []pendingMutation
	for _, pm := range pending {
		if pm.seq > seq {
			rest = append(rest, pm)
		}
	}
	return rest
}
