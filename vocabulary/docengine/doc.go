// Package docengine provides vocabulary predicates for pcforge's audit
// stream: the accepted mutations and patch batches that flow through a
// live .pc document as authors and CRDT peers edit it.
//
// Predicates use pcforge's own three-level dotted notation
// (pcforge.<category>.<property>), registered in init() via
// vocabulary.Register so the same entries show up wherever the rest of
// the ecosystem introspects registered predicates.
package docengine
