// Package audit turns accepted mutations and emitted patch batches into
// triples and publishes them for observability, the same way the
// teacher's graph package turns workflow proposals into ingestible
// entities.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/pcforge/pc/document"
	"github.com/c360studio/pcforge/vocabulary/docengine"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
)

// EntitySubject is the NATS subject audit events are published on.
const EntitySubject = "pcforge.audit.entity"

// EntityIngestMessage is the message format audit events are published
// in, matching the shape the rest of the ecosystem's ingestion consumers
// expect.
type EntityIngestMessage struct {
	ID        string           `json:"id"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Publisher republishes document activity as audit triples. A nil
// natsClient makes every Publish* call a no-op, so a Document can be
// driven headless (tests, offline tooling) without wiring NATS.
type Publisher struct {
	natsClient *natsclient.Client
	source     string
}

// NewPublisher creates a Publisher. source tags every triple's Source
// field, e.g. "pcforge.mutation" or "pcforge.watcher".
func NewPublisher(nc *natsclient.Client, source string) *Publisher {
	return &Publisher{natsClient: nc, source: source}
}

// PublishMutation records one accepted Mutation against docPath.
func (p *Publisher) PublishMutation(ctx context.Context, docPath string, m document.Mutation, sessionID string) error {
	if p.natsClient == nil {
		return nil
	}

	entityID := MutationEntityID(docPath, time.Now())
	now := time.Now()

	triples := []message.Triple{
		{Subject: entityID, Predicate: docengine.PredicateDocPath, Object: docPath, Source: p.source, Timestamp: now, Confidence: 1.0},
		{Subject: entityID, Predicate: docengine.PredicateMutationKind, Object: m.Kind.String(), Source: p.source, Timestamp: now, Confidence: 1.0},
		{Subject: entityID, Predicate: docengine.PredicateMutationID, Object: m.ID, Source: p.source, Timestamp: now, Confidence: 1.0},
		{Subject: entityID, Predicate: docengine.PredicateMutationNode, Object: m.Node.String(), Source: p.source, Timestamp: now, Confidence: 1.0},
		{Subject: entityID, Predicate: docengine.PredicateMutationAcceptedAt, Object: now.Format(time.RFC3339), Source: p.source, Timestamp: now, Confidence: 1.0},
	}
	if sessionID != "" {
		triples = append(triples, message.Triple{
			Subject: entityID, Predicate: docengine.PredicateMutationSession, Object: sessionID,
			Source: p.source, Timestamp: now, Confidence: 1.0,
		})
	}

	return p.publish(ctx, entityID, triples)
}

// PublishPatchBatch records one emitted patch batch against docPath.
func (p *Publisher) PublishPatchBatch(ctx context.Context, docPath, component string, patchCount int) error {
	if p.natsClient == nil {
		return nil
	}

	entityID := PatchBatchEntityID(docPath, time.Now())
	now := time.Now()

	triples := []message.Triple{
		{Subject: entityID, Predicate: docengine.PredicateDocPath, Object: docPath, Source: p.source, Timestamp: now, Confidence: 1.0},
		{Subject: entityID, Predicate: docengine.PredicatePatchBatchComponent, Object: component, Source: p.source, Timestamp: now, Confidence: 1.0},
		{Subject: entityID, Predicate: docengine.PredicatePatchBatchCount, Object: patchCount, Source: p.source, Timestamp: now, Confidence: 1.0},
		{Subject: entityID, Predicate: docengine.PredicatePatchBatchEmittedAt, Object: now.Format(time.RFC3339), Source: p.source, Timestamp: now, Confidence: 1.0},
	}

	return p.publish(ctx, entityID, triples)
}

func (p *Publisher) publish(ctx context.Context, entityID string, triples []message.Triple) error {
	msg := EntityIngestMessage{ID: entityID, Triples: triples, UpdatedAt: time.Now()}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audit entity: %w", err)
	}

	if err := p.natsClient.PublishToStream(ctx, EntitySubject, data); err != nil {
		return fmt.Errorf("publish audit entity: %w", err)
	}
	return nil
}

// MutationEntityID generates a consistent entity ID for a mutation event.
func MutationEntityID(docPath string, at time.Time) string {
	return fmt.Sprintf("pcforge.local.docengine.mutation.%s.%d", docPath, at.UnixNano())
}

// PatchBatchEntityID generates a consistent entity ID for a patch-batch
// event.
func PatchBatchEntityID(docPath string, at time.Time) string {
	return fmt.Sprintf("pcforge.local.docengine.patchbatch.%s.%d", docPath, at.UnixNano())
}
