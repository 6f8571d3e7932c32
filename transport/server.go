package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/c360studio/pcforge/audit"
	"github.com/c360studio/pcforge/pc/document"
	"github.com/c360studio/pcforge/pc/eval"
	"github.com/c360studio/pcforge/pc/vdom"
	"github.com/c360studio/semstreams/natsclient"
)

// PreviewSubjectPrefix is the NATS subject prefix patch batches are
// published on, one subject per file: pcforge.preview.<file>.
const PreviewSubjectPrefix = "pcforge.preview."

// MutationSubjectPrefix is the NATS subject prefix mutation requests are
// published to, one subject per file: pcforge.mutation.<file>.
const MutationSubjectPrefix = "pcforge.mutation."

// PreviewSubject returns the preview subject for path.
func PreviewSubject(path string) string {
	return PreviewSubjectPrefix + sanitizeSubjectToken(path)
}

// MutationSubject returns the mutation-request subject for path.
func MutationSubject(path string) string {
	return MutationSubjectPrefix + sanitizeSubjectToken(path)
}

// sanitizeSubjectToken replaces characters NATS subject tokens can't
// contain (path separators, whitespace) so a file path becomes a single
// well-formed subject token.
func sanitizeSubjectToken(path string) string {
	r := strings.NewReplacer("/", ".", " ", "_")
	return r.Replace(path)
}

// MutationRequest is the payload clients publish to a file's mutation
// subject.
type MutationRequest struct {
	SessionID string                `json:"session_id"`
	Mutation  document.Mutation     `json:"mutation"`
	Component string                `json:"component,omitempty"`
	Props     map[string]eval.Value `json:"props,omitempty"`
	Variants  map[string]bool       `json:"variants,omitempty"`
}

// MutationResponse is the payload returned to the client on
// pcforge.mutation.<file>.reply: either the accepted mutation's resulting
// patch batch, or the precondition it violated.
type MutationResponse struct {
	Accepted    bool         `json:"accepted"`
	MutationID  string       `json:"mutation_id,omitempty"`
	Version     uint64       `json:"version,omitempty"`
	FailureKind string       `json:"failure_kind,omitempty"`
	Error       string       `json:"error,omitempty"`
	Patches     []vdom.Patch `json:"patches,omitempty"`
}

// Server exposes the preview/mutation adapters of the Documents it serves
// over NATS. Each Document served gets its own subject pair; Server multiplexes many
// documents over one *natsclient.Client.
type Server struct {
	natsClient *natsclient.Client
	logger     *slog.Logger
	evaluator  *eval.Evaluator
	publisher  *audit.Publisher
	health     *HealthRegistry

	mu      sync.Mutex
	docs    map[string]*document.Document
	cancels []context.CancelFunc
}

// NewServer creates a Server. logger may be nil (defaults to slog.Default).
func NewServer(nc *natsclient.Client, ev *eval.Evaluator, pub *audit.Publisher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		natsClient: nc,
		logger:     logger,
		evaluator:  ev,
		publisher:  pub,
		health:     NewHealthRegistry(DefaultHealthConfig()),
		docs:       make(map[string]*document.Document),
	}
}

// Serve registers doc under its Path and subscribes to its mutation
// subject. An embedder calls PublishPreview after driving the document
// itself (e.g. from the watcher) to push the initial/updated patch batch.
func (s *Server) Serve(ctx context.Context, doc *document.Document, componentName string) error {
	subCtx, cancel := context.WithCancel(ctx)

	subject := MutationSubject(doc.Path)
	_, err := s.natsClient.SubscribeForRequests(subCtx, subject, func(ctx context.Context, data []byte) ([]byte, error) {
		return s.handleMutation(ctx, doc, componentName, data)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	s.mu.Lock()
	s.docs[doc.Path] = doc
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()
	return nil
}

func (s *Server) handleMutation(ctx context.Context, doc *document.Document, componentName string, data []byte) ([]byte, error) {
	var req MutationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return json.Marshal(MutationResponse{Accepted: false, Error: fmt.Sprintf("invalid request: %v", err)})
	}

	result, err := doc.ApplyMutation(s.evaluator, req.Mutation)
	if err != nil {
		return json.Marshal(MutationResponse{Accepted: false, MutationID: req.Mutation.ID, Error: err.Error()})
	}
	if !result.Success {
		return json.Marshal(MutationResponse{
			Accepted:    false,
			MutationID:  result.MutationID,
			FailureKind: result.Error.Kind.String(),
			Error:       result.Error.Reason,
		})
	}
	mutationsAcceptedTotal.Inc()
	if s.publisher != nil {
		_ = s.publisher.PublishMutation(ctx, doc.Path, req.Mutation, req.SessionID)
	}

	comp := componentName
	if req.Component != "" {
		comp = req.Component
	}
	patches, err := doc.Evaluate(s.evaluator, comp, req.Props, req.Variants)
	if err != nil {
		// The mutation itself was accepted (it's already applied to the
		// CRDT); only the preview evaluation failed, usually because the
		// edit produced a parse error. Report it without reverting.
		return json.Marshal(MutationResponse{Accepted: true, MutationID: result.MutationID, Version: result.Version, Error: err.Error()})
	}
	if s.publisher != nil {
		_ = s.publisher.PublishPatchBatch(ctx, doc.Path, comp, len(patches))
	}

	if err := s.PublishPreview(ctx, doc.Path, patches); err != nil {
		s.logger.Warn("publish preview failed", slog.String("path", doc.Path), slog.String("error", err.Error()))
	}

	return json.Marshal(MutationResponse{Accepted: true, MutationID: result.MutationID, Version: result.Version, Patches: patches})
}

// PublishPreview publishes patches to path's preview subject, recording the
// delivery against the subject's SessionHealth.
func (s *Server) PublishPreview(ctx context.Context, path string, patches []vdom.Patch) error {
	subject := PreviewSubject(path)
	if !s.health.IsAvailable(subject) {
		return fmt.Errorf("preview subject %s circuit open", subject)
	}

	data, err := json.Marshal(patches)
	if err != nil {
		return fmt.Errorf("marshal patch batch: %w", err)
	}

	if err := s.natsClient.Publish(ctx, subject, data); err != nil {
		s.health.MarkFailure(subject)
		recordPreviewPublish(false)
		return fmt.Errorf("publish preview: %w", err)
	}
	s.health.MarkSuccess(subject)
	recordPreviewPublish(true)
	return nil
}

// Health returns the current SessionHealth for a preview subscriber
// identified by path.
func (s *Server) Health(path string) SessionHealth {
	return s.health.Health(PreviewSubject(path))
}

// Close cancels every subscription the Server registered via Serve.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	return nil
}
