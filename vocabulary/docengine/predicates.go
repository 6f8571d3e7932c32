package docengine

import "github.com/c360studio/semstreams/vocabulary"

// Document predicates describe the .pc file a mutation or patch batch
// belongs to.
const (
	// PredicateDocPath is the canonical source path of the document.
	PredicateDocPath = "pcforge.doc.path"

	// PredicateDocID is the document's deterministic Span.doc_id.
	PredicateDocID = "pcforge.doc.id"
)

// Mutation predicates describe a single accepted edit to a document's
// CRDT text.
const (
	// PredicateMutationKind is the mutation's kind (move_element,
	// update_text, set_inline_style, delete_inline_style, set_attribute,
	// remove_node, insert_element, set_frame_bounds).
	PredicateMutationKind = "pcforge.mutation.kind"

	// PredicateMutationID is the client-supplied mutation id, echoed back
	// in the MutationResult.
	PredicateMutationID = "pcforge.mutation.id"

	// PredicateMutationNode is the SemanticID string of the node the
	// mutation targeted.
	PredicateMutationNode = "pcforge.mutation.node"

	// PredicateMutationSession links a mutation to the EditSession that
	// proposed it.
	PredicateMutationSession = "pcforge.mutation.session"

	// PredicateMutationAcceptedAt is the RFC3339 timestamp the mutation
	// was applied at.
	PredicateMutationAcceptedAt = "pcforge.mutation.accepted_at"
)

// Patch-batch predicates describe a diff result delivered to subscribers.
const (
	// PredicatePatchBatchCount is the number of patches in the batch.
	PredicatePatchBatchCount = "pcforge.patchbatch.count"

	// PredicatePatchBatchComponent is the component name the batch was
	// evaluated for.
	PredicatePatchBatchComponent = "pcforge.patchbatch.component"

	// PredicatePatchBatchEmittedAt is the RFC3339 timestamp the batch was
	// produced at.
	PredicatePatchBatchEmittedAt = "pcforge.patchbatch.emitted_at"
)

func init() {
	vocabulary.Register(PredicateDocPath,
		vocabulary.WithDescription("Canonical source path of the .pc document"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"docPath"))

	vocabulary.Register(PredicateDocID,
		vocabulary.WithDescription("Deterministic document ID used to seed Span IDs"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"docID"))

	vocabulary.Register(PredicateMutationKind,
		vocabulary.WithDescription("Kind of the accepted mutation"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"mutationKind"))

	vocabulary.Register(PredicateMutationID,
		vocabulary.WithDescription("Client-supplied mutation id"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"mutationID"))

	vocabulary.Register(PredicateMutationNode,
		vocabulary.WithDescription("SemanticID of the node the mutation targeted"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"mutationNode"))

	vocabulary.Register(PredicateMutationSession,
		vocabulary.WithDescription("EditSession that proposed the mutation"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"mutationSession"))

	vocabulary.Register(PredicateMutationAcceptedAt,
		vocabulary.WithDescription("Timestamp the mutation was applied (RFC3339)"),
		vocabulary.WithDataType("datetime"))

	vocabulary.Register(PredicatePatchBatchCount,
		vocabulary.WithDescription("Number of patches in the emitted batch"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"patchBatchCount"))

	vocabulary.Register(PredicatePatchBatchComponent,
		vocabulary.WithDescription("Component name the patch batch was evaluated for"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"patchBatchComponent"))

	vocabulary.Register(PredicatePatchBatchEmittedAt,
		vocabulary.WithDescription("Timestamp the patch batch was produced (RFC3339)"),
		vocabulary.WithDataType("datetime"))
}
