// Package document is the live, collaboratively-edited document: source
// text backed by a CRDT, the parse/evaluate/diff pipeline rerun on every
// accepted mutation, and the optimistic edit-session queue that keeps a
// client responsive while a mutation is in flight to the authoritative
// copy.
package document

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360studio/pcforge/pc/ast"
	"github.com/c360studio/pcforge/pc/bundle"
	"github.com/c360studio/pcforge/pc/crdt"
	"github.com/c360studio/pcforge/pc/differ"
	"github.com/c360studio/pcforge/pc/eval"
	"github.com/c360studio/pcforge/pc/vdom"
	"github.com/c360studio/pcforge/storage"
)

// Document is one .pc file's live state: its CRDT-backed source text, the
// AST from the most successful parse, and the VDocument from the most
// recent evaluation. ApplyMutation/ReplaceAll/Evaluate are the only mutating
// entry points; callers never touch source or ast directly.
type Document struct {
	Path   string
	bundle *bundle.Bundle
	crdt   *crdt.Doc

	mu       sync.RWMutex
	ast      *ast.Document
	lastVal  *vdom.VDocument
	parseErr error
	version  uint64

	log storage.Log // optional: persisted CRDT update log
}

// Version returns the document's current authoritative version: the count
// of edits ApplyMutation and ReplaceAll have committed.
func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// AttachLog binds l as the persisted update log: every subsequent
// ApplyMutation or ReplaceAll appends its incremental CRDT change set to l, keyed by the document's
// Path. Replaying those entries in order, via crdt.Doc.LoadIncremental
// starting from an empty document, reconstructs the text byte-for-byte.
func (d *Document) AttachLog(l storage.Log) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = l
}

// New creates a Document for path, parsing initialSource and registering it
// in b. A parse failure is retained on the Document (see ParseError) rather
// than returned, matching the "reparse whole file, report once" contract:
// the embedder still gets a usable Document to retry against once the
// source is fixed.
func New(path, initialSource string, b *bundle.Bundle) (*Document, error) {
	cd, err := crdt.New(initialSource)
	if err != nil {
		return nil, err
	}
	d := &Document{Path: path, bundle: b, crdt: cd}
	d.reparseLocked(initialSource)
	return d, nil
}

// ParseError returns the error from the most recent parse attempt, or nil
// if the document currently parses cleanly.
func (d *Document) ParseError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.parseErr
}

func (d *Document) reparseLocked(source string) {
	doc, err := ast.Parse(d.Path, []byte(source))
	if err != nil {
		d.parseErr = err
		return
	}
	d.ast = doc
	d.parseErr = nil
	d.bundle.AddDocument(doc)
}

// Text returns the document's current source text.
func (d *Document) Text() (string, error) {
	return d.crdt.Text()
}

// Evaluate re-evaluates componentName against the document's current AST
// and diffs the result against the previous evaluation, returning the
// patch sequence an embedder forwards over its preview transport.
func (d *Document) Evaluate(ev *eval.Evaluator, componentName string, props map[string]eval.Value, variants map[string]bool) ([]vdom.Patch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.parseErr != nil {
		return nil, d.parseErr
	}

	next, err := ev.EvaluateComponent(d.Path, componentName, props, variants)
	if err != nil {
		return nil, err
	}
	patches := differ.Diff(d.lastVal, next)
	d.lastVal = next
	return patches, nil
}

// Save serializes the document's CRDT state for persistence.
func (d *Document) Save() []byte {
	return d.crdt.Save()
}

// ReplaceAll splices source over the document's entire current text and
// reparses. It is for whole-file resynchronization from an out-of-band
// source of truth (a filesystem watcher picking up an external editor's
// save) rather than an authored edit: unlike ApplyMutation it carries no
// node-identity precondition, since there is no previous render tree to
// resolve a target against.
func (d *Document) ReplaceAll(source string) error {
	text, err := d.crdt.Text()
	if err != nil {
		return err
	}
	if err := d.crdt.Splice(0, len([]rune(text)), source); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	text, err = d.crdt.Text()
	if err != nil {
		return err
	}
	d.reparseLocked(text)
	d.version++

	if d.log != nil {
		if _, err := d.log.Append(context.Background(), d.Path, d.crdt.SaveIncremental()); err != nil {
			return fmt.Errorf("append to update log: %w", err)
		}
	}
	return nil
}

// ApplyMutation resolves m against the document's current render tree (via
// a fresh evaluation with ev), translates it to the minimal span-local text
// edit(s), splices those into the CRDT, and reparses. A rejected
// precondition (see MutationError) leaves the document's text, version, and
// AST byte-for-byte as they were; a successful edit always reparses
// cleanly, since the edit was built by mutating the existing AST and
// reserializing it, not by guessing at raw text.
func (d *Document) ApplyMutation(ev *eval.Evaluator, m Mutation) (MutationResult, error) {
	edits, mutErr := d.translateMutation(ev, m)
	if mutErr != nil {
		return MutationResult{Success: false, MutationID: m.ID, Error: mutErr}, nil
	}

	text, err := d.crdt.Text()
	if err != nil {
		return MutationResult{}, err
	}
	if err := d.applyTextEdits(text, edits); err != nil {
		return MutationResult{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	text, err = d.crdt.Text()
	if err != nil {
		return MutationResult{}, err
	}
	d.reparseLocked(text)
	d.version++

	if d.log != nil {
		if _, err := d.log.Append(context.Background(), d.Path, d.crdt.SaveIncremental()); err != nil {
			return MutationResult{}, fmt.Errorf("append to update log: %w", err)
		}
	}
	return MutationResult{Success: true, MutationID: m.ID, Version: d.version}, nil
}
