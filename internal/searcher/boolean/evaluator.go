package boolean

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/indexer/index"
)

// Evaluator answers boolean queries against one immutable index. Document
// sets are bitmaps over positions in the sorted universe, so iterating a
// result yields ids in sorted order. Safe for concurrent use.
type Evaluator struct {
	universe []string
	all      *roaring.Bitmap
	postings map[string]*roaring.Bitmap
	maxDepth int
}

// NewEvaluator converts the posting lists of idx into bitmaps.
func NewEvaluator(idx *index.Index, maxDepth int) *Evaluator {
	ordinals := make(map[string]uint32, len(idx.Universe))
	for i, id := range idx.Universe {
		ordinals[id] = uint32(i)
	}
	e := &Evaluator{
		universe: idx.Universe,
		all:      roaring.New(),
		postings: make(map[string]*roaring.Bitmap, len(idx.Postings)),
		maxDepth: maxDepth,
	}
	e.all.AddRange(0, uint64(len(idx.Universe)))
	for term, ids := range idx.Postings {
		bm := roaring.New()
		for _, id := range ids {
			bm.Add(ordinals[id])
		}
		bm.RunOptimize()
		e.postings[term] = bm
	}
	return e
}

// Search parses and evaluates query, returning matching document ids in
// sorted order. A malformed query yields a *SyntaxError and no result.
func (e *Evaluator) Search(query string) ([]string, error) {
	node, err := Parse(query, e.maxDepth)
	if err != nil {
		return nil, err
	}
	return e.IDs(e.Evaluate(node)), nil
}

// SearchNormalized is Search with every unquoted term passed through fn.
func (e *Evaluator) SearchNormalized(query string, fn func(string) string) ([]string, error) {
	node, err := Parse(query, e.maxDepth)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		node = MapTerms(node, fn)
	}
	return e.IDs(e.Evaluate(node)), nil
}

// Evaluate computes the document set of node. The returned bitmap may be
// shared with the evaluator and must not be modified.
func (e *Evaluator) Evaluate(node Node) *roaring.Bitmap {
	switch n := node.(type) {
	case *Term:
		if bm, ok := e.postings[n.Value]; ok {
			return bm
		}
		return roaring.New()
	case *Not:
		return roaring.AndNot(e.all, e.Evaluate(n.Operand))
	case *And:
		acc := e.Evaluate(n.Operands[0])
		for _, operand := range n.Operands[1:] {
			if acc.IsEmpty() {
				return roaring.New()
			}
			acc = roaring.And(acc, e.Evaluate(operand))
		}
		return acc
	case *Or:
		parts := make([]*roaring.Bitmap, len(n.Operands))
		for i, operand := range n.Operands {
			parts[i] = e.Evaluate(operand)
		}
		return roaring.FastOr(parts...)
	default:
		panic(fmt.Sprintf("boolean: unknown node type %T", node))
	}
}

// IDs maps a document set back to sorted document ids.
func (e *Evaluator) IDs(bm *roaring.Bitmap) []string {
	ids := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, e.universe[it.Next()])
	}
	return ids
}

// Universe returns every indexed document id in sorted order.
func (e *Evaluator) Universe() []string {
	return e.universe
}
