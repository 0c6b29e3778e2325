// Package aggregate builds a three-level tree (roots → children → leaves)
// from independent fetches, level by level.
//
// Within a level all sibling fetches are issued together and joined with
// Settle, which keeps a value-or-error per item in request order. A failed
// child fetch degrades its root to an empty child list; a failed leaf fetch
// keeps the child and marks the leaf unavailable. Only a failed root fetch is
// returned to the caller, wrapped as faults.ErrRootFetchFailed.
package aggregate

import (
	"context"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Settled is the outcome of one fetch in a fan-out.
type Settled[R any] struct {
	Value R
	Err   error
}

// OK reports whether the fetch succeeded.
func (s Settled[R]) OK() bool { return s.Err == nil }

// Settle calls fn for every item concurrently (at most limit at a time; 0
// means one goroutine per item) and returns the outcomes in the order of
// items, regardless of completion order.
func Settle[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []Settled[R] {
	if len(items) == 0 {
		return []Settled[R]{}
	}
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	m := iter.Mapper[T, Settled[R]]{MaxGoroutines: limit}
	return m.Map(items, func(item *T) Settled[R] {
		v, err := fn(ctx, *item)
		return Settled[R]{Value: v, Err: err}
	})
}

// Level names the fan-out level a branch failure happened at.
type Level string

const (
	LevelChildren Level = "children"
	LevelLeaf     Level = "leaf"
)

// BranchError describes one absorbed branch failure. ChildIndex is -1 for
// child-collection failures.
type BranchError struct {
	Level      Level
	RootIndex  int
	ChildIndex int
	Err        error
}

func (e BranchError) Error() string {
	return string(e.Level) + ": " + e.Err.Error()
}

func (e BranchError) Unwrap() []error {
	return []error{faults.ErrBranchFetchFailed, e.Err}
}

// Options tunes a Tree call.
type Options struct {
	// MaxConcurrency bounds in-flight fetches per level; 0 is unbounded.
	MaxConcurrency int

	// Log receives one warning per absorbed branch failure.
	Log *zap.Logger

	// OnBranchError, when set, is called once per absorbed branch failure
	// after the level completes, in request order.
	OnBranchError func(BranchError)
}

// Child is one child item with its leaf outcome.
type Child[C, L any] struct {
	Item    C
	Leaf    L
	LeafErr error
}

// LeafAvailable reports whether the leaf fetch succeeded.
func (c Child[C, L]) LeafAvailable() bool { return c.LeafErr == nil }

// Node is one root item with its children. ChildrenErr is set when the child
// collection could not be fetched; Children is then empty.
type Node[R, C, L any] struct {
	Item        R
	Children    []Child[C, L]
	ChildrenErr error
}

// Tree fetches roots, then every root's children, then every child's leaf,
// and merges the results preserving the order each fetch returned.
//
// The returned error is non-nil only when the root fetch fails.
func Tree[R, C, L any](
	ctx context.Context,
	fetchRoots func(context.Context) ([]R, error),
	fetchChildren func(context.Context, R) ([]C, error),
	fetchLeaf func(context.Context, C) (L, error),
	opts Options,
) ([]Node[R, C, L], error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	roots, err := fetchRoots(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.ErrRootFetchFailed, "fetch roots", err)
	}

	nodes := make([]Node[R, C, L], len(roots))
	for i, r := range roots {
		nodes[i].Item = r
		nodes[i].Children = []Child[C, L]{}
	}

	/*── level 2: child collections ───────────────────────────────────────*/

	childSets := Settle(ctx, roots, opts.MaxConcurrency, fetchChildren)

	type pos struct{ root, child int }
	var (
		positions []pos
		pending   []C
	)
	for i, set := range childSets {
		if !set.OK() {
			nodes[i].ChildrenErr = set.Err
			be := BranchError{Level: LevelChildren, RootIndex: i, ChildIndex: -1, Err: set.Err}
			log.Warn("child fetch failed; branch degraded to empty",
				zap.Int("root_index", i), zap.Error(set.Err))
			if opts.OnBranchError != nil {
				opts.OnBranchError(be)
			}
			continue
		}
		nodes[i].Children = make([]Child[C, L], len(set.Value))
		for j, c := range set.Value {
			nodes[i].Children[j].Item = c
			positions = append(positions, pos{root: i, child: j})
			pending = append(pending, c)
		}
	}

	/*── level 3: leaves across every root ────────────────────────────────*/

	leaves := Settle(ctx, pending, opts.MaxConcurrency, fetchLeaf)

	for k, p := range positions {
		ch := &nodes[p.root].Children[p.child]
		if !leaves[k].OK() {
			ch.LeafErr = leaves[k].Err
			be := BranchError{Level: LevelLeaf, RootIndex: p.root, ChildIndex: p.child, Err: leaves[k].Err}
			log.Warn("leaf fetch failed; child kept with unavailable marker",
				zap.Int("root_index", p.root),
				zap.Int("child_index", p.child),
				zap.Error(leaves[k].Err))
			if opts.OnBranchError != nil {
				opts.OnBranchError(be)
			}
			continue
		}
		ch.Leaf = leaves[k].Value
	}

	return nodes, nil
}
