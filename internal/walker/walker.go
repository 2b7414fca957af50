// Package walker extracts the visible elements of an accessibility
// subtree.
package walker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

// Resolver is the slice of the accessibility protocol the walker needs.
// *atspi.Session satisfies it; tests use an in-memory tree.
type Resolver interface {
	Children(ctx context.Context, ref model.ElementRef) ([]model.ElementRef, error)
	Showing(ctx context.Context, ref model.ElementRef) (bool, error)
}

// Walker performs iterative depth-first traversals over remote subtrees.
// Safe for concurrent use; each Walk carries its own state.
type Walker struct {
	res Resolver
	log *slog.Logger
}

func New(res Resolver, log *slog.Logger) *Walker {
	return &Walker{res: res, log: log}
}

// Walk collects every descendant of root whose own state reports it
// showing on screen. A child is queued for descent regardless of its
// visibility, so invisible containers do not hide their visible
// descendants. Result order is stack-pop order, not document order.
//
// The traversal uses an explicit work stack: tree depth is controlled by
// the applications being observed, so recursion depth must not depend on
// it. Each node costs one or two remote calls; callers run Walk off the
// render path.
//
// A failure enumerating the root's children fails the walk. A failure on
// any deeper node is logged and skips that node's unexplored subtree; the
// walk commits what it has.
func (w *Walker) Walk(ctx context.Context, root model.ElementRef) (model.HighlightSet, error) {
	stack := []model.ElementRef{root}
	var collected model.HighlightSet

	atRoot := true
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := w.res.Children(ctx, node)
		if err != nil {
			if atRoot {
				return nil, fmt.Errorf("walk %s: %w", root, err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			w.log.Warn("skipping subtree: children query failed", "ref", node.String(), "error", err)
			continue
		}
		atRoot = false

		for _, child := range children {
			stack = append(stack, child)

			showing, err := w.res.Showing(ctx, child)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				w.log.Warn("skipping element: state query failed", "ref", child.String(), "error", err)
				continue
			}
			if showing {
				collected = append(collected, child)
			}
		}
	}

	w.log.Debug("walk complete", "root", root.String(), "collected", len(collected))
	return collected, nil
}
