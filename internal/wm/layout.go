// Package wm implements the tiling window manager from §4.7: a per-
// workspace BSP layout tree, drag/resize gestures, and the status-bar
// client.
//
// Grounded on original_source/programs/wm/wm_layout.c (BSP insert/remove/
// apply-layout), wm_views.c (view table, master/focus bookkeeping),
// wm_drag.c (drag/resize gesture state machine), and wm_ui.c (status-bar
// client lifecycle).
package wm

import (
	"github.com/yula1234/yulaos/internal/constants"
)

// SplitDir is the axis a split layout node divides its rectangle along.
type SplitDir int

const (
	SplitVertical SplitDir = iota
	SplitHorizontal
)

const noNode = -1

// LayoutNode is one node of a workspace's BSP tree: either a leaf
// referencing a view index, or a split with two child node indices.
// Grounded on wm_layout.c's wm_layout_node_t.
type LayoutNode struct {
	used      bool
	workspace uint32
	parent    int
	a, b      int
	isSplit   bool
	splitDir  SplitDir
	viewIdx   int
}

// rect is an axis-aligned screen-space rectangle used while walking the
// BSP tree in applyLayout.
type rect struct {
	x, y, w, h int32
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// allocLayoutNode finds a free slot in the fixed-capacity node table,
// per wm_layout_alloc_node.
func (st *State) allocLayoutNode(ws uint32) int {
	for i := range st.layoutNodes {
		if !st.layoutNodes[i].used {
			st.layoutNodes[i] = LayoutNode{
				used: true, workspace: ws, parent: noNode,
				a: noNode, b: noNode, splitDir: SplitVertical, viewIdx: noNode,
			}
			return i
		}
	}
	return noNode
}

func (st *State) freeLayoutNode(n int) {
	if n < 0 || n >= len(st.layoutNodes) {
		return
	}
	st.layoutNodes[n] = LayoutNode{parent: noNode, a: noNode, b: noNode, splitDir: SplitVertical, viewIdx: noNode}
}

// findLeafForView returns the leaf node referencing viewIdx on workspace
// ws, or noNode.
func (st *State) findLeafForView(ws uint32, viewIdx int) int {
	for i := range st.layoutNodes {
		n := &st.layoutNodes[i]
		if !n.used || n.workspace != ws || n.isSplit {
			continue
		}
		if n.viewIdx == viewIdx {
			return i
		}
	}
	return noNode
}

// findAnyLeaf returns any leaf node on workspace ws that references a
// view, or noNode if the workspace's tree is empty.
func (st *State) findAnyLeaf(ws uint32) int {
	for i := range st.layoutNodes {
		n := &st.layoutNodes[i]
		if n.used && n.workspace == ws && !n.isSplit && n.viewIdx >= 0 {
			return i
		}
	}
	return noNode
}

// pickSplitDir chooses VERTICAL for a wider-than-tall view, HORIZONTAL
// otherwise, falling back to the screen aspect ratio for a view with no
// geometry yet, per wm_layout_pick_split_dir.
func (st *State) pickSplitDir(viewIdx int) SplitDir {
	if viewIdx < 0 || viewIdx >= len(st.views) {
		return SplitVertical
	}
	v := &st.views[viewIdx]
	w, h := v.W, v.H
	if w == 0 || h == 0 {
		w, h = st.screenW, st.screenH
	}
	if w >= h {
		return SplitVertical
	}
	return SplitHorizontal
}

// removeView detaches viewIdx's leaf from workspace ws's tree, collapsing
// its parent split into the sibling, per wm_layout_remove_view.
func (st *State) removeView(ws uint32, viewIdx int) {
	leaf := st.findLeafForView(ws, viewIdx)
	if leaf < 0 {
		return
	}

	parent := st.layoutNodes[leaf].parent
	if parent < 0 {
		st.freeLayoutNode(leaf)
		st.layoutRoot[ws] = noNode
		return
	}

	var sibling int
	if st.layoutNodes[parent].a == leaf {
		sibling = st.layoutNodes[parent].b
	} else {
		sibling = st.layoutNodes[parent].a
	}
	grand := st.layoutNodes[parent].parent

	if grand < 0 {
		st.layoutRoot[ws] = sibling
		if sibling >= 0 {
			st.layoutNodes[sibling].parent = noNode
		}
	} else {
		if st.layoutNodes[grand].a == parent {
			st.layoutNodes[grand].a = sibling
		} else if st.layoutNodes[grand].b == parent {
			st.layoutNodes[grand].b = sibling
		}
		if sibling >= 0 {
			st.layoutNodes[sibling].parent = grand
		}
	}

	st.freeLayoutNode(leaf)
	st.freeLayoutNode(parent)
}

// insertSplit inserts newViewIdx into ws's tree by splitting the leaf
// that currently holds oldViewIdx (or any leaf, or becoming the root if
// the tree is empty), per wm_layout_insert_split.
func (st *State) insertSplit(ws uint32, oldViewIdx, newViewIdx int) {
	leaf := st.findLeafForView(ws, oldViewIdx)
	if leaf < 0 {
		leaf = st.findAnyLeaf(ws)
	}
	if leaf < 0 {
		n := st.allocLayoutNode(ws)
		if n < 0 {
			return
		}
		st.layoutNodes[n].viewIdx = newViewIdx
		st.layoutRoot[ws] = n
		return
	}

	a := st.allocLayoutNode(ws)
	b := st.allocLayoutNode(ws)
	if a < 0 || b < 0 {
		if a >= 0 {
			st.freeLayoutNode(a)
		}
		if b >= 0 {
			st.freeLayoutNode(b)
		}
		return
	}

	st.layoutNodes[a].viewIdx = oldViewIdx
	st.layoutNodes[a].parent = leaf
	st.layoutNodes[b].viewIdx = newViewIdx
	st.layoutNodes[b].parent = leaf

	st.layoutNodes[leaf].isSplit = true
	st.layoutNodes[leaf].viewIdx = noNode
	st.layoutNodes[leaf].a = a
	st.layoutNodes[leaf].b = b
	st.layoutNodes[leaf].splitDir = st.pickSplitDir(oldViewIdx)
}

type stackEntry struct {
	node int
	r    rect
}

// applyLayout recomputes every tiled view's geometry on the active
// workspace by walking its BSP tree depth-first and issuing Move/Resize
// commands for any view whose computed rect changed, then raises and
// places the status bar, per wm_apply_layout.
func (st *State) applyLayout() {
	barH := int32(0)
	if st.ui.attached {
		barH = int32(constants.StatusBarHeight)
	}

	ax := st.gapOuter
	ay := st.gapOuter + barH
	aw := int32(st.screenW) - 2*st.gapOuter
	ah := int32(st.screenH) - 2*st.gapOuter - barH

	for i := range st.views {
		v := &st.views[i]
		if !v.Mapped || v.UI {
			continue
		}
		if v.Workspace != st.activeWS {
			st.hideView(v)
			continue
		}
		if v.Hidden {
			st.showView(v)
		}
	}

	if aw <= 0 || ah <= 0 {
		st.raiseAndPlaceUI()
		return
	}

	root := noNode
	if st.activeWS < uint32(len(st.layoutRoot)) {
		root = st.layoutRoot[st.activeWS]
	}

	if root >= 0 {
		stack := []stackEntry{{root, rect{ax, ay, aw, ah}}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n, r := top.node, top.r
			if n < 0 || n >= len(st.layoutNodes) {
				continue
			}
			node := &st.layoutNodes[n]
			if !node.used || node.workspace != st.activeWS {
				continue
			}

			if !node.isSplit {
				vidx := node.viewIdx
				if vidx < 0 || vidx >= len(st.views) {
					continue
				}
				v := &st.views[vidx]
				if !v.Mapped || v.UI || v.Workspace != st.activeWS || v.Floating {
					continue
				}
				if r.w <= 0 || r.h <= 0 {
					continue
				}

				nw, nh := r.w, r.h
				if nw < constants.ResizeMinW {
					nw = constants.ResizeMinW
				}
				if nh < constants.ResizeMinH {
					nh = constants.ResizeMinH
				}

				needMove := v.X != r.x || v.Y != r.y
				needResize := int32(v.W) != nw || int32(v.H) != nh
				if needResize {
					st.cmds.Resize(v.ClientID, v.SurfaceID, nw, nh)
					v.W, v.H = uint32(nw), uint32(nh)
				}
				if needMove {
					st.cmds.Move(v.ClientID, v.SurfaceID, r.x, r.y)
					v.X, v.Y = r.x, r.y
				}
				continue
			}

			a, b := node.a, node.b
			if a < 0 || b < 0 {
				continue
			}

			gap := maxI32(st.gapInner, 0)
			var ra, rb rect
			if node.splitDir == SplitVertical {
				leftW := maxI32((r.w-gap)/2, 0)
				rightW := maxI32(r.w-gap-leftW, 0)
				ra = rect{r.x, r.y, leftW, r.h}
				rb = rect{r.x + leftW + gap, r.y, rightW, r.h}
			} else {
				topH := maxI32((r.h-gap)/2, 0)
				botH := maxI32(r.h-gap-topH, 0)
				ra = rect{r.x, r.y, r.w, topH}
				rb = rect{r.x, r.y + topH + gap, r.w, botH}
			}
			stack = append(stack, stackEntry{b, rb}, stackEntry{a, ra})
		}
	}

	st.raiseAndPlaceUI()
}
