// Package render draws trees and run summaries for terminals and HTML reports.
package render

import (
	"cmp"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/ordtree/pkg/rbtree"
)

// branch is the side a subtree hangs from.
type branch int

const (
	branchRoot branch = iota
	branchLeft
	branchRight
)

// Printer draws a tree sideways: right subtrees above, left subtrees below.
type Printer struct {
	red   *color.Color
	black *color.Color
}

// NewPrinter returns a printer. Colour escapes are written only when colorize is set.
func NewPrinter(colorize bool) *Printer {
	red := color.New(color.FgRed, color.Bold)
	black := color.New(color.FgHiWhite, color.Bold)

	if colorize {
		red.EnableColor()
		black.EnableColor()
	} else {
		red.DisableColor()
		black.DisableColor()
	}

	return &Printer{red: red, black: black}
}

// Tree writes the tree and returns its depth. An empty tree prints "(empty)".
func Tree[K cmp.Ordered](printer *Printer, out io.Writer, tree *rbtree.Tree[K]) int {
	if tree.Empty() {
		fmt.Fprintln(out, "(empty)")

		return 0
	}

	return printNode(printer, out, tree, tree.Root(), "", branchRoot)
}

// printNode returns the depth of the subtree at ref.
func printNode[K cmp.Ordered](
	printer *Printer, out io.Writer, tree *rbtree.Tree[K], ref rbtree.NodeRef, prefix string, br branch,
) int {
	if ref.IsNil() {
		return 0
	}

	rd := 0
	ld := 0

	if right := tree.Right(ref); !right.IsNil() {
		t := "       "
		if br == branchLeft {
			t = "|      "
		}

		rd = printNode(printer, out, tree, right, prefix+t, branchRight)
	}

	switch br {
	case branchRoot:
		fmt.Fprintf(out, "%s|------+ ", prefix)
	case branchLeft:
		fmt.Fprintf(out, "%s\\------+ ", prefix)
	case branchRight:
		fmt.Fprintf(out, "%s/------+ ", prefix)
	}

	paint := printer.black
	if tree.Color(ref) == rbtree.Red {
		paint = printer.red
	}

	fmt.Fprintln(out, paint.Sprintf("%v %s", tree.Key(ref), colorTag(tree.Color(ref))))

	if left := tree.Left(ref); !left.IsNil() {
		t := "       "
		if br == branchRight {
			t = "|      "
		}

		ld = printNode(printer, out, tree, left, prefix+t, branchLeft)
	}

	return 1 + max(rd, ld)
}

func colorTag(c rbtree.Color) string {
	if c == rbtree.Red {
		return "(R)"
	}

	return "(B)"
}
