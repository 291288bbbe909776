package commands

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordtree/internal/observability"
	"github.com/Sumatoshi-tech/ordtree/internal/render"
	"github.com/Sumatoshi-tech/ordtree/pkg/rbtree"
)

// ErrInvalidRange is returned for a malformed --range flag.
var ErrInvalidRange = errors.New("invalid range, want lo:hi with lo <= hi")

// NewPrintCommand creates the print command.
func NewPrintCommand() *cobra.Command {
	return newPrintCommandWithDeps(observability.Init)
}

func newPrintCommandWithDeps(initFn observabilityInit) *cobra.Command {
	var (
		flags     commonFlags
		keyRange  string
		asStrings bool
	)

	cmd := &cobra.Command{
		Use:   "print [key...]",
		Short: "Insert keys into a tree and draw it",
		Long: `Print inserts the given keys in order, verifies the tree, and draws it
sideways with red and black nodes marked.

Examples:
  ordtree print 5 3 8 1 4
  ordtree print --range 1:16
  ordtree print --strings pear apple fig`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := startSession(cmd, &flags, observability.ModeCLI, initFn)
			if err != nil {
				return err
			}
			defer sess.close()

			printer := render.NewPrinter(colorize(&flags, cmd.OutOrStdout()))
			threshold := sess.cfg.Tree.HibernationThreshold

			if asStrings {
				if keyRange != "" {
					return fmt.Errorf("%w: --range cannot be combined with --strings", ErrInvalidRange)
				}

				return printTree(cmd.OutOrStdout(), printer, threshold, args)
			}

			keys, err := intKeys(args, keyRange)
			if err != nil {
				return err
			}

			return printTree(cmd.OutOrStdout(), printer, threshold, keys)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&keyRange, "range", "", "insert the half-open integer range lo:hi after the arguments")
	cmd.Flags().BoolVar(&asStrings, "strings", false, "treat arguments as string keys")

	return cmd
}

func printTree[K cmp.Ordered](out io.Writer, printer *render.Printer, threshold int, keys []K) error {
	tree := rbtree.New[K]()
	tree.Allocator().HibernationThreshold = threshold

	defer tree.Destroy()

	for _, key := range keys {
		tree.Insert(key)
	}

	err := tree.Verify()
	if err != nil {
		return err
	}

	render.Tree(printer, out, tree)
	fmt.Fprintf(out, "%d nodes, height %d, black-height %d\n", tree.Len(), tree.Height(), tree.BlackHeight())

	return nil
}

func intKeys(args []string, keyRange string) ([]int, error) {
	keys := make([]int, 0, len(args))

	for _, arg := range args {
		key, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", arg, err)
		}

		keys = append(keys, key)
	}

	if keyRange == "" {
		return keys, nil
	}

	lo, hi, err := parseRange(keyRange)
	if err != nil {
		return nil, err
	}

	for key := lo; key < hi; key++ {
		keys = append(keys, key)
	}

	return keys, nil
}

func parseRange(raw string) (lo, hi int, err error) { //nolint:nonamedreturns // bounds read better named.
	loText, hiText, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
	}

	lo, err = strconv.Atoi(loText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}

	hi, err = strconv.Atoi(hiText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}

	if lo > hi {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, raw)
	}

	return lo, hi, nil
}
