package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meigma/spk"
)

// openArchive loads a package from a local path or an http(s) URL.
func (a *app) openArchive(ctx context.Context, src string) (*spk.Archive, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return spk.OpenFile(src, a.parseOptions()...)
	}
	data, err := a.fetcher(a.httpClient(nil)).Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return spk.Parse(data, a.parseOptions()...)
}

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <package> <path>",
		Short: "Write one file from a package to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.openArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, ok := archive.EntryData(args[1])
			if !ok {
				return fmt.Errorf("%s: %w", args[1], fs.ErrNotExist)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newInspectCmd(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "inspect <package>",
		Short: "Print package metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.openArchive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeInspect(cmd.OutOrStdout(), archive, list)
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list entries")
	return cmd
}

func writeInspect(w io.Writer, archive *spk.Archive, list bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "version:\t%d\n", archive.Version())
	fmt.Fprintf(tw, "entries:\t%d\n", archive.Len())
	fmt.Fprintf(tw, "size:\t%d\n", archive.Size())
	fmt.Fprintf(tw, "digest:\t%s\n", archive.Digest())
	if list {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "NAME\tOFFSET\tLENGTH\tCOMPRESSED")
		for e := range archive.Entries() {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", e.Name, e.DataOffset, e.DataLength, e.CompressedLength)
		}
	}
	return tw.Flush()
}
