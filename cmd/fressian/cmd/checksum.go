package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rawbytedev/fressian/pkg/checksum"
)

func newChecksumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checksum FILE...",
		Short: "Print the Adler-32 checksum of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := checksum.NewAdler32()
			for _, name := range args {
				d.Reset()
				n, err := copyFile(d, name)
				if err != nil {
					return err
				}
				a.log.WithField("file", name).WithField("bytes", n).Debug("checksummed")
				fmt.Fprintf(cmd.OutOrStdout(), "%08x  %s\n", d.Sum32(), name)
			}
			return nil
		},
	}
}

func copyFile(w io.Writer, name string) (int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, errors.Wrap(err, "open input")
	}
	defer f.Close()
	n, err := io.Copy(w, f)
	return n, errors.Wrapf(err, "read %s", name)
}
