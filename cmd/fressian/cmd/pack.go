package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rawbytedev/fressian"
	"github.com/rawbytedev/fressian/pkg/compactwire"
)

func newPackCmd(a *app) *cobra.Command {
	var chunk int
	c := &cobra.Command{
		Use:   "pack IN OUT",
		Short: "Split IN into footer-checked messages and write them as frames to OUT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chunk <= 0 {
				return errors.Errorf("--chunk must be positive, got %d", chunk)
			}
			in, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open input")
			}
			defer in.Close()
			out, err := os.Create(args[1])
			if err != nil {
				return errors.Wrap(err, "create output")
			}
			defer out.Close()

			bw := bufio.NewWriter(out)
			w, err := compactwire.NewWriter(bw, a.cfg.Stream, fressian.OutputOptions{}, compactwire.WithLogger(a.log))
			if err != nil {
				return err
			}
			defer w.Close()

			n, err := pack(w, in, chunk)
			if err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return errors.Wrap(err, "flush output")
			}
			a.log.WithField("stream", w.ID().String()).WithField("frames", w.Frames()).Info("packed")
			fmt.Fprintf(cmd.OutOrStdout(), "%d bytes in %d frames\n", n, w.Frames())
			return nil
		},
	}
	c.Flags().IntVar(&chunk, "chunk", 64<<10, "message payload size in bytes")
	return c
}

// pack writes r as a series of messages of at most chunk bytes.
func pack(w *compactwire.Writer, r io.Reader, chunk int) (int64, error) {
	buf := make([]byte, chunk)
	var total int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			payload := buf[:n]
			werr := w.WriteMessage(func(out *fressian.OutputStream) error {
				return out.WriteBytes(payload, 0, len(payload))
			})
			if werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		switch err {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			return total, nil
		default:
			return total, errors.Wrap(err, "read input")
		}
	}
}
