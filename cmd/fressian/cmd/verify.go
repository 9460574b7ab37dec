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

func openFrames(a *app, name string) (*compactwire.Reader, io.Closer, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input")
	}
	r, err := compactwire.NewReader(bufio.NewReader(f), a.cfg.Stream, fressian.InputOptions{}, compactwire.WithLogger(a.log))
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f, nil
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE",
		Short: "Validate the footer of every frame in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, f, err := openFrames(a, args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			defer r.Close()

			for {
				err := r.ReadMessage(nil)
				if err == io.EOF {
					break
				}
				if err != nil {
					return errors.Wrapf(err, "frame %d", r.Frames()+1)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames ok\n", args[0], r.Frames())
			return nil
		},
	}
}

func newUnpackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpack IN OUT",
		Short: "Verify the frames in IN and write their payloads to OUT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, f, err := openFrames(a, args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			defer r.Close()

			out, err := os.Create(args[1])
			if err != nil {
				return errors.Wrap(err, "create output")
			}
			defer out.Close()
			bw := bufio.NewWriter(out)

			footer := fressian.FooterSize(a.cfg.Stream.Checksum)
			var total int
			for {
				// the payload is held back until ReadMessage has checked the footer
				var payload []byte
				err := r.ReadMessage(func(in *fressian.InputStream) error {
					n := in.Len() - footer
					if n < 0 {
						return compactwire.ErrTruncatedFrame
					}
					payload = make([]byte, n)
					return in.ReadBytes(payload, 0, n)
				})
				if err == io.EOF {
					break
				}
				if err != nil {
					// OUT keeps only the frames that verified
					if ferr := bw.Flush(); ferr != nil {
						a.log.WithError(ferr).Warn("flush after failed frame")
					}
					return errors.Wrapf(err, "frame %d", r.Frames()+1)
				}
				if _, err := bw.Write(payload); err != nil {
					return errors.Wrap(err, "write output")
				}
				total += len(payload)
			}
			if err := bw.Flush(); err != nil {
				return errors.Wrap(err, "flush output")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d bytes from %d frames\n", total, r.Frames())
			return nil
		},
	}
}
