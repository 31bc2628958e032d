//go:build linux || darwin || freebsd

// Command sendchain streams a header, one or more files and a trailer to a TCP address,
// using vectored writes and sendfile.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/Jille/sendchain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	addr      string
	headers   []string
	trailers  []string
	chunkSize int64
	blockSize int
	timeout   time.Duration
	logLevel  string
	cfg       sendchain.Config
}

func main() {
	opts := options{cfg: sendchain.DefaultConfig()}
	cmd := &cobra.Command{
		Use:          "sendchain [flags] FILE...",
		Short:        "Send header lines, files and trailer lines over TCP",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}
	addFlags(cmd.Flags(), &opts)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func addFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.addr, "addr", "a", "127.0.0.1:8080", "TCP address to send to")
	fs.StringArrayVarP(&o.headers, "header", "H", nil, "line to send before the files (repeatable)")
	fs.StringArrayVarP(&o.trailers, "trailer", "T", nil, "line to send after the files (repeatable)")
	fs.Int64Var(&o.chunkSize, "chunk-size", 0, "split each file into buffers of this many bytes (0 sends each file as one buffer)")
	fs.IntVar(&o.blockSize, "block-size", 4096, "size of the memory blocks that hold header and trailer lines")
	fs.DurationVar(&o.timeout, "timeout", time.Minute, "give up if sending takes longer than this")
	fs.StringVar(&o.logLevel, "log-level", "info", "logrus log level")
	fs.BoolVar(&o.cfg.UseContentPostponement, "postpone", o.cfg.UseContentPostponement, "enable TCP_CORK/TCP_NOPUSH before sending file content")
	fs.BoolVar(&o.cfg.HeaderCountQuirk, "header-count-quirk", o.cfg.HeaderCountQuirk, "leave header bytes out of the sendfile length")
	fs.IntVar(&o.cfg.MaxVectors, "max-vectors", o.cfg.MaxVectors, "maximum scatter-gather entries per vector")
	fs.Int64Var(&o.cfg.MaxFileRun, "max-file-run", o.cfg.MaxFileRun, "maximum file bytes per sendfile call (0 is unlimited)")
}

func run(ctx context.Context, o options, files []string) error {
	if o.blockSize <= 0 {
		return fmt.Errorf("--block-size must be positive, got %d", o.blockSize)
	}
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	log := logrus.New()
	log.SetLevel(level)
	o.cfg.Logger = log

	b := sendchain.NewPool(o.blockSize).Get()
	defer b.Reset()
	for _, h := range o.headers {
		fmt.Fprintf(b, "%s\r\n", h)
	}
	for _, fn := range files {
		f, err := os.Open(fn)
		if err != nil {
			return err
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			return err
		}
		addFile(b, f, st.Size(), o.chunkSize)
	}
	for _, t := range o.trailers {
		fmt.Fprintf(b, "%s\r\n", t)
	}
	b.Flush()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", o.addr)
	if err != nil {
		return err
	}
	defer nc.Close()

	w := sendchain.NewWriter(sendchain.NewSocketTransport(o.cfg), o.cfg)
	var c sendchain.Conn
	total := b.Len()
	start := time.Now()
	if _, err := w.WriteTo(ctx, nc, &c, b.Chain()); err != nil {
		log.WithError(err).WithField("sent", c.Sent).Error("sending failed")
		return err
	}
	log.WithFields(logrus.Fields{
		"addr":     o.addr,
		"bytes":    total,
		"sent":     c.Sent,
		"duration": time.Since(start),
	}).Info("chain sent")
	return nil
}

// addFile appends f to the chain as contiguous buffers of at most chunk bytes each.
func addFile(b *sendchain.Builder, f *os.File, size, chunk int64) {
	if chunk <= 0 {
		chunk = size
	}
	for off := int64(0); off < size; off += chunk {
		b.AddFile(f, off, min(off+chunk, size))
	}
}
