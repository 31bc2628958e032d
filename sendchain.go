package sendchain

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Conn is the per-connection state SendChain reads and updates.
type Conn struct {
	// FD is the socket handed to the Transport.
	FD int
	// Ready says the socket is believed to be writable. SendChain does nothing while it's false
	// and clears it when the socket stops accepting data. Setting it again is up to the caller.
	Ready bool
	// Sent counts the bytes transmitted over the lifetime of the connection.
	Sent int64
	// Postponed is set once content postponement has been enabled on the socket. SendChain never
	// clears it; whoever turns postponement off again must reset it.
	Postponed bool
}

// Writer drains chains onto sockets through a Transport.
type Writer struct {
	t   Transport
	cfg Config
	log logrus.FieldLogger
}

// NewWriter creates a Writer. Zero fields of cfg are filled with defaults.
func NewWriter(t Transport, cfg Config) *Writer {
	cfg = cfg.withDefaults()
	return &Writer{
		t:   t,
		cfg: cfg,
		log: cfg.Logger,
	}
}

// attempt holds everything built for one transmission call. Nothing in it outlives the call.
type attempt struct {
	header  [][]byte
	hsize   int64
	file    *fileRun
	trailer [][]byte
	tsize   int64
	// tail is the first position the attempt doesn't cover.
	tail int
}

func (a *attempt) offered() int64 {
	ret := a.hsize + a.tsize
	if a.file != nil {
		ret += a.file.size
	}
	return ret
}

// SendChain transmits as much of in as the socket accepts without blocking. It returns the unsent
// remainder of in, which is empty once everything was sent. A non-empty remainder comes with
// c.Ready cleared. When a primitive fails the returned error matches ErrFatal and wraps the
// underlying error; the remainder still reflects the bytes the primitive reported as sent.
func (w *Writer) SendChain(c *Conn, in Chain) (Chain, error) {
	if !c.Ready {
		return in, nil
	}
	pos := 0
	for {
		a := w.prepare(in, pos)
		op, sent, err := w.dispatch(c, a)
		var fe *FatalError
		if errors.As(err, &fe) {
			w.log.WithError(fe.Err).WithField("fd", c.FD).Errorf("%s() failed", fe.Op)
			return in[pos:], err
		}
		if sent < 0 {
			sent = 0
		}
		if sent > a.offered() {
			w.log.WithFields(logrus.Fields{"fd": c.FD, "sent": sent, "offered": a.offered()}).Errorf("%s() overreported", op)
			return in[pos:], &FatalError{Op: op, Err: ErrOverreported}
		}
		res := classify(err)
		next := consume(in, pos, sent)
		if res == outcomeFatal {
			w.log.WithError(err).WithFields(logrus.Fields{"fd": c.FD, "sent": sent}).Errorf("%s() failed", op)
			return in[next:], &FatalError{Op: op, Err: err}
		}
		c.Sent += sent
		w.log.WithFields(logrus.Fields{
			"fd":      c.FD,
			"offered": a.offered(),
			"sent":    sent,
			"outcome": res,
		}).Debugf("%s()", op)

		switch res {
		case outcomeWouldBlock:
			// The primitive may have sent a whole part before failing with EAGAIN. Retrying
			// would return EAGAIN right away, so wait for the socket to become writable.
			w.log.WithError(err).WithField("fd", c.FD).Infof("%s() sent only %d bytes", op, sent)
			c.Ready = false
			return in[next:], nil
		case outcomeInterrupted:
			w.log.WithError(err).WithField("fd", c.FD).Infof("%s() sent only %d bytes", op, sent)
			pos = next
			continue
		}

		// Everything the attempt covered went out, but the chain continues beyond it.
		if next < len(in) && next >= a.tail && (sent > 0 || next > pos) {
			pos = next
			continue
		}
		if next < len(in) {
			c.Ready = false
		}
		return in[next:], nil
	}
}

// prepare builds the header vector, the file run and the trailer vector for in[pos:].
func (w *Writer) prepare(in Chain, pos int) *attempt {
	a := &attempt{}
	a.header, a.hsize, pos = collectVectors(in, pos, make([][]byte, 0, 8), w.cfg.MaxVectors)
	a.file, pos = mergeFileRun(in, pos, w.cfg.MaxFileRun)
	if a.file != nil {
		a.trailer, a.tsize, pos = collectVectors(in, pos, make([][]byte, 0, 8), w.cfg.MaxVectors)
	}
	a.tail = pos
	return a
}

// dispatch makes exactly one transmission call for a. It returns the name of the primitive, the
// bytes it reported as sent and its error. Failing to enable postponement returns a *FatalError.
func (w *Writer) dispatch(c *Conn, a *attempt) (string, int64, error) {
	if a.file == nil {
		if len(a.header) == 0 {
			return "writev", 0, nil
		}
		n, err := w.t.WriteVectored(c.FD, a.header)
		return "writev", n, err
	}

	if w.cfg.UseContentPostponement && !c.Postponed {
		c.Postponed = true
		w.log.WithField("fd", c.FD).Debug("enabling content postponement")
		if err := w.t.EnableContentPostponement(c.FD); err != nil {
			return "postpone", 0, &FatalError{Op: "postpone", Err: err}
		}
	}

	length := a.file.size
	if !w.cfg.HeaderCountQuirk {
		length += a.hsize
	}
	n, err := w.t.SendZeroCopy(c.FD, a.file.file, a.file.off, length, a.header, a.trailer)
	w.log.WithFields(logrus.Fields{
		"fd":        c.FD,
		"offset":    a.file.off,
		"requested": length,
		"header":    a.hsize,
		"trailer":   a.tsize,
	}).Debug("sendfile request")
	return "sendfile", n, err
}
