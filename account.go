package sendchain

// consume attributes sent bytes to the buffers of in starting at pos, in chain order, advancing their
// cursors. Buffers with nothing left to send (markers included) never stop the walk. It returns the
// position of the first buffer that still has unsent bytes, or len(in) if the chain is drained.
// Callers make sure sent doesn't exceed what in[pos:] holds.
func consume(in Chain, pos int, sent int64) int {
	for ; pos < len(in); pos++ {
		b := in[pos]
		size := b.Size()
		if size == 0 {
			continue
		}
		if sent == 0 {
			break
		}
		if size <= sent {
			b.advance(size)
			sent -= size
			continue
		}
		b.advance(sent)
		break
	}
	return pos
}
