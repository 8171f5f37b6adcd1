// Package splitter breaks long answer text into bounded-size chunks that
// render coherently when posted as a sequence of messages.
package splitter

import "strings"

// Split divides text into chunks of at most limit bytes. It prefers
// paragraph boundaries (blank lines), falling back to line and then word
// boundaries when a unit alone exceeds the limit. A final pass force-slices
// anything still over the limit (a single word longer than the limit), so
// every returned chunk is guaranteed to fit.
//
// Text that already fits is returned as a single-element slice; in
// particular Split("", limit) returns [""]. A limit <= 0 disables splitting.
func Split(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	w := chunkWriter{limit: limit}

	for _, para := range strings.Split(text, "\n\n") {
		if len(para) <= limit {
			w.add(para, "\n\n")
			continue
		}
		// Paragraph too big: start a fresh chunk and descend to lines.
		w.flush()
		for _, line := range strings.Split(para, "\n") {
			if len(line) <= limit {
				w.add(line, "\n")
				continue
			}
			// Line too big: descend to words.
			w.flush()
			for _, word := range strings.Split(line, " ") {
				w.add(word, " ")
			}
		}
	}
	w.flush()

	return forceSlice(w.chunks, limit)
}

// chunkWriter accumulates units into a running buffer, emitting a chunk the
// moment the next unit (plus its separator) would overflow the limit.
type chunkWriter struct {
	limit  int
	chunks []string
	buf    strings.Builder
}

// add appends one unit, joined with sep when the buffer already has content.
// A unit that does not fit flushes the buffer and starts the next chunk.
func (w *chunkWriter) add(unit, sep string) {
	if w.buf.Len() == 0 {
		w.buf.WriteString(unit)
		return
	}
	if w.buf.Len()+len(sep)+len(unit) <= w.limit {
		w.buf.WriteString(sep)
		w.buf.WriteString(unit)
		return
	}
	w.flush()
	w.buf.WriteString(unit)
}

func (w *chunkWriter) flush() {
	if w.buf.Len() > 0 {
		w.chunks = append(w.chunks, w.buf.String())
		w.buf.Reset()
	}
}

// forceSlice cuts any chunk still over the limit into fixed-size pieces.
// Only single words longer than the limit reach this point.
func forceSlice(chunks []string, limit int) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(c) <= limit {
			out = append(out, c)
			continue
		}
		for start := 0; start < len(c); start += limit {
			end := start + limit
			if end > len(c) {
				end = len(c)
			}
			out = append(out, c[start:end])
		}
	}
	return out
}
