package build

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ammo/internal/model"
)

const (
	scanBufferSize = 64 * 1024
	maxLineSize    = 1024 * 1024
)

// drain appends every line read from r to sink, in order, until r closes.
// A read error or a line that is not valid UTF-8 stops forwarding; the rest
// of the stream is discarded so the child never blocks on a full pipe.
func drain(r io.Reader, sink *model.LogSink, log *slog.Logger, stream string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scanBufferSize), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if !utf8.ValidString(line) {
			log.Warn("stopped forwarding build output", "stream", stream, "error", "invalid UTF-8")
			_, _ = io.Copy(io.Discard, r)
			return
		}
		sink.Append(strings.TrimSuffix(line, "\r"))
	}
	if err := scanner.Err(); err != nil {
		log.Warn("stopped forwarding build output", "stream", stream, "error", err)
		_, _ = io.Copy(io.Discard, r)
	}
}
