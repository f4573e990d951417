package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/motherai/internal/telemetry"
)

const dataPrefix = "data: "

// ErrFrameParse marks a data line whose payload is not a JSON frame.
var ErrFrameParse = errors.New("stream frame parse error")

// Frame is the JSON payload of one data line.
type Frame struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Decoder splits an event stream body into frames. Lines are reassembled
// across reads, so chunk boundaries never affect the result.
type Decoder struct {
	r       *bufio.Reader
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewDecoder(r io.Reader, logger *slog.Logger, metrics *telemetry.Metrics) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{r: bufio.NewReader(r), logger: logger, metrics: metrics}
}

// Next returns the next well-formed frame. Blank lines, comments and other
// fields are ignored and malformed payloads are logged and skipped. io.EOF is
// returned once the body ends.
func (d *Decoder) Next() (Frame, error) {
	for {
		line, err := d.r.ReadString('\n')
		if line != "" {
			if frame, ok := d.parse(line); ok {
				return frame, nil
			}
		}
		if err != nil {
			return Frame{}, err
		}
	}
}

func (d *Decoder) parse(line string) (Frame, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, dataPrefix) {
		return Frame{}, false
	}

	payload := line[len(dataPrefix):]
	var frame Frame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		d.metrics.StreamParseError()
		d.logger.Warn("skipping malformed stream frame",
			"error", errors.Join(ErrFrameParse, err),
			"payload", truncate(payload, 200),
		)
		return Frame{}, false
	}
	d.metrics.StreamFrame(frame.Type)
	return frame, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
