package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/portalconnect/internal/connect"
	"github.com/GriffinCanCode/portalconnect/internal/infrastructure/logging"
)

// maxLineBytes bounds one captured message
const maxLineBytes = 1 << 20

// record is one output line
type record struct {
	Line    int           `json:"line"`
	Outcome string        `json:"outcome"`
	Event   connect.Event `json:"event,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// tally counts outcomes reported by the handler
type tally map[string]int

func (t tally) ObserveMessage(outcome string) { t[outcome]++ }

func main() {
	file := flag.String("file", "", "Read messages from file instead of stdin")
	quiet := flag.Bool("quiet", false, "Only print lines that produced an event")
	level := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	logger := logging.NewFromLevel(*level, false)
	defer func() { _ = logger.Sync() }()

	in := io.Reader(os.Stdin)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Fatal("Failed to open input", zap.String("file", *file), zap.Error(err))
		}
		defer f.Close()
		in = f
	}

	counts := tally{}
	handler := connect.NewHandler(logger.Logger, connect.WithObserver(counts))
	if err := replay(in, os.Stdout, handler, *quiet); err != nil {
		logger.Error("Replay failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Replay finished", zap.Any("outcomes", map[string]int(counts)))
}

// replay classifies every line of in and writes one JSON record per line to out.
// Lines that look like JSON are decoded as envelopes; anything else is taken
// as the raw message string.
func replay(in io.Reader, out io.Writer, handler *connect.Handler, quiet bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		rec := record{Line: n, Outcome: connect.OutcomeNone}

		var raw any = line
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "\"") {
			decoded, err := connect.DecodeEnvelope([]byte(trimmed))
			if err != nil {
				rec.Error = err.Error()
				raw = nil
			} else {
				raw = decoded
			}
		}

		if raw != nil {
			if ev, ok := handler.Handle(raw, connect.Callbacks{}); ok {
				rec.Event = ev
				rec.Outcome = ev.Kind().String()
			}
		}

		if quiet && rec.Event == nil {
			continue
		}
		data, err := sonic.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode line %d: %w", n, err)
		}
		if _, err := fmt.Fprintf(out, "%s\n", data); err != nil {
			return err
		}
	}
	return scanner.Err()
}
