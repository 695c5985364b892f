package observability

import (
	"strings"
	"testing"
)

type captureWriter struct {
	lines []string
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.lines = append(w.lines, string(p))
	return len(p), nil
}

func TestStdLoggerFormatsFields(t *testing.T) {
	buf := new(captureWriter)
	logger := NewStdLogger(buf, "relay ")

	logger.Info("order placed", F("pair", "BTC-USDC"), F("qty", "0.25"))

	if len(buf.lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(buf.lines))
	}
	line := buf.lines[0]
	if !strings.Contains(line, "INFO order placed") {
		t.Fatalf("missing level and message: %q", line)
	}
	if !strings.Contains(line, "pair=BTC-USDC") || !strings.Contains(line, "qty=0.25") {
		t.Fatalf("missing fields: %q", line)
	}
	if !strings.HasPrefix(line, "relay ") {
		t.Fatalf("missing prefix: %q", line)
	}
}

func TestSetLoggerNilRestoresNoop(t *testing.T) {
	buf := new(captureWriter)
	SetLogger(NewStdLogger(buf, ""))
	t.Cleanup(func() { SetLogger(nil) })

	Log().Info("visible")
	SetLogger(nil)
	Log().Info("dropped")

	if len(buf.lines) != 1 {
		t.Fatalf("expected only the first line to be captured, got %d", len(buf.lines))
	}
}

func TestSetMetricsNilRestoresNoop(t *testing.T) {
	SetMetrics(nil)
	// noop metrics must accept any call without panicking
	Telemetry().IncCounter(MetricSignalsReceived, 1, map[string]string{"action": "BUY"})
	Telemetry().ObserveHistogram(MetricWebhookDuration, 0.5, nil)
	Telemetry().SetGauge("relay.test", 1, nil)
}
