package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/schoolbot/core/config"
)

func emit(t *testing.T, format logFormat, ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	LogEvent(ctx, slog.New(handler).With("component", component), level, event, attrs...)
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := emit(t, formatKV, ctx, "app", slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	line := emit(t, formatJSON, ctx, "service.leads", slog.LevelError, "lead.upsert",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("err_code", "STORAGE_ERROR"),
	)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.leads"`, `"event":"lead.upsert"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	line := emit(t, formatKV, WithRID(Background(), rawRID), "app", slog.LevelInfo, "rid.test")
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}

	line = emit(t, formatJSON, WithRID(Background(), rawRID), "app", slog.LevelInfo, "rid.test")
	if !strings.Contains(line, `"rid":"3f.co.lx"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", line)
	}
}

func TestStructuredHandlerDurationsAndOutcome(t *testing.T) {
	line := emit(t, formatKV, Background(), "service.assistant", slog.LevelInfo, "answer",
		slog.Duration("duration", 1500*time.Millisecond),
		slog.String("outcome", "not_configured"),
		slog.String("kind", ""),
	)
	if !strings.Contains(line, "duration_ms=1500") {
		t.Fatalf("expected duration_ms, got %s", line)
	}
	if !strings.Contains(line, "outcome=not_configured") {
		t.Fatalf("expected outcome, got %s", line)
	}
	if strings.Contains(line, "kind=") {
		t.Fatalf("empty values must be pruned, got %s", line)
	}

	line = emit(t, formatKV, Background(), "app", slog.LevelInfo, "answer", slog.String("outcome", "whatever"))
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unknown outcome must be dropped, got %s", line)
	}
}

func TestStructuredHandlerBelowLevel(t *testing.T) {
	if line := emit(t, formatKV, Background(), "app", slog.LevelDebug, "noise"); line != "" {
		t.Fatalf("debug line leaked at info level: %s", line)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Allow())
	}
	want := []bool{true, false, false, true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allow #%d = %v, want %v", i, got[i], want[i])
		}
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"25":   {1, 25},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"":     {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		if num != want[0] || den != want[1] {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", spec, num, den, want[0], want[1])
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("Anna\x00\u200b Smith", 6); got != "Anna S" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID = %q", got)
	}
}

func TestResolveSettings(t *testing.T) {
	s := resolve(nil)
	if s.level != slog.LevelInfo || s.format != formatJSON || s.den != defaultSampleDen {
		t.Fatalf("nil config settings = %+v", s)
	}

	cfg := &coreconfig.Config{}
	cfg.Logging.Profile = "Dev"
	cfg.Logging.Level = "warning"
	cfg.Logging.KeysOrder = "event, level"
	cfg.Logging.DebugSample = "0"
	s = resolve(cfg)
	if s.level != slog.LevelWarn || s.format != formatKV || s.profile != "dev" {
		t.Fatalf("dev settings = %+v", s)
	}
	if strings.Join(s.keyOrder, ",") != "event,level" {
		t.Fatalf("key order = %v", s.keyOrder)
	}
	if s.num != 0 || s.den != 0 {
		t.Fatalf("sampling should be off, got %d/%d", s.num, s.den)
	}

	cfg.Logging.Format = "json"
	cfg.Logging.DebugSample = "bogus/1"
	s = resolve(cfg)
	if s.format != formatJSON {
		t.Fatalf("explicit json ignored: %+v", s)
	}
	if s.num != 0 || s.den != 0 {
		t.Fatalf("unparseable sample should disable sampling, got %d/%d", s.num, s.den)
	}
}
