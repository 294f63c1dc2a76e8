// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(level LogLevel, format LogFormat) (*DefaultLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions(LoggerOptions{
		Level:  level,
		Format: format,
		Output: &buf,
	})
	return l, &buf
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"silent", LevelSilent},
		{"off", LevelSilent},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLogFormat(t *testing.T) {
	if got := ParseLogFormat("JSON"); got != FormatJSON {
		t.Errorf("ParseLogFormat(JSON) = %v", got)
	}
	if got := ParseLogFormat("yaml"); got != FormatText {
		t.Errorf("ParseLogFormat(yaml) = %v, want text", got)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LevelWarn, FormatText)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Errorln("error 4")

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below warn were written: %q", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Errorf("expected warn and error output, got %q", out)
	}
}

func TestSilentWritesNothing(t *testing.T) {
	l, buf := newBufferLogger(LevelSilent, FormatText)
	l.Errorln("nope")
	if buf.Len() != 0 {
		t.Errorf("silent logger wrote %q", buf.String())
	}
	if l.IsLevelEnabled(LevelError) {
		t.Error("IsLevelEnabled(error) = true for silent logger")
	}
}

func TestTextFieldsAreSorted(t *testing.T) {
	l, buf := newBufferLogger(LevelInfo, FormatText)

	l.WithFields(map[string]interface{}{
		"zeta":   1,
		"alpha":  "a",
		"middle": true,
	}).Infoln("started")

	want := "started {alpha=a, middle=true, zeta=1}\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferLogger(LevelInfo, FormatText)

	child := l.WithField("run_id", "abc")
	l.Infoln("parent")
	child.Infoln("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "parent" {
		t.Errorf("parent line = %q", lines[0])
	}
	if lines[1] != "child {run_id=abc}" {
		t.Errorf("child line = %q", lines[1])
	}
	if child.GetLevel() != LevelInfo {
		t.Errorf("child level = %v", child.GetLevel())
	}
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(LevelDebug, FormatJSON)

	l.WithField("attempts", 42).Debug("progress %s", "tick")

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if got["level"] != "debug" {
		t.Errorf("level = %v", got["level"])
	}
	if got["message"] != "progress tick" {
		t.Errorf("message = %v", got["message"])
	}
	fields, ok := got["fields"].(map[string]interface{})
	if !ok || fields["attempts"] != float64(42) {
		t.Errorf("fields = %v", got["fields"])
	}
	if got["timestamp"] == "" {
		t.Error("timestamp missing")
	}
}

func TestTextFormatterLevelPrefix(t *testing.T) {
	f := &TextFormatter{ShowLevel: true}
	data, err := f.Format(LogEntry{Level: LevelWarn, Message: "careful"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[WARN] careful\n" {
		t.Errorf("got %q", data)
	}
}

func TestEnsureLogger(t *testing.T) {
	if EnsureLogger(nil) == nil {
		t.Fatal("EnsureLogger(nil) returned nil")
	}
	d := Discard()
	if EnsureLogger(d) != d {
		t.Error("EnsureLogger replaced a non-nil logger")
	}
	if d.GetLevel() != LevelSilent {
		t.Errorf("Discard level = %v", d.GetLevel())
	}
}
