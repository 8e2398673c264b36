// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	timeFormat        = "2006-01-02T15:04:05-0700"
	termTimeFormat    = "01-02|15:04:05.000"
	termMsgJust       = 40
	levelMaxVerbosity = LevelTrace
)

const (
	colorRed     = 31
	colorGreen   = 32
	colorYellow  = 33
	colorCyan    = 36
	colorMagenta = 35
)

func (h *TerminalHandler) format(buf []byte, r slog.Record, usecolor bool) []byte {
	msg := escapeMessage(r.Message)
	var color = 0
	if usecolor {
		switch r.Level {
		case LevelCrit:
			color = colorMagenta
		case slog.LevelError:
			color = colorRed
		case slog.LevelWarn:
			color = colorYellow
		case slog.LevelInfo:
			color = colorGreen
		case slog.LevelDebug:
			color = colorCyan
		}
	}
	b := bytes.NewBuffer(buf)

	lvl := LevelAlignedString(r.Level)
	if color > 0 {
		fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m[", color, lvl)
	} else {
		b.WriteString(lvl)
		b.WriteString("[")
	}
	b.WriteString(r.Time.Format(termTimeFormat))
	b.WriteString("] ")
	b.WriteString(msg)

	// try to justify the log output for short messages
	if r.NumAttrs()+len(h.attrs) > 0 && len(msg) < termMsgJust {
		b.Write(bytes.Repeat([]byte{' '}, termMsgJust-len(msg)))
	}

	for _, attr := range h.attrs {
		writeAttr(b, attr, color)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(b, attr, color)
		return true
	})
	b.WriteByte('\n')
	return b.Bytes()
}

func writeAttr(b *bytes.Buffer, attr slog.Attr, color int) {
	b.WriteByte(' ')
	if color > 0 {
		fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m=", color, attr.Key)
	} else {
		b.WriteString(attr.Key)
		b.WriteByte('=')
	}
	b.WriteString(escapeString(formatValue(attr.Value)))
}

func formatValue(value slog.Value) string {
	value = replaceValue(value.Resolve(), true)
	switch value.Kind() {
	case slog.KindString:
		return value.String()
	case slog.KindInt64:
		return strconv.FormatInt(value.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(value.Uint64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(value.Bool())
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().Format(timeFormat)
	}
	switch v := value.Any().(type) {
	case error:
		return v.Error()
	case []byte:
		return fmt.Sprintf("%x", v)
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%+v", value.Any())
}

// escapeString quotes values containing whitespace, quotes or '=' so that
// terminal output stays parseable as key=value pairs.
func escapeString(s string) string {
	if s == "" {
		return `""`
	}
	needsQuoting := false
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r == utf8.RuneError {
			needsQuoting = true
			break
		}
	}
	if !needsQuoting {
		return s
	}
	return strconv.Quote(s)
}

// escapeMessage keeps the message on a single line.
func escapeMessage(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(s)
}
