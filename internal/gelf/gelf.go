// Package gelf ships log entries to a Graylog input as GELF 1.1 over UDP.
package gelf

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// syslog severities by zap level name
var levels = map[string]int{
	"debug":  7,
	"info":   6,
	"warn":   4,
	"error":  3,
	"dpanic": 2,
	"panic":  2,
	"fatal":  2,
}

// Writer sends GELF messages over UDP. It accepts the JSON lines written by
// zap's JSON encoder, one entry per Write, and implements zapcore.WriteSyncer.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Write converts one encoded entry and sends it. Delivery is fire-and-forget;
// a log call never fails because the collector is unreachable.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(p))
	if err != nil {
		return len(p), nil
	}
	w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Sync() error { return nil }

func (w *Writer) Close() error { return w.conn.Close() }

// message maps a zap JSON entry onto GELF. Input that is not a JSON object
// is sent verbatim as the short message.
func (w *Writer) message(p []byte) map[string]any {
	msg := map[string]any{
		"version":   "1.1",
		"host":      w.hostname,
		"timestamp": float64(time.Now().UnixNano()) / 1e9,
		"level":     6,
		"_service":  w.service,
	}

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		msg["short_message"] = strings.TrimRight(string(p), "\n")
		return msg
	}

	short, _ := entry["msg"].(string)
	if short == "" {
		short = "-"
	}
	msg["short_message"] = short
	if lvl, ok := entry["level"].(string); ok {
		if n, ok := levels[lvl]; ok {
			msg["level"] = n
		}
	}
	if ts, ok := entry["ts"].(float64); ok {
		msg["timestamp"] = ts
	}
	for k, v := range entry {
		switch k {
		case "msg", "level", "ts":
			continue
		case "id":
			// "_id" is reserved by GELF
			k = "id_"
		}
		msg["_"+k] = additional(v)
	}
	return msg
}

// additional flattens a value to the string or number GELF allows.
func additional(v any) any {
	switch t := v.(type) {
	case string, float64:
		return t
	case bool:
		return fmt.Sprint(t)
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
