package gelf

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().String()
}

func receive(t *testing.T, conn *net.UDPConn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 65535)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(buf[:n], &msg))
	return msg
}

func TestWriter_ZapEntry(t *testing.T) {
	conn, addr := listen(t)
	w, err := New(addr, "formcraft")
	require.NoError(t, err)
	defer w.Close()

	line := `{"level":"warn","ts":1718443800.5,"msg":"save draft failed","draft":"f1_u1","id":"x","attempt":2,"ok":false,"meta":{"a":1}}` + "\n"
	n, err := w.Write([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	msg := receive(t, conn)
	assert.Equal(t, "1.1", msg["version"])
	assert.Equal(t, "save draft failed", msg["short_message"])
	assert.Equal(t, float64(4), msg["level"])
	assert.Equal(t, 1718443800.5, msg["timestamp"])
	assert.Equal(t, "formcraft", msg["_service"])
	assert.Equal(t, "f1_u1", msg["_draft"])
	assert.Equal(t, "x", msg["_id_"])
	assert.Equal(t, float64(2), msg["_attempt"])
	assert.Equal(t, "false", msg["_ok"])
	assert.Equal(t, `{"a":1}`, msg["_meta"])
	assert.NotContains(t, msg, "_id")
}

func TestWriter_PlainText(t *testing.T) {
	conn, addr := listen(t)
	w, err := New(addr, "formcraft")
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("not json\n"))
	require.NoError(t, err)

	msg := receive(t, conn)
	assert.Equal(t, "not json", msg["short_message"])
	assert.Equal(t, float64(6), msg["level"])
}
