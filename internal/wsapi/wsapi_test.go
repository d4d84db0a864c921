package wsapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/db47h/chipsim"
	"github.com/db47h/chipsim/catalog"
	"github.com/db47h/chipsim/chiplib"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	ts := httptest.NewServer(New(catalog.New(chiplib.Builtins()), log).Handler())
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{t, conn}
}

func (c *client) send(req Request) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(&req))
}

func (c *client) recv() *Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m Message
	require.NoError(c.t, c.conn.ReadJSON(&m))
	return &m
}

// expect reads messages until port has value v. Intermediate values are
// allowed while a change propagates.
func (c *client) expect(port string, v bool) {
	c.t.Helper()
	for {
		m := c.recv()
		require.NotEqual(c.t, TypeError, m.Type, m.Error)
		if m.Type == TypeValue && m.Port == port && *m.Value == v {
			return
		}
	}
}

func TestSession(t *testing.T) {
	ts := newServer(t)
	c := dial(t, ts)

	c.send(Request{Op: "set", Port: "a", Value: true})
	m := c.recv()
	assert.Equal(t, TypeError, m.Type)

	c.send(Request{Op: "build", Name: "MUX"})
	m = c.recv()
	require.Equal(t, TypeBuilt, m.Type, m.Error)
	assert.Equal(t, []string{"a", "b", "sel"}, m.Inputs)
	assert.Equal(t, []string{"out"}, m.Outputs)
	c.expect("out", false)

	c.send(Request{Op: "set", Port: "a", Value: true})
	c.expect("out", true)
	c.send(Request{Op: "set", Port: "sel", Value: true})
	c.expect("out", false)
	c.send(Request{Op: "set", Port: "b", Value: true})
	c.expect("out", true)

	c.send(Request{Op: "get", Port: "sel"})
	m = c.recv()
	require.Equal(t, TypeValue, m.Type, m.Error)
	assert.True(t, *m.Value)

	c.send(Request{Op: "set", Port: "nope", Value: true})
	m = c.recv()
	assert.Equal(t, TypeError, m.Type)
	assert.Contains(t, m.Error, "nope")

	// a failed build keeps the current circuit
	c.send(Request{Op: "build", Name: "NOPE"})
	m = c.recv()
	assert.Equal(t, TypeError, m.Type)
	c.send(Request{Op: "get", Port: "out"})
	m = c.recv()
	require.Equal(t, TypeValue, m.Type, m.Error)
	assert.True(t, *m.Value)

	c.send(Request{Op: "list"})
	m = c.recv()
	require.Equal(t, TypeDefs, m.Type)
	assert.Contains(t, m.Names, "MUX")
	assert.Contains(t, m.Names, chipsim.Nand)

	c.send(Request{Op: "frobnicate"})
	assert.Equal(t, TypeError, c.recv().Type)
	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, TypeError, c.recv().Type)
}

func TestHTTP(t *testing.T) {
	ts := newServer(t)

	c := dial(t, ts)
	c.send(Request{Op: "build", Name: "XOR"})
	require.Equal(t, TypeBuilt, c.recv().Type)
	c.expect("out", false)

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `chipsim_ws_builds_total{result="ok"} 1`)
	assert.Contains(t, string(body), "chipsim_ws_sessions 1")

	res, err = http.Get(ts.URL + "/defs")
	require.NoError(t, err)
	var ds []*chipsim.Definition
	require.NoError(t, json.NewDecoder(res.Body).Decode(&ds))
	res.Body.Close()
	assert.Len(t, ds, len(chiplib.Builtins()))

	res, err = http.Get(ts.URL + "/defs?name=XOR")
	require.NoError(t, err)
	var d chipsim.Definition
	require.NoError(t, json.NewDecoder(res.Body).Decode(&d))
	res.Body.Close()
	assert.Equal(t, "XOR", d.Name)

	res, err = http.Get(ts.URL + "/defs?name=NOPE")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
