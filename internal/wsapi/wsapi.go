// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package wsapi serves circuit evaluation sessions over WebSockets.
//
// Each connection owns at most one circuit. Clients send JSON requests:
//
//	{"op": "build", "name": "MUX"}
//	{"op": "set", "port": "sel", "value": true}
//	{"op": "get", "port": "out"}
//	{"op": "list"}
//
// and receive JSON messages of type "built", "value", "defs" or "error". Once
// a circuit is built, a "value" message is pushed for every output change.
//
package wsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/db47h/chipsim"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Catalog is the definition store used by the server.
//
type Catalog interface {
	chipsim.Resolver
	Snapshot() chipsim.Definitions
	List() []*chipsim.Definition
}

// Request is a client request.
//
type Request struct {
	Op    string `json:"op"`
	Name  string `json:"name,omitempty"`
	Port  string `json:"port,omitempty"`
	Value bool   `json:"value,omitempty"`
}

// Message types.
//
const (
	TypeBuilt = "built"
	TypeValue = "value"
	TypeDefs  = "defs"
	TypeError = "error"
)

// Message is a server message.
//
type Message struct {
	Type    string   `json:"type"`
	Name    string   `json:"name,omitempty"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
	Port    string   `json:"port,omitempty"`
	Value   *bool    `json:"value,omitempty"`
	Names   []string `json:"names,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Server serves sessions and the accompanying HTTP endpoints.
//
type Server struct {
	cat      Catalog
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
	reg      *prometheus.Registry
	m        *metrics
}

// New returns a new server for the definitions in cat.
//
func New(cat Catalog, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		cat: cat,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		reg: reg,
		m:   newMetrics(reg),
	}
}

// Handler returns the HTTP handler of s:
//
//	/ws       WebSocket sessions
//	/defs     JSON list of all definitions, or ?name=NAME for a single one
//	/metrics  Prometheus metrics
//
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/defs", s.serveDefs)
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe serves s on addr until ctx is done.
//
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("wsapi: listening")
	select {
	case err := <-errc:
		return errors.Wrap(err, addr)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func (s *Server) serveDefs(w http.ResponseWriter, r *http.Request) {
	var v interface{}
	if name := r.URL.Query().Get("name"); name != "" {
		d, ok := s.cat.Lookup(name)
		if !ok {
			http.Error(w, "definition not found", http.StatusNotFound)
			return
		}
		v = d
	} else {
		v = s.cat.List()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("wsapi: write definitions")
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("wsapi: upgrade")
		return
	}
	ss := &session{
		s:    s,
		conn: conn,
		log:  s.log.WithFields(logrus.Fields{"session": uuid.NewString(), "remote": r.RemoteAddr}),
	}
	s.m.sessions.Inc()
	defer s.m.sessions.Dec()
	ss.run()
}
