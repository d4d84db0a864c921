// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wsapi

import (
	"encoding/json"

	"github.com/db47h/chipsim"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxMessageSize = 4096

// session is a single client connection. All writes happen on the read
// goroutine: circuit changes are propagated synchronously from the request
// that caused them.
type session struct {
	s    *Server
	conn *websocket.Conn
	log  logrus.FieldLogger
	c    *chipsim.Circuit
	werr error // first write error
}

func (ss *session) run() {
	defer ss.conn.Close()
	defer ss.release()
	ss.conn.SetReadLimit(maxMessageSize)
	ss.log.Info("wsapi: session open")
	for ss.werr == nil {
		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ss.log.WithError(err).Warn("wsapi: read")
			}
			break
		}
		var req Request
		if err = json.Unmarshal(data, &req); err != nil {
			ss.fail(errors.Wrap(err, "bad request"))
			continue
		}
		ss.handle(&req)
	}
	if ss.werr != nil {
		ss.log.WithError(ss.werr).Warn("wsapi: write")
	}
	ss.log.Info("wsapi: session closed")
}

func (ss *session) handle(req *Request) {
	switch req.Op {
	case "build":
		ss.build(req.Name)
	case "set":
		if ss.c == nil {
			ss.fail(errors.New("no circuit"))
			return
		}
		if err := ss.c.SetInput(req.Port, req.Value); err != nil {
			ss.fail(err)
			return
		}
		ss.s.m.inputs.Inc()
	case "get":
		if ss.c == nil {
			ss.fail(errors.New("no circuit"))
			return
		}
		v, err := ss.c.Value(req.Port)
		if err != nil {
			ss.fail(err)
			return
		}
		ss.send(&Message{Type: TypeValue, Port: req.Port, Value: &v})
	case "list":
		var names []string
		for _, d := range ss.s.cat.List() {
			names = append(names, d.Name)
		}
		ss.send(&Message{Type: TypeDefs, Names: names})
	default:
		ss.fail(errors.Errorf("unknown op %q", req.Op))
	}
}

// build replaces the session circuit. The previous circuit is kept if the
// build fails.
func (ss *session) build(name string) {
	c, err := chipsim.BuildNamed(ss.s.cat.Snapshot(), name)
	if err != nil {
		ss.s.m.builds.WithLabelValues("error").Inc()
		ss.log.WithError(err).WithField("name", name).Debug("wsapi: build failed")
		ss.fail(err)
		return
	}
	ss.s.m.builds.WithLabelValues("ok").Inc()
	ss.s.m.nands.Observe(float64(c.Stats().Nands))
	ss.release()
	ss.c = c
	ss.log.WithFields(logrus.Fields{"name": name, "nands": c.Stats().Nands}).Debug("wsapi: circuit built")

	ss.send(&Message{Type: TypeBuilt, Name: name, Inputs: c.Inputs(), Outputs: c.Outputs()})
	for _, id := range c.Outputs() {
		id := id
		// cannot fail: id is a known output
		_, _ = c.Subscribe(id, func(v bool) {
			ss.send(&Message{Type: TypeValue, Port: id, Value: &v})
		})
	}
}

func (ss *session) release() {
	if ss.c != nil {
		ss.c.Close()
		ss.c = nil
	}
}

func (ss *session) fail(err error) {
	ss.send(&Message{Type: TypeError, Error: err.Error()})
}

func (ss *session) send(m *Message) {
	if ss.werr != nil {
		return
	}
	ss.werr = ss.conn.WriteJSON(m)
}
