// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chipsim

// A Signal is a live boolean value with change notification. This is the unit
// of propagation in a circuit: wires and gates subscribe to the signals that
// drive them.
//
// The zero value is a false signal with no subscribers. Signals are not safe
// for concurrent use.
//
type Signal struct {
	v    bool
	subs []*subscription
	// number of cancelled subscriptions still in subs
	dead int
}

type subscription struct {
	fn        func(bool)
	cancelled bool
}

// NewSignal returns a new signal with the given initial value.
//
func NewSignal(v bool) *Signal {
	return &Signal{v: v}
}

// Get returns the current value of s.
//
func (s *Signal) Get() bool {
	return s.v
}

// Set sets the value of s. If v differs from the current value, all subscribers
// are notified synchronously, in subscription order, before Set returns.
//
func (s *Signal) Set(v bool) {
	if s.v == v {
		return
	}
	s.v = v
	// subscribers added during notification only see later changes.
	subs := s.subs
	for _, sub := range subs {
		if !sub.cancelled {
			sub.fn(v)
		}
	}
	s.compact()
}

// Subscribe registers fn to be called on every change of s. It does not call
// fn with the current value. The returned function cancels the subscription;
// it may be called more than once, including from within fn.
//
func (s *Signal) Subscribe(fn func(bool)) (cancel func()) {
	sub := &subscription{fn: fn}
	s.subs = append(s.subs, sub)
	return func() {
		if sub.cancelled {
			return
		}
		sub.cancelled = true
		s.dead++
		s.compact()
	}
}

// Subscribers returns the number of active subscriptions.
//
func (s *Signal) Subscribers() int {
	return len(s.subs) - s.dead
}

// compact drops cancelled subscriptions once they make up half of the list.
func (s *Signal) compact() {
	if s.dead == 0 || s.dead*2 < len(s.subs) {
		return
	}
	subs := make([]*subscription, 0, len(s.subs)-s.dead)
	for _, sub := range s.subs {
		if !sub.cancelled {
			subs = append(subs, sub)
		}
	}
	s.subs = subs
	s.dead = 0
}
