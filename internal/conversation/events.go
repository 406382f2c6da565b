// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "sync"

// EventKind identifies what changed.
type EventKind int

const (
	// EventMessagesChanged: the message sequence changed.
	EventMessagesChanged EventKind = iota
	// EventConversationChanged: the active conversation changed.
	EventConversationChanged
	// EventBusyChanged: a send started or finished.
	EventBusyChanged
	// EventNotice: the user-visible notice was set or cleared.
	EventNotice
	// EventListChanged: the registry's conversation list changed.
	EventListChanged
)

// String returns the event name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventMessagesChanged:
		return "messages"
	case EventConversationChanged:
		return "conversation"
	case EventBusyChanged:
		return "busy"
	case EventNotice:
		return "notice"
	case EventListChanged:
		return "list"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after state changes. Subscribers read
// the new state through Snapshot or List.
type Event struct {
	Kind EventKind
}

// subscribers is a set of callbacks invoked outside the owner's lock.
type subscribers struct {
	mu   sync.Mutex
	fns  map[int]func(Event)
	next int
}

func (s *subscribers) add(fn func(Event)) func() {
	s.mu.Lock()
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) emit(kinds ...EventKind) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, k := range kinds {
		for _, fn := range fns {
			fn(Event{Kind: k})
		}
	}
}
