// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/session"
)

// bridgeBuffer bounds the events queued for the program.
const bridgeBuffer = 256

// bridge forwards service notifications to the program in order.
//
// Services notify synchronously, sometimes from inside Update (NewConversation
// is called there), and Program.Send blocks until the event loop reads the
// message. The queue keeps emitters from waiting on the loop.
type bridge struct {
	p  *tea.Program
	ch chan tea.Msg

	mu     sync.Mutex
	closed bool
}

func newBridge(p *tea.Program) *bridge {
	b := &bridge{p: p, ch: make(chan tea.Msg, bridgeBuffer)}
	go func() {
		for msg := range b.ch {
			p.Send(msg)
		}
	}()
	return b
}

// send queues msg. It is a no-op once the program has exited.
func (b *bridge) send(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- msg:
	default:
		// Queue full; deliver out of order rather than block the emitter.
		go b.p.Send(msg)
	}
}

func (b *bridge) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}

// Run starts the full-screen UI and blocks until the user quits or ctx is
// cancelled. client may be nil; when set, its session-expired hook routes
// the UI to the login screen.
func Run(ctx context.Context, deps Deps, client *api.Client) error {
	m := New(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	b := newBridge(p)
	unsubs := []func(){
		deps.Session.Subscribe(func(c session.Change) {
			b.send(sessionChangedMsg{change: c})
		}),
		deps.Manager.Subscribe(func(e conversation.Event) {
			b.send(conversationEventMsg{event: e})
		}),
		deps.Registry.Subscribe(func(e conversation.Event) {
			b.send(conversationEventMsg{event: e})
		}),
	}
	if deps.Panel != nil {
		deps.Panel.OnChange(func() { b.send(adminChangedMsg{}) })
	}
	if client != nil {
		client.OnSessionExpired(func() { b.send(sessionExpiredMsg{}) })
	}

	_, err := p.Run()

	for _, unsub := range unsubs {
		unsub()
	}
	if deps.Panel != nil {
		deps.Panel.OnChange(nil)
	}
	b.close()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
