// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/session"
)

// =============================================================================
// SUBSCRIPTION MESSAGES
// =============================================================================

// conversationEventMsg carries a manager or registry change.
type conversationEventMsg struct {
	event conversation.Event
}

// sessionChangedMsg carries a session store change.
type sessionChangedMsg struct {
	change session.Change
}

// sessionExpiredMsg is sent by the transport hook after a 401 teardown.
type sessionExpiredMsg struct{}

// adminChangedMsg signals that the admin panel state changed.
type adminChangedMsg struct{}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// authResultMsg is the outcome of a login or registration.
type authResultMsg struct {
	register bool
	err      error
}

// sendDoneMsg is the outcome of Manager.Send.
type sendDoneMsg struct {
	question string
	result   conversation.SendResult
	err      error
}

// opKind names a manager operation for opDoneMsg.
type opKind int

const (
	opLoad opKind = iota
	opRestart
	opDelete
	opRefresh
	opStats
	opAdmin
	opLogout
)

// opDoneMsg is the outcome of an operation whose effects arrive through
// subscriptions; only the error matters here.
type opDoneMsg struct {
	op  opKind
	err error
}

// detailsMsg carries the details of one message.
type detailsMsg struct {
	details *model.MessageDetails
	err     error
}

// clipboardMsg is the outcome of copying a query.
type clipboardMsg struct {
	err error
}
