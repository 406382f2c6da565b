// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the authenticated identity.
//
// The Store keeps the session in memory and mirrors it to durable storage
// under three keys (token, user_id, username) written and removed in one
// batch. It is the api.SessionSource for the transport: every request reads
// Token, and a 401 calls Expire.
//
// # Lifecycle
//
//	st := session.New(kv, client, session.Options{AdminUsername: "admin"})
//	client.WithSession(st)
//	st.CheckAuthStatus()             // rehydrate at startup
//	st.Watch(ctx, watcher)           // follow other processes
//	_, err := st.Login(ctx, session.Credentials{Username: u, Password: p})
//
// Subscribers are notified after every change, outside the store's lock.
package session
