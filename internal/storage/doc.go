// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key-value store that holds the
// authenticated session across process restarts.
//
// Two backends are available:
//   - FileStore: a single JSON object written with util.AtomicWriteFile
//   - SQLiteStore: a kv table in a modernc.org/sqlite database
//
// Both make SetMany and Delete atomic: a reader in this or another process
// observes either all of a batch or none of it.
//
// Every statchat process on the machine shares the same store. Watcher
// reports changes made by other processes so the session can be re-checked.
package storage
