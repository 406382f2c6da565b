// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the statchat packages.
//
// # Key Functions
//
// String Utilities:
//   - PrefixRunes: UTF-8 safe prefix of at most n runes
//   - TruncateWidth: display-width truncation for terminal cells
//   - NormalizeText: NFC normalization and trimming of user input
//
// Formatting:
//   - FormatCount: locale-aware integer grouping (es-CL by default)
//   - RelativeDay: "Hoy", "Ayer", "Hace N días" style dates
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.PrefixRunes(question, 50)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
