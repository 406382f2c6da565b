// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package admin holds the state behind the administration surface:
// excluded terms, the prompt configuration and the dataset statistics.
//
// The backend stores everything; this package loads, validates and reports
// outcomes as notices the UI and CLI can show as is.
package admin
