// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is the locale the dataset figures are presented in.
var DefaultLocale = language.MustParse("es-CL")

// FormatCount groups the digits of n for the given locale.
// FormatCount(1234567, DefaultLocale) returns "1.234.567".
func FormatCount(n int64, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%d", n)
}

// RelativeDay renders t relative to now the way the sidebar shows it:
// "Hoy", "Ayer", "Hace N días" for the last week, otherwise dd-mm-yyyy.
func RelativeDay(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	start := time.Date(y1, m1, d1, 0, 0, 0, 0, now.Location())
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, now.Location())
	days := int(today.Sub(start).Hours() / 24)

	switch {
	case days <= 0:
		return "Hoy"
	case days == 1:
		return "Ayer"
	case days < 7:
		return fmt.Sprintf("Hace %d días", days)
	default:
		return start.Format("02-01-2006")
	}
}
