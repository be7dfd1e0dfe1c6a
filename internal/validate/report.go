// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package validate

import (
	"strings"

	"golang.org/x/text/language"
)

// Report formats a result as a multi-line summary in lang. A result with no
// issues yields the single "all passed" line.
func Report(r Result, lang language.Tag) string {
	p := printer(lang)
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		return p.Sprintf(msgReportAllPassed)
	}

	var b strings.Builder
	b.WriteString(p.Sprintf(msgReportSummary, len(r.Errors), len(r.Warnings)))
	b.WriteString("\n")
	if len(r.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(p.Sprintf(msgReportErrorsTitle))
		b.WriteString("\n")
		for _, i := range r.Errors {
			b.WriteString("  - ")
			b.WriteString(i.render(p))
			b.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(p.Sprintf(msgReportWarningsTitle))
		b.WriteString("\n")
		for _, i := range r.Warnings {
			b.WriteString("  - ")
			b.WriteString(i.render(p))
			b.WriteString("\n")
		}
	}
	return b.String()
}
