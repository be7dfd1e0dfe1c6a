// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package validate

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// CountWords returns the number of whitespace-separated words in text after
// removing anything that looks like an HTML tag. Tags are removed without
// inserting a separator, so "<p>a</p><p>b</p>" counts as one word. Entities
// such as &nbsp; are not decoded.
func CountWords(text string) int {
	stripped := tagPattern.ReplaceAllString(text, "")
	return len(strings.Fields(stripped))
}
