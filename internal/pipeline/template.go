package pipeline

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {{KEY}} placeholders. The inner group captures
// the key between delimiters; non-greedy so adjacent placeholders don't merge.
var placeholderPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Expand replaces every {{KEY}} placeholder in template with values[KEY].
// Keys absent from values expand to the empty string; this is deliberate so
// a script like `WINEPREFIX={{PREFIX}}` degrades to an unset assignment
// instead of leaking literal braces into the shell. Whitespace around the
// key is tolerated. Expand never fails.
//
// Expand is not safe to re-apply when a substituted value itself contains
// literal {{...}} text; callers expand each template exactly once.
func Expand(template string, values map[string]string) string {
	if !strings.Contains(template, "{{") {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		if key == "" {
			return ""
		}
		return values[key]
	})
}
