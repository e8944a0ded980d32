package pipeline

import "strings"

// SplitStatements breaks an expanded script into discrete statements on
// `;` and newline separators so the runner can execute and classify each
// one individually. Separators inside single or double quotes are left
// alone, as are backslash-escaped characters. Empty statements are dropped.
func SplitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inSingle   bool
		inDouble   bool
		escaped    bool
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, r := range script {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if !inSingle {
				escaped = true
			}
			current.WriteRune(r)
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
			current.WriteRune(r)
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
			current.WriteRune(r)
		case ';', '\n':
			if inSingle || inDouble {
				current.WriteRune(r)
			} else {
				flush()
			}
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return statements
}
