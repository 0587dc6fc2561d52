// internal/template/template.go
package template

import (
	"regexp"
	"strings"
)

// Fields is a recipient's attribute set keyed by snake_case field name.
type Fields map[string]string

// tokenRule maps one {token} to an ordered list of candidate fields;
// the first non-empty candidate wins.
type tokenRule struct {
	re         *regexp.Regexp
	candidates []string
}

var tokenRules = []tokenRule{
	{regexp.MustCompile(`(?i)\{firstName\}`), []string{"first_name"}},
	{regexp.MustCompile(`(?i)\{lastName\}`), []string{"last_name"}},
	{regexp.MustCompile(`(?i)\{company\}`), []string{"company"}},
	{regexp.MustCompile(`(?i)\{title\}`), []string{"title"}},
	{regexp.MustCompile(`(?i)\{email\}`), []string{"email"}},
	{regexp.MustCompile(`(?i)\{phone\}`), []string{"phone"}},
}

var (
	nameToken  = regexp.MustCompile(`(?i)\{name\}`)
	anyToken   = regexp.MustCompile(`\{[\w]+\}`)
)

// Render substitutes the known personalization tokens into tmpl and deletes
// any remaining {word}-shaped placeholder so unknown tokens never leak into
// the final message. Pure: identical inputs yield identical output.
func Render(tmpl string, fields Fields) string {
	result := nameToken.ReplaceAllLiteralString(tmpl, FullName(fields))
	for _, rule := range tokenRules {
		value := ""
		for _, key := range rule.candidates {
			if v := strings.TrimSpace(fields[key]); v != "" {
				value = v
				break
			}
		}
		result = rule.re.ReplaceAllLiteralString(result, value)
	}
	return anyToken.ReplaceAllString(result, "")
}

// FullName joins first and last name; when both are absent it falls back to
// a bare "name" field.
func FullName(fields Fields) string {
	full := strings.TrimSpace(
		strings.TrimSpace(fields["first_name"]) + " " + strings.TrimSpace(fields["last_name"]),
	)
	if full == "" {
		full = strings.TrimSpace(fields["name"])
	}
	return full
}

// HasPlaceholders reports whether msg contains any {word}-shaped token.
// A placeholder-free SMS body is broadcast-eligible.
func HasPlaceholders(msg string) bool {
	return anyToken.MatchString(msg)
}
