package template

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleFields() Fields {
	return Fields{
		"first_name": "Alice",
		"last_name":  "Smith",
		"company":    "Acme Ltd",
		"title":      "CTO",
		"email":      "alice@example.com",
		"phone":      "01518999001",
	}
}

func TestRenderKnownTokens(t *testing.T) {
	out := Render("Hi {firstName} {lastName} from {company}, is {email} still yours?", sampleFields())
	assert.Equal(t, "Hi Alice Smith from Acme Ltd, is alice@example.com still yours?", out)
}

func TestRenderNameJoinsFirstAndLast(t *testing.T) {
	assert.Equal(t, "Hi Alice Smith", Render("Hi {name}", sampleFields()))
}

func TestRenderNameFallsBackToNameField(t *testing.T) {
	out := Render("Hi {name}", Fields{"name": "A. Smith"})
	assert.Equal(t, "Hi A. Smith", out)
}

func TestRenderCaseInsensitiveTokens(t *testing.T) {
	fields := sampleFields()
	assert.Equal(t, "Alice Alice Alice", Render("{firstName} {FirstName} {FIRSTNAME}", fields))
	assert.Equal(t, "Smith", Render("{lastname}", fields))
}

func TestRenderEmptyCandidateBecomesEmptyString(t *testing.T) {
	out := Render("Hello {firstName}, greetings from {company}!", Fields{"first_name": "Bob"})
	assert.Equal(t, "Hello Bob, greetings from !", out)
}

func TestRenderStripsUnknownTokens(t *testing.T) {
	out := Render("Hi {firstName}, your code is {discount_code}.", sampleFields())
	assert.Equal(t, "Hi Alice, your code is .", out)
}

func TestRenderLeavesNoPlaceholdersBehind(t *testing.T) {
	leftover := regexp.MustCompile(`\{[\w]+\}`)
	templates := []string{
		"Hi {name} {firstName} {lastName}",
		"{unknown} {also_unknown} text",
		"{company}{title}{email}{phone}",
		"no tokens at all",
	}
	for _, tmpl := range templates {
		out := Render(tmpl, Fields{})
		assert.False(t, leftover.MatchString(out), "template %q rendered to %q", tmpl, out)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	fields := sampleFields()
	tmpl := "Hi {name}, {company} + {unknown}"
	assert.Equal(t, Render(tmpl, fields), Render(tmpl, fields))
}

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, HasPlaceholders("Hi {firstName}"))
	assert.True(t, HasPlaceholders("Hi {anything_at_all}"))
	assert.False(t, HasPlaceholders("Flash sale ends tonight"))
	assert.False(t, HasPlaceholders("braces but {not a token}"))
}
