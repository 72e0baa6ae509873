package services

import (
	"sort"
	"strings"
)

// Narrative sentences are written with paired pronoun placeholders and
// rendered per MP once the gender is known. The token set is closed: one
// placeholder per grammatical case, in lower and title case.
type grammaticalCase int

const (
	caseSubject grammaticalCase = iota // he / she / they
	caseObject                         // him / her / them
	casePossessive                     // his / her / their
)

// Placeholder tokens used in narrative templates.
const (
	TokenSubject    = "he!she"
	TokenObject     = "him!her"
	TokenPossessive = "his!her"
)

type pronounToken struct {
	token string
	gcase grammaticalCase
	title bool
}

var pronounTokens = buildPronounTokens()

func buildPronounTokens() []pronounToken {
	base := []pronounToken{
		{TokenSubject, caseSubject, false},
		{TokenObject, caseObject, false},
		{TokenPossessive, casePossessive, false},
	}

	tokens := make([]pronounToken, 0, len(base)*2)
	for _, t := range base {
		tokens = append(tokens, t)
		tokens = append(tokens, pronounToken{titleToken(t.token), t.gcase, true})
	}

	// Longer tokens first, so no shorter token ever matches inside the
	// replacement span of a longer one.
	sort.SliceStable(tokens, func(i, j int) bool {
		return len(tokens[i].token) > len(tokens[j].token)
	})
	return tokens
}

// titleToken title-cases both halves of a paired token:
// "he!she" -> "He!She".
func titleToken(token string) string {
	parts := strings.SplitN(token, "!", 2)
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "!")
}

var pronounForms = map[string]map[grammaticalCase]string{
	"M": {caseSubject: "he", caseObject: "him", casePossessive: "his"},
	"F": {caseSubject: "she", caseObject: "her", casePossessive: "her"},
	// Any other gender code renders singular-they forms rather than
	// leaving placeholder tokens in published output.
	"": {caseSubject: "they", caseObject: "them", casePossessive: "their"},
}

// RenderPronouns substitutes every pronoun placeholder in text with the form
// matching the gender code (M or F; anything else gets they/them/their).
func RenderPronouns(text, gender string) string {
	forms, ok := pronounForms[gender]
	if !ok {
		forms = pronounForms[""]
	}

	for _, t := range pronounTokens {
		replacement := forms[t.gcase]
		if t.title {
			replacement = strings.ToUpper(replacement[:1]) + replacement[1:]
		}
		text = strings.ReplaceAll(text, t.token, replacement)
	}
	return text
}
