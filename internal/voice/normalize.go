package voice

import (
	"regexp"
	"strings"
)

// Normalized is the output of [Normalize]: the cleaned utterance text and
// the detected intent.
type Normalized struct {
	Text   string
	Action Action
}

// fillerPhrases are conversational fillers stripped before parsing. Matched
// on word boundaries, case-insensitively; multi-word phrases first so "oh
// wait" is removed as a unit rather than leaving a stray "wait".
var fillerPhrases = []string{
	"oh wait", "oh and", "wait a minute", "hold on",
	"let me", "i need to", "i want to", "i found",
	"um", "uh", "like", "you know",
}

var (
	fillerRes   []*regexp.Regexp
	articleRe   = regexp.MustCompile(`\b(a|an|the)\b`)
	addIntentRe = regexp.MustCompile(`\b(add|plus|also|another|found|more)\b`)
	toCountRe   = regexp.MustCompile(`\bto\s+(?:the\s+)?count\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

func init() {
	fillerRes = make([]*regexp.Regexp, len(fillerPhrases))
	for i, p := range fillerPhrases {
		fillerRes[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
	}
}

// Normalize lower-cases and trims a transcript, strips conversational
// fillers and articles, and detects the utterance intent: "add" when any of
// the add keywords (add, plus, also, another, found, more) appears as a
// standalone word, otherwise "set".
//
// Normalize never fails; when no pattern matches, the text passes through
// unchanged apart from case folding and whitespace collapsing.
func Normalize(transcript string) Normalized {
	text := strings.ToLower(strings.TrimSpace(transcript))

	for _, re := range fillerRes {
		text = re.ReplaceAllString(text, "")
	}
	text = articleRe.ReplaceAllString(text, "")

	action := ActionSet
	if addIntentRe.MatchString(text) {
		action = ActionAdd
	}

	// Strip after intent detection so "add two tubs to the count" keeps its
	// intent but "count" never leaks into flavor text.
	text = toCountRe.ReplaceAllString(text, "")

	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	return Normalized{Text: text, Action: action}
}
