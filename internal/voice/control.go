package voice

import "regexp"

// Command is a control action spoken instead of an inventory entry.
// Control commands are checked against each final transcript before any
// parsing happens.
type Command int

const (
	// CommandNone means the transcript is not a control command and should
	// go through the parsing pipeline.
	CommandNone Command = iota

	// CommandSubmit commits the session's pending counts.
	CommandSubmit

	// CommandUndo reverses the most recently applied voice batch.
	CommandUndo

	// CommandStop ends the listening session.
	CommandStop
)

// commandRule pairs a pattern with the command it triggers. Rules are
// evaluated in order; undo before stop so "cancel last" reads as an undo
// rather than matching stop's bare "cancel".
type commandRule struct {
	name    string
	regex   *regexp.Regexp
	command Command
}

var commandRules = []commandRule{
	{
		name:    "submit",
		regex:   regexp.MustCompile(`\b(commit|submit|done)\b`),
		command: CommandSubmit,
	},
	{
		name:    "undo",
		regex:   regexp.MustCompile(`\b(undo( last)?|cancel last)\b`),
		command: CommandUndo,
	},
	{
		name:    "stop",
		regex:   regexp.MustCompile(`\b(stop( listening| voice)?|turn off voice|voice off|cancel)\b`),
		command: CommandStop,
	},
}

// DetectCommand classifies a final transcript as a control command, or
// CommandNone when it should be parsed as inventory input.
func DetectCommand(text string) Command {
	for _, r := range commandRules {
		if r.regex.MatchString(text) {
			return r.command
		}
	}
	return CommandNone
}
