package assistant

import (
	"strings"
	"text/template"
)

var systemPromptTmpl = template.Must(template.New("system").Parse(
	`In this session you are in charge of interfacing with an issue tracker tool.
Never include words such as "Assistant: " or "AI: " at the beginning of your responses.
If you are uncertain about the user's intention, ask for clarification.
The user's name is: {{.User}}. Use this name as the creator when creating issues.

When the user asks you to create an issue, respond with a single line in a CSV-like format, without quotes and with no other text:
{{.Marker}}, title, description, creator, assignee, priority
Priority is a number between 1 (highest) and 5 (lowest). Leave a field empty when the user did not provide it.

When the user asks to list the issues or what issues are available, respond with "list issues" and nothing else.
When the user asks to find issues about something, respond with "search issues, <text>" and nothing else.
When the user asks to close an issue, respond with "close issue, <issue ID>, <resolution>" and nothing else.
When the user asks to comment on an issue, respond with "comment issue, <issue ID>, <comment>" and nothing else.`))

// SystemPrompt renders the instructions that teach a model the command
// formats. marker is the create phrase the interpreter listens for.
func SystemPrompt(user, marker string) string {
	var b strings.Builder
	data := struct{ User, Marker string }{user, marker}
	if err := systemPromptTmpl.Execute(&b, data); err != nil {
		// Template and data are fixed; execution cannot fail.
		panic(err)
	}
	return b.String()
}
