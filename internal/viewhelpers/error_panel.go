package viewhelpers

import (
	"bytes"
	"fmt"
	"html/template"
)

// ActionKind is the recovery offered next to an error message
type ActionKind string

const (
	// ActionRetry reloads the latest menu
	ActionRetry ActionKind = "retry"
	// ActionGoToLatest jumps to today, or the most recent scanned date
	ActionGoToLatest ActionKind = "today"
	// ActionCheckNow asks the backend to look for a new menu
	ActionCheckNow ActionKind = "check"
)

// Action is a recovery button
type Action struct {
	Label string
	Kind  ActionKind
}

// Path is the form target that performs the action
func (a Action) Path() string {
	return "/actions/" + string(a.Kind)
}

var (
	RetryAction      = Action{Label: "Retry", Kind: ActionRetry}
	GoToLatestAction = Action{Label: "Go to Latest", Kind: ActionGoToLatest}
	CheckNowAction   = Action{Label: "Check Now", Kind: ActionCheckNow}
)

// ErrorPanel is an inline error message with one recovery action
type ErrorPanel struct {
	Message string
	Action  Action
}

var errorTemplate = template.Must(template.New("error").Parse(`<div class="error">
<p>{{.Message}}</p>
<form method="post" action="{{.Action.Path}}"><button type="submit">{{.Action.Label}}</button></form>
</div>`))

// RenderError renders the panel; the message is escaped
func RenderError(panel ErrorPanel) (template.HTML, error) {
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, panel); err != nil {
		return "", fmt.Errorf("failed to render error panel: %w", err)
	}
	return template.HTML(buf.String()), nil
}
