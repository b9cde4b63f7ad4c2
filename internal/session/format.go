package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/evaluator"
)

// colourTag matches the participant placeholder some interpreters embed in
// their output; it is rewritten to the acting participant's display name.
var colourTag = regexp.MustCompile(`<colour=".*?">.*</colour>`)

// CleanupCode strips code-block fencing from a submission: triple-backtick
// fences lose their first and last lines (dropping any language tag), single
// backticks are trimmed off.
func CleanupCode(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
		return strings.Trim(content, "` \n")
	}

	if strings.HasPrefix(content, "`") {
		return strings.Trim(content, "` \n")
	}
	return content
}

func isQuit(code string) bool {
	switch code {
	case "quit", "exit", "exit()":
		return true
	}
	return false
}

func isRefresh(code string) bool {
	switch code {
	case "refresh", "refresh()", "cls", "cls()", "reset", "reset()":
		return true
	}
	return false
}

// formatResult renders one evaluation for the shared console.
//
// Failure publishes the captured output followed by the error trace; a
// returned value publishes captured output plus the value; bare captured
// output is published as is; a silent execution is echoed back one
// "name: line" per submitted line so the room sees what ran.
func formatResult(name, code string, res evaluator.Result, err error) string {
	if err != nil {
		captured := ""
		var evalErr *errors.EvalError
		if errors.As(err, &evalErr) {
			captured = evalErr.Output
		}
		return captured + formatTrace(err)
	}

	captured := res.Output
	if captured != "" {
		captured = colourTag.ReplaceAllString(captured, name)
	}

	switch {
	case res.Value != "":
		return captured + res.Value
	case captured != "":
		return captured
	default:
		lines := strings.Split(code, "\n")
		for i, ln := range lines {
			lines[i] = name + ": " + ln
		}
		return strings.Join(lines, "\n")
	}
}

// formatTrace renders an evaluation error as console text.
func formatTrace(err error) string {
	return fmt.Sprintf("error: %v\n", err)
}
