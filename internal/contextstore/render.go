package contextstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/vinayprograms/recipeflow/internal/exprlang"
)

var log = logging.New().WithComponent("context")

// templateExpr matches a single `{{ expr }}` substitution. Expansion is
// not recursive — a substituted value is never re-scanned for further
// `{{ }}` markers, closing off a template-injection path.
var templateExpr = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// RenderError reports a template substitution failure — an unknown
// variable or a rejected expression inside a `{{ }}` marker.
type RenderError struct {
	Template string
	Reason   string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template %q: %s", e.Template, e.Reason)
}

// Render substitutes every `{{ expr }}` marker in text with the string
// form of evaluating expr against c. An unknown variable or a rejected
// expression aborts the whole render with an error: a missing
// reference is a hard failure, not a silent blank.
func (c *Context) Render(text string) (string, error) {
	var renderErr error
	out := templateExpr.ReplaceAllStringFunc(text, func(match string) string {
		if renderErr != nil {
			return match
		}
		sub := templateExpr.FindStringSubmatch(match)
		expr := sub[1]
		v, err := exprlang.Evaluate(expr, c)
		if err != nil {
			log.SecurityWarning("rejected expression during template render", map[string]interface{}{
				"expr":   expr,
				"reason": err.Error(),
			})
			renderErr = &RenderError{Template: text, Reason: err.Error()}
			return match
		}
		return v.AsString()
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

// RenderShell behaves like Render, except every substituted value is
// quoted for safe inclusion in a POSIX shell command line rather than
// interpolated as raw text. This is the only sanctioned path from
// context data into a shell command string; step authors who need a
// literal, unquoted substitution must not use render_shell for it.
func (c *Context) RenderShell(text string) (string, error) {
	var renderErr error
	out := templateExpr.ReplaceAllStringFunc(text, func(match string) string {
		if renderErr != nil {
			return match
		}
		sub := templateExpr.FindStringSubmatch(match)
		expr := sub[1]
		v, err := exprlang.Evaluate(expr, c)
		if err != nil {
			log.SecurityWarning("rejected expression during shell-quoted template render", map[string]interface{}{
				"expr":   expr,
				"reason": err.Error(),
			})
			renderErr = &RenderError{Template: text, Reason: err.Error()}
			return match
		}
		return ShellQuote(v.AsString())
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

// ShellQuote wraps s in single quotes, escaping any embedded single
// quote using the standard '"'"' POSIX idiom. Single-quoting disables
// every shell metacharacter — `; | & $ ( ) < > \n * ? [ ] { } ~ \` and
// whitespace included — without needing a per-character denylist.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
