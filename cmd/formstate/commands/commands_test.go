package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/binding/terminal"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const petstoreFixture = "../../../examples/fixtures/petstore.yaml"

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCommand("test", "none", "today")
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExamplesCommand(t *testing.T) {
	out, _, err := run(t, "", "examples")
	if err != nil {
		t.Fatalf("examples: %v", err)
	}
	for _, want := range []string{"contact", "Contact us", "signup", "Create an account"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestValidateCommand_Valid(t *testing.T) {
	values := writeTemp(t, "values.yaml", `
username: ada_l
email: ada@example.com
password: correct horse
age: 36
address:
  city: London
`)
	out, _, err := run(t, "", "validate", "--example", "signup", "--values", values)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	var got report
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if !got.Valid || len(got.Errors) != 0 {
		t.Fatalf("expected a valid report, got %+v", got)
	}
	if got.Values["password"] != secretMask {
		t.Fatalf("password must be masked, got %v", got.Values["password"])
	}
	if got.Values["age"] != 36 {
		t.Fatalf("expected age 36, got %v (%T)", got.Values["age"], got.Values["age"])
	}
}

func TestValidateCommand_InvalidReportsMessages(t *testing.T) {
	values := `{"username": "ada", "email": "nope", "password": "longenough", "address": {"street": "1 Main"}}`
	out, _, err := run(t, values, "validate", "--example", "signup", "--values", "-", "--output", "json")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if ExitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d", ExitCode(err))
	}

	var got report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	want := map[string][]string{
		"email":        {"E-mail must be a valid email address"},
		"address.city": {"City cannot be blank"},
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if got.Valid {
		t.Fatalf("report must be invalid")
	}
}

func TestValidateCommand_UnknownFieldSuggests(t *testing.T) {
	_, _, err := run(t, "emial: x\n", "validate", "--example", "signup", "--values", "-")
	if err == nil || !strings.Contains(err.Error(), `did you mean "email"`) {
		t.Fatalf("expected a suggestion, got %v", err)
	}
}

func TestPromptCommand(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Ada", "ada@example.com", "", "Hello, I would like to know more."}}
	restore := promptDriver
	promptDriver = func(*cobra.Command) terminal.PromptDriver { return driver }
	t.Cleanup(func() { promptDriver = restore })

	out, _, err := run(t, "", "prompt", "--example", "contact", "--output", "json")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode values: %v\n%s", err, out)
	}
	want := map[string]any{
		"name":    "Ada",
		"email":   "ada@example.com",
		"website": "",
		"message": "Hello, I would like to know more.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestPromptCommand_TooManyAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"", ""}}
	restore := promptDriver
	promptDriver = func(*cobra.Command) terminal.PromptDriver { return driver }
	t.Cleanup(func() { promptDriver = restore })

	_, _, err := run(t, "", "prompt", "--example", "contact", "--max-attempts", "2")
	if !errors.Is(err, terminal.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestInspectCommand_OpenAPI(t *testing.T) {
	out, _, err := run(t, "", "inspect", "--openapi", petstoreFixture, "--schema", "Pet")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var tree schema.Node
	if err := yaml.Unmarshal([]byte(out), &tree); err != nil {
		t.Fatalf("decode tree: %v\n%s", err, out)
	}
	var names []string
	for _, child := range tree.Children {
		names = append(names, child.Name)
	}
	want := []string{"name", "species", "birthday", "vaccinated", "weight", "owner"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if tree.Children[len(tree.Children)-1].Kind != schema.KindGroup {
		t.Fatalf("owner must be a group")
	}
}

func TestInspectCommand_ValidateMasksSecrets(t *testing.T) {
	out, _, err := run(t, "password: hunter22\n", "inspect", "--example", "signup", "--values", "-", "--validate")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if strings.Contains(out, "hunter22") {
		t.Fatalf("secret leaked into output:\n%s", out)
	}
	var tree schema.Node
	if err := yaml.Unmarshal([]byte(out), &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if tree.Valid {
		t.Fatalf("a mostly empty signup form must be invalid")
	}
}

func TestValidateCommand_MasksNestedSecrets(t *testing.T) {
	values := writeTemp(t, "pet.yaml", `
name: Rex
species: dog
owner:
  email: owner@example.com
  password: hunter2222
`)
	out, _, err := run(t, "", "validate", "--openapi", petstoreFixture, "--schema", "Pet", "--values", values, "-o", "json")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.Contains(out, "hunter2222") {
		t.Fatalf("nested secret leaked into output:\n%s", out)
	}
	var got report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	owner, ok := got.Values["owner"].(map[string]any)
	if !ok || owner["password"] != secretMask {
		t.Fatalf("owner password must be masked, got %v", got.Values["owner"])
	}
}

func TestSourceErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no source", args: []string{"inspect"}, want: "exactly one of"},
		{name: "two sources", args: []string{"inspect", "--example", "signup", "--definition", "x.yaml"}, want: "exactly one of"},
		{name: "openapi without schema", args: []string{"inspect", "--openapi", petstoreFixture}, want: "--schema is required"},
		{name: "unknown example", args: []string{"inspect", "--example", "nope"}, want: `no bundled form "nope"`},
		{name: "bad output", args: []string{"inspect", "--example", "signup", "-o", "xml"}, want: "unknown output format"},
		{name: "bad log level", args: []string{"--log-level", "loud", "examples"}, want: "unknown level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, "", tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Run("level", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "loud")
		_, _, err := run(t, "", "examples")
		if err == nil || !strings.Contains(err.Error(), "unknown level") {
			t.Fatalf("expected the env level to be parsed, got %v", err)
		}
	})

	t.Run("format", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "info")
		t.Setenv(EnvLogFormat, "json")
		_, stderr, err := run(t, "name: Ada\n", "validate", "--example", "contact", "--values", "-")
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
		if !strings.Contains(stderr, `"message":"form validated"`) {
			t.Fatalf("expected a json log line, got:\n%s", stderr)
		}
	})

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "loud")
		if _, _, err := run(t, "", "--log-level", "error", "examples"); err != nil {
			t.Fatalf("flag must override env: %v", err)
		}
	})
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestValidateCommand_Watch(t *testing.T) {
	path := writeTemp(t, "values.yaml", "name: Ada\nemail: nope\n")

	root := newRootCommand("test", "none", "today")
	out := &lockedBuffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"validate", "--example", "contact", "--values", path, "--watch", "-o", "json"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	waitFor(t, "the first report", func() bool {
		return strings.Contains(out.String(), `"valid": false`)
	})

	valid := "name: Ada\nemail: ada@example.com\nmessage: Hello, I would like to know more.\n"
	if err := os.WriteFile(path, []byte(valid), 0o644); err != nil {
		t.Fatalf("rewrite values: %v", err)
	}
	waitFor(t, "a report after the save", func() bool {
		return strings.Contains(out.String(), `"valid": true`)
	})

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled after stopping the watch, got %v", err)
	}
}

func TestValidateCommand_WatchNeedsFile(t *testing.T) {
	_, _, err := run(t, "", "validate", "--example", "contact", "--values", "-", "--watch")
	if err == nil || !strings.Contains(err.Error(), "--watch needs a values file") {
		t.Fatalf("expected a watch error, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":     {err: nil, want: 0},
		"invalid": {err: ErrInvalid, want: 2},
		"aborted": {err: terminal.ErrAborted, want: 130},
		"other":   {err: io.ErrUnexpectedEOF, want: 1},
	}
	for name, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", name, tc.want, got)
		}
	}
}

type stubDriver struct {
	inputs []string
}

func (d *stubDriver) next() (string, error) {
	if len(d.inputs) == 0 {
		return "", terminal.ErrAborted
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	return answer, nil
}

func (d *stubDriver) Input(context.Context, terminal.InputConfig) (string, error) {
	return d.next()
}

func (d *stubDriver) Password(context.Context, terminal.InputConfig) (string, error) {
	return d.next()
}

func (d *stubDriver) Confirm(context.Context, terminal.ConfirmConfig) (bool, error) {
	answer, err := d.next()
	return answer == "yes", err
}

func (d *stubDriver) Info(context.Context, string) error { return nil }
