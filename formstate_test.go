package formstate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/binding/terminal"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/testsupport"
	"github.com/goliatone/go-formstate/pkg/validation"
)

type scriptedDriver struct {
	inputs []string
	infos  []string
}

func (d *scriptedDriver) next() (string, error) {
	if len(d.inputs) == 0 {
		return "", terminal.ErrAborted
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	return answer, nil
}

func (d *scriptedDriver) Input(context.Context, terminal.InputConfig) (string, error) {
	return d.next()
}

func (d *scriptedDriver) Password(context.Context, terminal.InputConfig) (string, error) {
	return d.next()
}

func (d *scriptedDriver) Confirm(context.Context, terminal.ConfirmConfig) (bool, error) {
	answer, err := d.next()
	return answer == "yes", err
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func ptr[T any](v T) *T { return &v }

func loadExample(t *testing.T, name string) *formstate.Result {
	t.Helper()
	res, err := formstate.LoadExample(context.Background(), name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	t.Cleanup(res.Close)
	return res
}

func TestFill_SignupExample(t *testing.T) {
	ctx := testsupport.LoggingContext(t)
	res := loadExample(t, "signup")

	err := formstate.Fill(ctx, res.Group, map[string]any{
		"username":   "ada_l",
		"email":      "ada@example.com",
		"password":   "correct horse",
		"age":        36,
		"newsletter": true,
		"address": map[string]any{
			"street": "<b>12 Analytical Row</b>",
			"city":   "London",
		},
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !res.Group.Validate(ctx) {
		t.Fatalf("expected filled form to be valid: %v", res.Group.Errors())
	}

	want := map[string]any{
		"username":   "ada_l",
		"email":      "ada@example.com",
		"password":   "correct horse",
		"age":        ptr(int64(36)),
		"newsletter": true,
		"address": map[string]any{
			"street":   "12 Analytical Row",
			"city":     "London",
			"postcode": "",
		},
	}
	if diff := testsupport.CompareGolden(want, res.Group.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if !res.Secrets["password"] {
		t.Fatalf("password must be marked secret")
	}
}

func TestFill_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown name", func(t *testing.T) {
		res := loadExample(t, "signup")
		err := formstate.Fill(ctx, res.Group, map[string]any{"emial": "x"})
		var lookupErr *form.LookupError
		if !errors.As(err, &lookupErr) {
			t.Fatalf("expected *LookupError, got %v", err)
		}
		if lookupErr.Suggestion != "email" {
			t.Fatalf("expected suggestion email, got %q", lookupErr.Suggestion)
		}
	})

	t.Run("scalar for group", func(t *testing.T) {
		res := loadExample(t, "signup")
		err := formstate.Fill(ctx, res.Group, map[string]any{"address": "somewhere"})
		if !errors.Is(err, formstate.ErrValueShape) {
			t.Fatalf("expected ErrValueShape, got %v", err)
		}
	})

	t.Run("map for field", func(t *testing.T) {
		res := loadExample(t, "signup")
		err := formstate.Fill(ctx, res.Group, map[string]any{"email": map[string]any{"a": 1}})
		if !errors.Is(err, formstate.ErrValueShape) {
			t.Fatalf("expected ErrValueShape, got %v", err)
		}
	})
}

func TestFill_InvalidValuesSurfaceAfterValidate(t *testing.T) {
	ctx := context.Background()
	res := loadExample(t, "signup")

	if err := formstate.Fill(ctx, res.Group, map[string]any{"age": "twelve"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if res.Group.Validate(ctx) {
		t.Fatalf("expected invalid form")
	}
	age, err := res.Group.Resolve("age")
	if err != nil {
		t.Fatalf("resolve age: %v", err)
	}
	flags := age.(form.Control[string]).Error()
	if !flags[form.ParseErrorKey] {
		t.Fatalf("expected parse failure, got %v", flags)
	}
}

func TestPrompt_ContactExample(t *testing.T) {
	res := loadExample(t, "contact")
	driver := &scriptedDriver{inputs: []string{
		"Ada",
		"not-an-email",
		"ada@example.com",
		"",
		"Hello, I would like to know more.",
	}}

	if err := formstate.Prompt(context.Background(), res, terminal.WithPromptDriver(driver)); err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if diff := cmp.Diff([]string{"  ! E-mail must be a valid email address"}, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{
		"name":    "Ada",
		"email":   "ada@example.com",
		"website": "",
		"message": "Hello, I would like to know more.",
	}
	if diff := cmp.Diff(want, res.Group.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestPrompt_RequiresResult(t *testing.T) {
	if err := formstate.Prompt(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}

func TestNewField_AliasesCore(t *testing.T) {
	ctx := context.Background()
	name := formstate.NewField(formstate.FieldConfig[string, string]{
		Name:       "name",
		Validators: []validation.Validator[string]{validation.Required[string]()},
	})
	g := formstate.NewGroup(formstate.GroupConfig{Name: "person"})
	if err := g.AddField(name); err != nil {
		t.Fatalf("add: %v", err)
	}
	if g.Validate(ctx) {
		t.Fatalf("empty required field must invalidate the group")
	}
	if err := formstate.Fill(ctx, g, map[string]any{"name": "Grace"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !g.Validate(ctx) || name.ModelValue() != "Grace" {
		t.Fatalf("expected Grace to be committed, got %q", name.ModelValue())
	}
}

func TestLoad_OpenAPIFixture(t *testing.T) {
	ctx := testsupport.Context()
	raw := testsupport.MustReadFixture(t, "examples/fixtures/petstore.yaml")
	doc := testsupport.InlineDocument(t, "petstore.yaml", raw)

	res, err := formstate.Load(ctx, formstate.Request{OpenAPI: &doc, Schema: "Pet"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer res.Close()

	err = formstate.Fill(ctx, res.Group, map[string]any{
		"name":    "Rex",
		"species": "hamster",
		"owner":   map[string]any{"email": "owner@example.com"},
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if res.Group.Validate(ctx) {
		t.Fatalf("hamster is not an allowed species")
	}
	species := testsupport.Control(t, res.Group, "species")
	if flags := species.Error(); !flags["oneof=cat dog parrot"] {
		t.Fatalf("expected the enum rule to fail, got %v", flags)
	}

	species.OnChange(ctx, "dog")
	if !res.Group.Validate(ctx) {
		t.Fatalf("expected valid pet: %v", res.Group.Errors())
	}
	if !res.Secrets["owner.password"] {
		t.Fatalf("format password must mark the owner password secret, got %v", res.Secrets)
	}
}

func TestMaskSecrets_ByPath(t *testing.T) {
	values := map[string]any{
		"password": "visible",
		"owner": map[string]any{
			"password": "hidden",
			"phone":    "",
		},
		"pin": (*int64)(nil),
	}
	secrets := map[string]bool{"owner.password": true, "owner.phone": true, "pin": true}

	want := map[string]any{
		"password": "visible",
		"owner": map[string]any{
			"password": "***",
			"phone":    "",
		},
		"pin": (*int64)(nil),
	}
	if diff := cmp.Diff(want, formstate.MaskSecrets(values, secrets, "***")); diff != "" {
		t.Fatalf("masked values mismatch (-want +got):\n%s", diff)
	}
	if values["owner"].(map[string]any)["password"] != "hidden" {
		t.Fatalf("input must not be modified")
	}
}
