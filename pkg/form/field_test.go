package form_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

func ageField() *form.FieldState[int, string] {
	return form.NewField(form.FieldConfig[int, string]{
		Name:         "age",
		InitialValue: 0,
		Validators: []validation.Validator[int]{
			validation.Required[int](),
			validation.Min[int](18),
		},
		Transform: &form.Transform[int, string]{
			Parser: func(view string) (int, error) {
				if view == "" {
					return 0, nil
				}
				return strconv.Atoi(view)
			},
			Formatter: func(model int) string {
				if model == 0 {
					return ""
				}
				return strconv.Itoa(model)
			},
		},
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewField_StartsInResetState(t *testing.T) {
	field := form.NewField(form.FieldConfig[string, string]{
		Name:         "firstName",
		InitialValue: "Jim",
		Validators:   []validation.Validator[string]{validation.Required[string]()},
	})

	if field.Name() != "firstName" {
		t.Fatalf("unexpected name %q", field.Name())
	}
	if field.ID() == "" {
		t.Fatalf("expected a generated id")
	}
	if field.ViewValue() != "Jim" || field.ModelValue() != "Jim" {
		t.Fatalf("expected Jim for view and model, got %q/%q", field.ViewValue(), field.ModelValue())
	}
	if !field.Valid() || field.Dirty() || field.Touched() || field.Validating() || field.ValidationEnabled() {
		t.Fatalf("unexpected initial flags")
	}
	if !field.Pristine() || !field.Untouched() || field.Invalid() {
		t.Fatalf("derived flags inconsistent")
	}
	if len(field.Error()) != 0 {
		t.Fatalf("expected no errors, got %#v", field.Error())
	}
}

func TestField_AgeScenario(t *testing.T) {
	ctx := context.Background()
	field := ageField()

	field.OnChange(ctx, "")
	if field.Validate(ctx) {
		t.Fatalf("empty age must be invalid")
	}
	if !field.Error()[validation.KeyRequired] {
		t.Fatalf("expected required failure, got %#v", field.Error())
	}

	field.OnChange(ctx, "15")
	if field.Valid() {
		t.Fatalf("15 must be invalid")
	}
	errs := field.Error()
	if errs[validation.KeyRequired] || !errs[validation.KeyMin] {
		t.Fatalf("expected only min to fail, got %#v", errs)
	}

	field.OnChange(ctx, "21")
	if !field.Valid() {
		t.Fatalf("21 must be valid, errors %#v", field.Error())
	}
	if got := field.ModelValue(); got != 21 {
		t.Fatalf("expected model 21, got %d", got)
	}
	want := map[string]bool{form.ParseErrorKey: false, validation.KeyRequired: false, validation.KeyMin: false}
	if diff := cmp.Diff(want, field.Error()); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
}

func TestField_ResetRestoresInitialState(t *testing.T) {
	ctx := context.Background()
	field := ageField()
	field.OnChange(ctx, "12")
	field.OnBlur(ctx)
	if field.Valid() {
		t.Fatalf("12 must be invalid")
	}

	field.Reset()

	if field.Dirty() || field.Touched() || field.Validating() || !field.Valid() || field.ValidationEnabled() {
		t.Fatalf("reset left flags behind")
	}
	if field.ViewValue() != "" || field.ModelValue() != 0 {
		t.Fatalf("reset left values behind: %q/%d", field.ViewValue(), field.ModelValue())
	}
	for key, failed := range field.Error() {
		if failed {
			t.Fatalf("reset left error %q", key)
		}
	}
}

func TestField_ValidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	field := ageField()
	field.OnChange(ctx, "30")

	first := field.Validate(ctx)
	firstErrs := field.Error()
	firstModel := field.ModelValue()

	second := field.Validate(ctx)
	if first != second {
		t.Fatalf("verdict changed: %v then %v", first, second)
	}
	if diff := cmp.Diff(firstErrs, field.Error()); diff != "" {
		t.Fatalf("errors changed (-first +second):\n%s", diff)
	}
	if firstModel != field.ModelValue() {
		t.Fatalf("model changed: %d then %d", firstModel, field.ModelValue())
	}
}

func TestField_ErrorMapMatchesResults(t *testing.T) {
	ctx := context.Background()
	field := form.NewField(form.FieldConfig[string, string]{
		Name: "username",
		Validators: []validation.Validator[string]{
			validation.Required[string](),
			validation.MinLength[string](3),
			validation.MaxLength[string](5),
			validation.Pattern[string](`^[a-z]+$`),
		},
	})

	field.OnChange(ctx, "ABCDEFG")
	if field.Validate(ctx) {
		t.Fatalf("expected invalid")
	}
	want := map[string]bool{
		validation.KeyRequired:  false,
		validation.KeyMinLength: false,
		validation.KeyMaxLength: true,
		validation.KeyPattern:   true,
	}
	if diff := cmp.Diff(want, field.Error()); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}

	field.OnChange(ctx, "abcd")
	if !field.Validate(ctx) {
		t.Fatalf("expected valid, got %#v", field.Error())
	}
	for key, failed := range field.Error() {
		if failed {
			t.Fatalf("previous failure %q not cleared", key)
		}
	}
}

func TestField_ModelOnlyCommitsValidValues(t *testing.T) {
	ctx := context.Background()
	field := ageField()

	field.OnChange(ctx, "40")
	field.Validate(ctx)
	field.OnChange(ctx, "10")
	field.Validate(ctx)

	if field.ViewValue() != "10" {
		t.Fatalf("view must follow input, got %q", field.ViewValue())
	}
	if field.ModelValue() != 40 {
		t.Fatalf("model must keep last valid value, got %d", field.ModelValue())
	}
}

func TestField_ParseFailure(t *testing.T) {
	ctx := context.Background()
	field := ageField()

	field.OnChange(ctx, "abc")
	if field.Validate(ctx) {
		t.Fatalf("unparseable input must be invalid")
	}
	want := map[string]bool{form.ParseErrorKey: true, validation.KeyRequired: false, validation.KeyMin: false}
	if diff := cmp.Diff(want, field.Error()); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
	if field.ModelValue() != 0 {
		t.Fatalf("model must not change, got %d", field.ModelValue())
	}
}

func TestField_ValidatorErrorsAndPanicsAreFailures(t *testing.T) {
	ctx := context.Background()
	field := form.NewField(form.FieldConfig[string, string]{
		Name: "email",
		Validators: []validation.Validator[string]{
			validation.New("remote", func(context.Context, string) (bool, error) {
				return false, errors.New("service unavailable")
			}),
			validation.Func("explode", func(string) bool { panic("boom") }),
			validation.Func("ok", func(string) bool { return true }),
		},
	})

	field.OnChange(ctx, "ada@example.com")
	if field.Validate(ctx) {
		t.Fatalf("expected invalid")
	}
	want := map[string]bool{"remote": true, "explode": true, "ok": false}
	if diff := cmp.Diff(want, field.Error()); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
	if field.Validating() {
		t.Fatalf("validating must settle")
	}
}

func TestField_DefaultStrategy(t *testing.T) {
	ctx := context.Background()
	field := form.NewField(form.FieldConfig[string, string]{
		Name:       "name",
		Validators: []validation.Validator[string]{validation.MinLength[string](3)},
	})

	field.OnChange(ctx, "a")
	if field.ValidationEnabled() || !field.Valid() {
		t.Fatalf("first change before blur must not validate")
	}
	if !field.Dirty() {
		t.Fatalf("change must mark dirty")
	}

	field.OnBlur(ctx)
	if !field.Touched() || field.Valid() || !field.ValidationEnabled() {
		t.Fatalf("blur must validate")
	}

	field.OnChange(ctx, "abc")
	if !field.Valid() {
		t.Fatalf("change after blur must validate, got %#v", field.Error())
	}
}

func TestField_ChangeAndManualStrategies(t *testing.T) {
	ctx := context.Background()
	eager := form.NewField(form.FieldConfig[string, string]{
		Name:       "eager",
		Validators: []validation.Validator[string]{validation.MinLength[string](3)},
		Strategy:   form.ChangeStrategy,
	})
	eager.OnChange(ctx, "a")
	if eager.Valid() {
		t.Fatalf("change strategy must validate on first change")
	}

	manual := form.NewField(form.FieldConfig[string, string]{
		Name:       "manual",
		Validators: []validation.Validator[string]{validation.MinLength[string](3)},
		Strategy:   form.ManualStrategy,
	})
	manual.OnChange(ctx, "a")
	manual.OnBlur(ctx)
	if !manual.Valid() || manual.ValidationEnabled() {
		t.Fatalf("manual strategy must not validate")
	}
	if manual.Validate(ctx) {
		t.Fatalf("explicit validate must still run")
	}
}

func TestStrategyByName(t *testing.T) {
	for _, name := range []string{"", "default", "blur", "change", "MANUAL"} {
		if _, err := form.StrategyByName(name); err != nil {
			t.Fatalf("strategy %q: %v", name, err)
		}
	}
	if _, err := form.StrategyByName("sometimes"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestField_TransformRoundTrip(t *testing.T) {
	field := ageField()
	for _, x := range []int{18, 21, 99, 120} {
		field.SetValue(x)
		if field.ModelValue() != x {
			t.Fatalf("model mismatch for %d", x)
		}
		if !field.Validate(context.Background()) {
			t.Fatalf("formatted %d must parse and validate", x)
		}
		if got := field.ModelValue(); got != x {
			t.Fatalf("parser(formatter(%d)) = %d", x, got)
		}
	}
}

func TestField_SetValueFormatsView(t *testing.T) {
	field := ageField()
	field.SetValue(42)
	if field.ViewValue() != "42" {
		t.Fatalf("expected formatted view 42, got %q", field.ViewValue())
	}
	if field.Dirty() {
		t.Fatalf("SetValue must not mark dirty")
	}
}

func TestField_MismatchedTypesWithoutTransformPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	form.NewField(form.FieldConfig[int, string]{Name: "broken"})
}

func TestField_ValidatorRegistry(t *testing.T) {
	ctx := context.Background()
	field := form.NewField(form.FieldConfig[string, string]{
		Name: "code",
		Validators: []validation.Validator[string]{
			validation.MinLength[string](2),
			validation.MaxLength[string](4),
			validation.MinLength[string](3),
		},
	})

	rules := field.Rules()
	if len(rules) != 2 || rules[0].Key != validation.KeyMinLength || rules[1].Key != validation.KeyMaxLength {
		t.Fatalf("unexpected rule order: %#v", rules)
	}
	if rules[0].Params["min"] != 3 {
		t.Fatalf("duplicate key must replace earlier validator, got %#v", rules[0].Params)
	}

	field.OnChange(ctx, "abcdef")
	field.Validate(ctx)
	if field.Valid() {
		t.Fatalf("expected maxLength failure")
	}
	field.RemoveValidator(validation.KeyMaxLength)
	if !field.Valid() {
		t.Fatalf("removing the failing rule must restore validity, got %#v", field.Error())
	}
	if _, ok := field.Error()[validation.KeyMaxLength]; ok {
		t.Fatalf("removed rule must leave the error map")
	}

	field.SetValidator(validation.Pattern[string](`^\d+$`))
	if field.Validate(ctx) {
		t.Fatalf("new pattern rule must apply")
	}
}

func TestField_AsyncValidation(t *testing.T) {
	ctx := context.Background()
	release := make(chan bool)
	field := form.NewField(form.FieldConfig[string, string]{
		Name:         "firstName",
		InitialValue: "Jim",
		Validators: []validation.Validator[string]{
			validation.New("asyncValidation", func(ctx context.Context, _ string) (bool, error) {
				select {
				case ok := <-release:
					return ok, nil
				case <-ctx.Done():
					return false, ctx.Err()
				}
			}),
		},
	})

	done := make(chan bool, 1)
	go func() { done <- field.Validate(ctx) }()

	waitFor(t, "validation to start", field.Validating)
	if !field.Touched() {
		t.Fatalf("trigger must mark touched")
	}
	if field.ValidationEnabled() {
		t.Fatalf("results must not be visible before settling")
	}

	release <- true
	if !<-done {
		t.Fatalf("expected valid result")
	}
	if field.Validating() || !field.Valid() {
		t.Fatalf("expected settled valid state")
	}
}

func TestField_SupersededRunDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	entered := make(chan string, 2)
	gates := map[string]chan bool{
		"slow": make(chan bool),
		"fast": make(chan bool),
	}
	field := form.NewField(form.FieldConfig[string, string]{
		Name:     "handle",
		Strategy: form.ManualStrategy,
		Validators: []validation.Validator[string]{
			validation.New("available", func(_ context.Context, value string) (bool, error) {
				entered <- value
				return <-gates[value], nil
			}),
		},
	})

	field.OnChange(ctx, "slow")
	slowDone := make(chan bool, 1)
	go func() { slowDone <- field.Validate(ctx) }()
	if got := <-entered; got != "slow" {
		t.Fatalf("expected slow run first, got %q", got)
	}

	field.OnChange(ctx, "fast")
	fastDone := make(chan bool, 1)
	go func() { fastDone <- field.Validate(ctx) }()
	if got := <-entered; got != "fast" {
		t.Fatalf("expected fast run second, got %q", got)
	}

	gates["fast"] <- true
	if !<-fastDone {
		t.Fatalf("fast run must pass")
	}
	if field.Validating() || !field.Valid() || field.ModelValue() != "fast" {
		t.Fatalf("latest run must commit")
	}

	gates["slow"] <- false
	if <-slowDone {
		t.Fatalf("slow run reports its own verdict")
	}
	if !field.Valid() || field.ModelValue() != "fast" {
		t.Fatalf("superseded run must not overwrite state")
	}
}

func TestField_ResetDiscardsInFlightRun(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	gate := make(chan bool)
	field := form.NewField(form.FieldConfig[string, string]{
		Name:         "title",
		InitialValue: "draft",
		Strategy:     form.ManualStrategy,
		Validators: []validation.Validator[string]{
			validation.New("slow", func(context.Context, string) (bool, error) {
				close(entered)
				return <-gate, nil
			}),
		},
	})

	field.OnChange(ctx, "final")
	done := make(chan bool, 1)
	go func() { done <- field.Validate(ctx) }()
	<-entered

	field.Reset()
	gate <- true
	<-done

	if field.ModelValue() != "draft" || field.ViewValue() != "draft" {
		t.Fatalf("in-flight run must not commit after reset")
	}
	if field.Validating() || field.ValidationEnabled() {
		t.Fatalf("reset flags must survive the late run")
	}
}

func TestField_SetValueDiscardsInFlightRun(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	gate := make(chan bool)
	field := form.NewField(form.FieldConfig[string, string]{
		Name:     "title",
		Strategy: form.ManualStrategy,
		Validators: []validation.Validator[string]{
			validation.New("slow", func(context.Context, string) (bool, error) {
				close(entered)
				return <-gate, nil
			}),
		},
	})

	field.OnChange(ctx, "typed")
	done := make(chan bool, 1)
	go func() { done <- field.Validate(ctx) }()
	<-entered

	field.SetValue("external")
	if field.Validating() {
		t.Fatalf("set value must end the pending run")
	}
	gate <- true
	<-done

	if field.ModelValue() != "external" || field.ViewValue() != "external" {
		t.Fatalf("stale run committed over SetValue: model=%q view=%q", field.ModelValue(), field.ViewValue())
	}
}
