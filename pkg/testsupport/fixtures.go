package testsupport

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// LoadDocument reads a fixture from disk into a schema.Document.
func LoadDocument(t *testing.T, path string) schema.Document {
	t.Helper()

	doc, err := schema.ReadFile(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// InlineDocument wraps raw fixture bytes held in a test.
func InlineDocument(t *testing.T, label string, raw []byte) schema.Document {
	t.Helper()

	doc, err := schema.NewDocument(schema.Inline(label), raw)
	if err != nil {
		t.Fatalf("inline document: %v", err)
	}
	return doc
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// LoggingContext returns a context carrying a debug logger that writes to the
// test log.
func LoggingContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

// Control finds the text control at a dotted path such as "address.city".
func Control(t *testing.T, g *form.Group, path string) form.Control[string] {
	t.Helper()

	current := g
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		obj, ok := current.FindFieldByName(segment)
		if !ok {
			t.Fatalf("no field %q in %q", segment, current.Name())
		}
		if i == len(segments)-1 {
			ctl, ok := obj.(form.Control[string])
			if !ok {
				t.Fatalf("%q is not a text control", path)
			}
			return ctl
		}
		next, ok := obj.(*form.Group)
		if !ok {
			t.Fatalf("%q is not a group", segment)
		}
		current = next
	}
	t.Fatalf("empty path")
	return nil
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadFixture reads a fixture file and returns its raw bytes.
func MustReadFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}
