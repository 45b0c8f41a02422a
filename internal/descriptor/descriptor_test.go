package descriptor

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue/cuecontext"

	"github.com/crystaldolphin/context7-launcher/internal/settings"
)

type staticSchema struct {
	text string
	err  error
}

func (s staticSchema) JSONSchema() (string, error) { return s.text, s.err }

const apiKeyToken = `"YOUR_CONTEXT7_API_KEY"`
const minTokensToken = `"10000"`

func newTestBuilder() *Builder {
	return NewBuilder(staticSchema{text: `{"type":"object"}`})
}

// assertJSONC checks doc parses; JSON with comments is valid CUE.
func assertJSONC(t *testing.T, doc string) {
	t.Helper()
	if v := cuecontext.New().CompileString(doc); v.Err() != nil {
		t.Errorf("document is not valid JSONC: %v\n%s", v.Err(), doc)
	}
}

func TestTemplate_ContainsPlaceholders(t *testing.T) {
	tpl := newTestBuilder().Template()
	for _, p := range DefaultPlaceholders {
		if !strings.Contains(tpl, p.Token) {
			t.Errorf("template lacks placeholder %s", p.Token)
		}
	}
	assertJSONC(t, tpl)
}

func TestBuild_APIKeyAbsentNeverLeaksSentinel(t *testing.T) {
	d, err := newTestBuilder().Build(settings.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(d.DefaultSettings, "YOUR_CONTEXT7_API_KEY") {
		t.Errorf("sentinel leaked:\n%s", d.DefaultSettings)
	}
	if !strings.Contains(d.DefaultSettings, `"context7_api_key": ""`) {
		t.Errorf("expected empty api key literal:\n%s", d.DefaultSettings)
	}
	assertJSONC(t, d.DefaultSettings)
}

func TestBuild_APIKeyPresent(t *testing.T) {
	d, err := newTestBuilder().Build(settings.Settings{APIKey: settings.String("ctx7sk-abc")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(d.DefaultSettings, `"context7_api_key": "ctx7sk-abc"`) {
		t.Errorf("api key not substituted:\n%s", d.DefaultSettings)
	}
}

func TestBuild_MinimumTokensLeavesOtherTextUnchanged(t *testing.T) {
	b := newTestBuilder()
	d, err := b.Build(settings.Settings{DefaultMinimumTokens: settings.String("5000")})
	if err != nil {
		t.Fatal(err)
	}
	want := strings.ReplaceAll(b.Template(), apiKeyToken, `""`)
	want = strings.ReplaceAll(want, minTokensToken, `"5000"`)
	if d.DefaultSettings != want {
		t.Errorf("unexpected document:\n%s\nwant:\n%s", d.DefaultSettings, want)
	}
	assertJSONC(t, d.DefaultSettings)
}

func TestBuild_MinimumTokensAbsentKeepsPlaceholder(t *testing.T) {
	d, err := newTestBuilder().Build(settings.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(d.DefaultSettings, minTokensToken) {
		t.Errorf("expected placeholder to stay:\n%s", d.DefaultSettings)
	}
}

func TestBuild_StaticInstructionsAndSchema(t *testing.T) {
	b := newTestBuilder()
	first, err := b.Build(settings.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Build(settings.Settings{APIKey: settings.String("k")})
	if err != nil {
		t.Fatal(err)
	}
	if first.Instructions != installationInstructions || second.Instructions != installationInstructions {
		t.Error("instructions must be returned unmodified")
	}
	if first.Schema != second.Schema {
		t.Error("schema must not depend on settings values")
	}
}

func TestBuild_SchemaError(t *testing.T) {
	cause := errors.New("broken")
	b := NewBuilder(staticSchema{err: cause})
	if _, err := b.Build(settings.Settings{}); !errors.Is(err, cause) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestUnmodified_KeepsTemplate(t *testing.T) {
	b := newTestBuilder()
	d, err := b.Unmodified()
	if err != nil {
		t.Fatal(err)
	}
	if d.DefaultSettings != b.Template() {
		t.Errorf("default settings differ from template:\n%s", d.DefaultSettings)
	}
	if !strings.Contains(d.DefaultSettings, apiKeyToken) {
		t.Error("template should still carry the api key placeholder")
	}
	if d.Instructions != installationInstructions || d.Schema != `{"type":"object"}` {
		t.Error("instructions and schema must be filled in")
	}
}

func TestSubstitute_ReplacesEveryOccurrence(t *testing.T) {
	tpl := `{"a": "10000", "b": "10000", "c": "100000"}`
	got := Substitute(tpl, settings.Settings{DefaultMinimumTokens: settings.String("5000")},
		[]Placeholder{{Token: minTokensToken, Field: settings.FieldDefaultMinimumTokens}})
	want := `{"a": "5000", "b": "5000", "c": "100000"}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSubstitute_FirstOccurrenceOnly(t *testing.T) {
	tpl := `{"a": "X", "b": "X"}`
	got := Substitute(tpl, settings.Settings{APIKey: settings.String("k")},
		[]Placeholder{{Token: `"X"`, Field: settings.FieldAPIKey, Occurrences: 1}})
	if want := `{"a": "k", "b": "X"}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSubstitute_QuotesValue(t *testing.T) {
	got := Substitute(apiKeyToken, settings.Settings{APIKey: settings.String(`a"b\c<d>`)}, DefaultPlaceholders)
	if want := `"a\"b\\c<d>"`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSubstitute_KeepTokenFallback(t *testing.T) {
	tpl := `{"a": "X"}`
	got := Substitute(tpl, settings.Settings{}, []Placeholder{{Token: `"X"`, Field: settings.FieldAPIKey, Fallback: KeepToken}})
	if got != tpl {
		t.Errorf("got %s, want template unchanged", got)
	}
}
