package dom

import (
	"reflect"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html class="js light">
<head><title>t</title></head>
<body>
  <nav>
    <button data-theme-name="light">Light</button>
    <button data-theme-name="dark">Dark</button>
    <button data-theme-name>Auto</button>
  </nav>
  <button data-theme-toggle>Toggle</button>
</body>
</html>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return doc
}

func TestNewHasRootAndBody(t *testing.T) {
	doc := New()
	if doc.Root() == nil || doc.Root().Tag() != "html" {
		t.Fatal("expected <html> root element")
	}
	if doc.Body() == nil || doc.Body().Tag() != "body" {
		t.Fatal("expected <body> element")
	}
}

func TestQueryAllDocumentOrder(t *testing.T) {
	doc := mustParse(t, samplePage)

	buttons := doc.QueryAll("data-theme-name")
	if len(buttons) != 3 {
		t.Fatalf("expected 3 selector buttons, got %d", len(buttons))
	}
	var tokens []string
	for _, b := range buttons {
		v, _ := b.Data("theme-name")
		tokens = append(tokens, v)
	}
	if want := []string{"light", "dark", ""}; !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	if toggles := doc.QueryAll("data-theme-toggle"); len(toggles) != 1 || toggles[0].Text() != "Toggle" {
		t.Fatalf("expected one toggle, got %d", len(toggles))
	}
}

func TestClassList(t *testing.T) {
	doc := mustParse(t, samplePage)
	root := doc.Root()

	if !root.HasClass("light") {
		t.Fatal("expected parsed class token")
	}
	root.AddClass("dark")
	root.AddClass("dark")
	if got, want := root.Classes(), []string{"js", "light", "dark"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Classes() = %v, want %v", got, want)
	}

	root.RemoveClass("light")
	root.RemoveClass("missing")
	root.RemoveClass("js")
	root.RemoveClass("dark")
	if root.HasAttr("class") {
		t.Fatal("expected empty class attribute to be removed")
	}
}

func TestAttributes(t *testing.T) {
	doc := New()
	root := doc.Root()

	if _, ok := root.Attr("data-theme"); ok {
		t.Fatal("expected no data-theme on a new document")
	}
	root.SetAttr("data-theme", "dark")
	root.SetAttr("data-theme", "light")
	if v, ok := root.Data("theme"); !ok || v != "light" {
		t.Fatalf("Data(theme) = %q, %v", v, ok)
	}
	root.RemoveAttr("data-theme")
	if root.HasAttr("data-theme") {
		t.Fatal("expected attribute removed")
	}
}

func TestClickRunsListenersInOrder(t *testing.T) {
	doc := mustParse(t, samplePage)
	btn := doc.QueryAll("data-theme-toggle")[0]

	if btn.Click() {
		t.Fatal("Click without listeners should report false")
	}

	var calls []string
	btn.OnClick(func(e *Element) { calls = append(calls, "first") })
	btn.OnClick(func(e *Element) {
		if !e.Is(btn) {
			t.Error("listener received a different element")
		}
		calls = append(calls, "second")
	})

	// Listeners are keyed by node, not by handle.
	again := doc.QueryAll("data-theme-toggle")[0]
	if !again.Click() {
		t.Fatal("Click should report that listeners ran")
	}
	if want := []string{"first", "second"}; !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestBuildAndRender(t *testing.T) {
	doc := New()
	btn := doc.CreateElement("BUTTON")
	btn.SetAttr("data-theme-name", "dark")
	btn.SetText("Dark")
	doc.Body().AppendChild(btn)
	doc.Root().SetAttr("data-theme", "dark")

	out := doc.String()
	for _, want := range []string{`<html data-theme="dark">`, `<button data-theme-name="dark">Dark</button>`} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered document missing %q:\n%s", want, out)
		}
	}
}
