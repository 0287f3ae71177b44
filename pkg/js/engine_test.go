package js

import (
	"testing"

	"lazyimg/pkg/html"
)

func parseHTML(t *testing.T, s string) *html.Document {
	t.Helper()
	doc, err := html.Parse(s)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return doc
}

func run(t *testing.T, doc *html.Document, script string) *Engine {
	t.Helper()
	engine := New(nil)
	doc.Scripts = append(doc.Scripts, script)
	if err := engine.Execute(doc); err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestGetElementById(t *testing.T) {
	doc := parseHTML(t, `<div id="foo">hello</div>`)
	run(t, doc, `
		var el = document.getElementById("foo");
		if (el === null) throw new Error("element not found");
		if (el.id !== "foo") throw new Error("wrong id: " + el.id);
		if (el.tagName !== "DIV") throw new Error("wrong tagName: " + el.tagName);
		if (el !== document.getElementById("foo")) throw new Error("proxies should be identical");
		if (document.getElementById("missing") !== null) throw new Error("expected null");
	`)
}

func TestQuerySelectorAll(t *testing.T) {
	doc := parseHTML(t, `<img class="lazy" data-src="a.jpg"><img class="lazy" data-src="b.jpg"><img src="c.jpg">`)
	run(t, doc, `
		var imgs = document.querySelectorAll("img.lazy");
		if (imgs.length !== 2) throw new Error("expected 2, got: " + imgs.length);
		if (imgs[1].dataset.src !== "b.jpg") throw new Error("dataset.src: " + imgs[1].dataset.src);
		if (document.querySelector("[data-src]").getAttribute("data-src") !== "a.jpg") throw new Error("querySelector");
		if (document.querySelector(".nothing") !== null) throw new Error("expected null");
	`)
}

func TestSetAttributeNotifiesObservers(t *testing.T) {
	doc := parseHTML(t, `<div id="target">text</div>`)
	var records []html.MutationRecord
	obs := html.NewMutationObserver(func(r []html.MutationRecord) { records = append(records, r...) })
	obs.Observe(doc.Root, html.ObserveOptions{Attributes: true, ChildList: true, Subtree: true})

	run(t, doc, `
		var el = document.getElementById("target");
		el.setAttribute("data-value", "42");
		el.dataset.fooBar = "x";
		el.appendChild(document.createElement("span"));
	`)

	node := doc.Root.GetElementByID("target")
	if val, _ := node.GetAttribute("data-value"); val != "42" {
		t.Errorf("data-value = %q, want %q", val, "42")
	}
	if val, _ := node.GetAttribute("data-foo-bar"); val != "x" {
		t.Errorf("data-foo-bar = %q", val)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 mutation records, got %d", len(records))
	}
	if records[2].Type != html.MutationChildList {
		t.Errorf("last record = %v", records[2].Type)
	}
}

func TestClassList(t *testing.T) {
	doc := parseHTML(t, `<div id="el" class="a"></div>`)
	run(t, doc, `
		var el = document.getElementById("el");
		el.classList.add("b", "c", "a");
		if (el.className !== "a b c") throw new Error("className: " + el.className);
		el.classList.remove("b");
		if (el.classList.contains("b")) throw new Error("b should be gone");
		if (el.classList.toggle("d") !== true) throw new Error("toggle add");
		if (el.classList.toggle("d") !== false) throw new Error("toggle remove");
		if (el.classList.length !== 2) throw new Error("length: " + el.classList.length);
		if (el.classList[1] !== "c") throw new Error("index: " + el.classList[1]);
	`)
}

func TestInnerHTMLAndText(t *testing.T) {
	doc := parseHTML(t, `<div id="box"><p>old</p></div>`)
	run(t, doc, `
		var box = document.getElementById("box");
		box.innerHTML = '<img data-src="x.jpg" alt="x">';
		if (box.children.length !== 1) throw new Error("children: " + box.children.length);
		if (box.children[0].parentElement !== box) throw new Error("parentElement");
		box.textContent = "plain";
		if (box.innerHTML !== "plain") throw new Error("innerHTML: " + box.innerHTML);
	`)
	box := doc.Root.GetElementByID("box")
	if len(box.Children) != 1 || box.Children[0].Text != "plain" {
		t.Errorf("unexpected children: %+v", box.Children)
	}
}

func TestRemove(t *testing.T) {
	doc := parseHTML(t, `<div id="p"><span id="spinner" class="preloader-icon"></span></div>`)
	run(t, doc, `document.getElementById("spinner").remove();`)
	if doc.Root.GetElementByID("spinner") != nil {
		t.Error("spinner should be removed")
	}
}

func TestScriptError(t *testing.T) {
	doc := parseHTML(t, `<p>text</p>`)
	doc.Scripts = append(doc.Scripts, `throw new Error("test error");`)
	if err := New(nil).Execute(doc); err == nil {
		t.Fatal("expected error from script")
	}
}

func TestScriptExtraction(t *testing.T) {
	doc := parseHTML(t, `<p>text</p><script>var x = 1;</script><script>var y = 2;</script>`)
	if len(doc.Scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(doc.Scripts))
	}
	if doc.Scripts[0] != "var x = 1;" {
		t.Errorf("script 0 = %q", doc.Scripts[0])
	}
}

func TestReevaluate(t *testing.T) {
	doc := parseHTML(t, `<p>text</p>`)
	engine := run(t, doc, `
		var calls = [];
		function picturefill(opts) { calls.push(opts.reevaluate); }
	`)
	engine.Reevaluate()
	engine.Reevaluate()
	got, err := engine.Eval(`calls.length + ":" + calls[0]`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2:true" {
		t.Errorf("calls = %v", got)
	}
}

func TestReevaluateWithoutPolyfill(t *testing.T) {
	engine := run(t, parseHTML(t, `<p>text</p>`), `var picturefill = 3;`)
	engine.Reevaluate()
}

func TestCamelToKebab(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"src", "src"},
		{"srcset", "srcset"},
		{"lazyGroup", "lazy-group"},
		{"borderTopWidth", "border-top-width"},
	}
	for _, tt := range tests {
		if got := camelToKebab(tt.input); got != tt.want {
			t.Errorf("camelToKebab(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if got := kebabToCamel(tt.want); got != tt.input {
			t.Errorf("kebabToCamel(%q) = %q, want %q", tt.want, got, tt.input)
		}
	}
}
