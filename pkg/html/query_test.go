package html

import "testing"

func TestSelect(t *testing.T) {
	doc, err := Parse(`<div id="gallery" class="wrap">
		<img class="lazy" data-src="a.jpg">
		<span class="lazy" data-src="b.jpg"></span>
		<picture><source data-srcset="s1"></picture>
	</div>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	tests := []struct {
		selector string
		want     int
	}{
		{"#gallery", 1},
		{".lazy", 2},
		{"img.lazy", 1},
		{"[data-src]", 2},
		{"source[data-srcset]", 1},
		{"picture", 1},
		{"*", 5},
		{"", 0},
		{"div!", 0},
	}
	for _, tt := range tests {
		if got := len(doc.Root.Select(tt.selector)); got != tt.want {
			t.Errorf("Select(%q) = %d nodes, want %d", tt.selector, got, tt.want)
		}
	}
}

func TestFindFirstDocumentOrder(t *testing.T) {
	doc, err := Parse(`<div><p><img data-src="first"></p></div><img data-src="second">`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	n := doc.Root.FindFirst(func(x *Node) bool { return x.HasAttribute("data-src") })
	if n == nil || n.Attributes["data-src"] != "first" {
		t.Errorf("FindFirst returned %+v", n)
	}
	if doc.Root.GetElementByID("missing") != nil {
		t.Error("expected nil for missing id")
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	doc, err := Parse(`<picture><source data-srcset="a"></picture><img data-src="b">`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var seen []string
	doc.Root.Walk(func(n *Node) bool {
		seen = append(seen, n.TagName)
		return n.TagName != "picture"
	})
	want := []string{"document", "picture", "img"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}
