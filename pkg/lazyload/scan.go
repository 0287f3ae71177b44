package lazyload

import "lazyimg/pkg/html"

// Scan returns the items under root in document order. A picture with a
// deferred source set becomes a picture item, a container marked with the
// group attribute a group item, and any other element with a deferred source
// an image item. Descendants of a matched element are not scanned.
func Scan(root *html.Node, s Settings) []Item {
	if root == nil {
		return nil
	}
	var items []Item
	root.Walk(func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		it, ok := Classify(n, s)
		if !ok {
			return true
		}
		items = append(items, it)
		return false
	})
	return items
}

// Classify determines the shape of a single element. It reports false for
// elements that carry no deferred source.
func Classify(n *html.Node, s Settings) (Item, bool) {
	hasSrcset := func(n *html.Node) bool { return n.HasAttribute(s.SrcsetAttr) }
	switch {
	case n.TagName == "picture" && (hasSrcset(n) || n.FindFirst(hasSrcset) != nil):
		return Item{Node: n, Shape: ShapePicture}, true
	case s.GroupAttr != "" && n.HasAttribute(s.GroupAttr):
		return Item{Node: n, Shape: ShapeGroup}, true
	case n.HasAttribute(s.SrcAttr):
		return Item{Node: n, Shape: ShapeImage}, true
	}
	return Item{}, false
}
