package html

import "strings"

// Walk visits n and its descendants depth first in document order. Returning
// false from fn skips the children of the node just visited.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	// copy so fn may detach nodes while walking
	children := append([]*Node(nil), n.Children...)
	for _, c := range children {
		c.Walk(fn)
	}
}

// FindAll returns the descendant elements of n (not n itself) matching pred.
func (n *Node) FindAll(pred func(*Node) bool) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(x *Node) bool {
			if x.Type == ElementNode && pred(x) {
				out = append(out, x)
			}
			return true
		})
	}
	return out
}

// FindFirst returns the first descendant element matching pred, or nil.
func (n *Node) FindFirst(pred func(*Node) bool) *Node {
	for _, c := range n.Children {
		if c.Type != ElementNode {
			continue
		}
		if pred(c) {
			return c
		}
		if found := c.FindFirst(pred); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) GetElementByID(id string) *Node {
	return n.FindFirst(func(x *Node) bool {
		v, ok := x.GetAttribute("id")
		return ok && v == id
	})
}

func (n *Node) ElementsByClass(class string) []*Node {
	return n.FindAll(func(x *Node) bool { return x.HasClass(class) })
}

func (n *Node) ElementsByTag(tag string) []*Node {
	tag = strings.ToLower(tag)
	return n.FindAll(func(x *Node) bool { return x.TagName == tag })
}

// Select returns descendants matching a single simple selector: "#id",
// ".class", "[attr]", "tag", or a tag followed by one of the others
// ("img.lazy", "img[data-src]").
func (n *Node) Select(selector string) []*Node {
	pred := compileSelector(strings.TrimSpace(selector))
	if pred == nil {
		return nil
	}
	return n.FindAll(pred)
}

func compileSelector(sel string) func(*Node) bool {
	if sel == "" {
		return nil
	}
	tag := sel
	rest := ""
	if i := strings.IndexAny(sel, "#.["); i >= 0 {
		tag, rest = sel[:i], sel[i:]
	}
	tag = strings.ToLower(tag)

	var inner func(*Node) bool
	switch {
	case rest == "":
		inner = func(*Node) bool { return true }
	case rest[0] == '#':
		id := rest[1:]
		inner = func(x *Node) bool {
			v, ok := x.GetAttribute("id")
			return ok && v == id
		}
	case rest[0] == '.':
		cls := rest[1:]
		inner = func(x *Node) bool { return x.HasClass(cls) }
	case rest[0] == '[' && strings.HasSuffix(rest, "]"):
		attr := strings.ToLower(rest[1 : len(rest)-1])
		inner = func(x *Node) bool { return x.HasAttribute(attr) }
	default:
		return nil
	}
	return func(x *Node) bool {
		if tag != "" && tag != "*" && x.TagName != tag {
			return false
		}
		return inner(x)
	}
}
