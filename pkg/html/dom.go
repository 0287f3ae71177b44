package html

import (
	"sort"
	"strings"
)

type Node struct {
	Type       NodeType
	TagName    string
	Attributes map[string]string
	Text       string
	Children   []*Node
	Parent     *Node

	// observers registered directly on this node
	observers []*registration
}

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

type Document struct {
	Root    *Node
	Scripts []string // bodies of <script> elements in document order
}

func NewDocument() *Document {
	return &Document{
		Root: &Node{
			Type:     ElementNode,
			TagName:  "document",
			Children: make([]*Node, 0),
		},
		Scripts: make([]string, 0),
	}
}

// NewElement returns a detached element with the given tag and attributes.
func NewElement(tag string, attrs map[string]string) *Node {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return &Node{
		Type:       ElementNode,
		TagName:    strings.ToLower(tag),
		Attributes: attrs,
		Children:   make([]*Node, 0),
	}
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	val, ok := n.Attributes[name]
	return val, ok
}

// HasAttribute reports whether the attribute is present, even if empty.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// SetAttribute sets name to value and queues an attribute mutation.
func (n *Node) SetAttribute(name, value string) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	old, had := n.Attributes[name]
	n.Attributes[name] = value
	if had && old == value {
		return
	}
	n.notify(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: name, OldValue: old})
}

// RemoveAttribute deletes name, queueing a mutation if it was present.
func (n *Node) RemoveAttribute(name string) {
	old, ok := n.GetAttribute(name)
	if !ok {
		return
	}
	delete(n.Attributes, name)
	n.notify(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: name, OldValue: old})
}

// Classes returns the whitespace separated entries of the class attribute.
func (n *Node) Classes() []string {
	cls, _ := n.GetAttribute("class")
	return strings.Fields(cls)
}

func (n *Node) HasClass(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range n.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name to the class list unless it is already there.
func (n *Node) AddClass(name string) {
	if name == "" || n.HasClass(name) {
		return
	}
	n.SetAttribute("class", strings.Join(append(n.Classes(), name), " "))
}

func (n *Node) RemoveClass(name string) {
	if !n.HasClass(name) {
		return
	}
	kept := make([]string, 0)
	for _, c := range n.Classes() {
		if c != name {
			kept = append(kept, c)
		}
	}
	n.SetAttribute("class", strings.Join(kept, " "))
}

// AddChild adds a child node and sets up the parent relationship
func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	n.notify(MutationRecord{Type: MutationChildList, Target: n, Added: []*Node{child}})
}

// AppendText creates a text node and adds it as a child
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	n.AddChild(&Node{Type: TextNode, Text: text})
}

// RemoveChild detaches child and returns it, or nil if child is not ours.
func (n *Node) RemoveChild(child *Node) *Node {
	i := n.indexOf(child)
	if i < 0 {
		return nil
	}
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	child.Parent = nil
	n.notify(MutationRecord{Type: MutationChildList, Target: n, Removed: []*Node{child}})
	return child
}

// InsertBefore inserts newChild before refChild. A nil or foreign refChild
// appends. newChild is detached from any previous parent first.
func (n *Node) InsertBefore(newChild, refChild *Node) *Node {
	if newChild.Parent != nil {
		newChild.Parent.RemoveChild(newChild)
	}
	i := -1
	if refChild != nil {
		i = n.indexOf(refChild)
	}
	if i < 0 {
		n.AddChild(newChild)
		return newChild
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = newChild
	newChild.Parent = n
	n.notify(MutationRecord{Type: MutationChildList, Target: n, Added: []*Node{newChild}})
	return newChild
}

// ReplaceChild puts newChild where oldChild was. It returns oldChild, or nil
// when oldChild is not a child of n (in which case nothing changes).
func (n *Node) ReplaceChild(newChild, oldChild *Node) *Node {
	if n.indexOf(oldChild) < 0 {
		return nil
	}
	if newChild.Parent != nil {
		newChild.Parent.RemoveChild(newChild)
	}
	i := n.indexOf(oldChild)
	n.Children[i] = newChild
	newChild.Parent = n
	oldChild.Parent = nil
	n.notify(MutationRecord{
		Type:    MutationChildList,
		Target:  n,
		Added:   []*Node{newChild},
		Removed: []*Node{oldChild},
	})
	return oldChild
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// CloneNode returns a copy of the node without parent or observers.
func (n *Node) CloneNode(deep bool) *Node {
	clone := &Node{
		Type:     n.Type,
		TagName:  n.TagName,
		Text:     n.Text,
		Children: make([]*Node, 0),
	}
	if n.Attributes != nil {
		clone.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			clone.Attributes[k] = v
		}
	}
	if deep {
		for _, child := range n.Children {
			c := child.CloneNode(true)
			c.Parent = clone
			clone.Children = append(clone.Children, c)
		}
	}
	return clone
}

// Contains returns true if other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// IndexInParent returns the position among the parent's children, or -1.
func (n *Node) IndexInParent() int {
	if n.Parent == nil {
		return -1
	}
	return n.Parent.indexOf(n)
}

// Serialize returns the innerHTML of this node.
func (n *Node) Serialize() string {
	var sb strings.Builder
	for _, child := range n.Children {
		serializeNode(&sb, child)
	}
	return sb.String()
}

// SerializeOuter returns the outerHTML of this node.
func (n *Node) SerializeOuter() string {
	var sb strings.Builder
	serializeNode(&sb, n)
	return sb.String()
}

func serializeNode(sb *strings.Builder, n *Node) {
	if n.Type == TextNode {
		sb.WriteString(escapeHTML(n.Text))
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.TagName)

	// deterministic attribute order
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" " + k + `="` + escapeAttr(n.Attributes[k]) + `"`)
	}
	sb.WriteByte('>')
	if isVoidElement(n.TagName) {
		return
	}
	for _, child := range n.Children {
		serializeNode(sb, child)
	}
	sb.WriteString("</" + n.TagName + ">")
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;")
)

func escapeHTML(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

func isVoidElement(tag string) bool {
	switch tag {
	case "br", "hr", "img", "input", "meta", "link", "area", "base",
		"col", "embed", "param", "source", "track", "wbr":
		return true
	}
	return false
}
