package js

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"lazyimg/pkg/html"
)

// domContext holds shared state for DOM bindings of one document. It keeps a
// node-to-proxy cache so the same JS object is returned for the same
// *html.Node (needed for === identity checks).
type domContext struct {
	vm    *goja.Runtime
	doc   *html.Document
	cache map[*html.Node]*goja.Object
	nodes map[*goja.Object]*html.Node
}

func newDOMContext(vm *goja.Runtime, doc *html.Document) *domContext {
	return &domContext{
		vm:    vm,
		doc:   doc,
		cache: make(map[*html.Node]*goja.Object),
		nodes: make(map[*goja.Object]*html.Node),
	}
}

// registerDocument sets up the global `document` object on the goja runtime.
func registerDocument(vm *goja.Runtime, doc *html.Document) *domContext {
	ctx := newDOMContext(vm, doc)

	docObj := vm.NewObject()
	_ = docObj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		return ctx.nullable(doc.Root.GetElementByID(call.Arguments[0].String()))
	})
	_ = docObj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		return ctx.elementArray(doc.Root.ElementsByTag(call.Arguments[0].String()))
	})
	_ = docObj.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		return ctx.elementArray(doc.Root.ElementsByClass(call.Arguments[0].String()))
	})
	_ = docObj.Set("querySelector", ctx.querySelectorFn(doc.Root))
	_ = docObj.Set("querySelectorAll", ctx.querySelectorAllFn(doc.Root))
	_ = docObj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return ctx.elementProxy(html.NewElement(call.Arguments[0].String(), nil))
	})
	_ = docObj.DefineAccessorProperty("body", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return ctx.nullable(doc.Root.FindFirst(func(n *html.Node) bool { return n.TagName == "body" }))
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	_ = vm.Set("document", docObj)
	return ctx
}

// elementArray creates a JS array of Element proxies.
func (ctx *domContext) elementArray(nodes []*html.Node) goja.Value {
	vals := make([]any, len(nodes))
	for i, n := range nodes {
		vals[i] = ctx.elementProxy(n)
	}
	return ctx.vm.NewArray(vals...)
}

func (ctx *domContext) nullable(node *html.Node) goja.Value {
	if node == nil {
		return goja.Null()
	}
	return ctx.elementProxy(node)
}

// elementProxy creates (or retrieves from cache) a JS DynamicObject wrapping an html.Node.
func (ctx *domContext) elementProxy(node *html.Node) *goja.Object {
	if v, ok := ctx.cache[node]; ok {
		return v
	}
	v := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node})
	ctx.cache[node] = v
	ctx.nodes[v] = node
	return v
}

// unwrapNode returns the node behind an element proxy, or nil.
func (ctx *domContext) unwrapNode(val goja.Value) *html.Node {
	if val == nil || goja.IsNull(val) || goja.IsUndefined(val) {
		return nil
	}
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	return ctx.nodes[obj]
}

func (ctx *domContext) querySelectorFn(root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelector': 1 argument required"))
		}
		matches := root.Select(call.Arguments[0].String())
		if len(matches) == 0 {
			return goja.Null()
		}
		return ctx.elementProxy(matches[0])
	}
}

func (ctx *domContext) querySelectorAllFn(root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelectorAll': 1 argument required"))
		}
		return ctx.elementArray(root.Select(call.Arguments[0].String()))
	}
}

// elementAccessor implements goja.DynamicObject to intercept property access
// on DOM element proxies. Writes go through the node's methods so mutation
// observers see them.
type elementAccessor struct {
	ctx  *domContext
	node *html.Node
}

var elementKeys = []string{
	"nodeType", "nodeName", "tagName", "id", "className", "textContent",
	"innerHTML", "outerHTML", "getAttribute", "setAttribute", "hasAttribute",
	"removeAttribute", "children", "parentElement", "classList", "dataset",
	"appendChild", "removeChild", "insertBefore", "remove",
	"querySelector", "querySelectorAll",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.ctx.vm
	n := e.node

	switch key {
	case "nodeType":
		if n.Type == html.TextNode {
			return vm.ToValue(3)
		}
		return vm.ToValue(1)
	case "nodeName", "tagName":
		if n.Type == html.TextNode {
			if key == "nodeName" {
				return vm.ToValue("#text")
			}
			return goja.Undefined()
		}
		return vm.ToValue(strings.ToUpper(n.TagName))
	case "id":
		id, _ := n.GetAttribute("id")
		return vm.ToValue(id)
	case "className":
		cls, _ := n.GetAttribute("class")
		return vm.ToValue(cls)
	case "textContent":
		return vm.ToValue(getTextContent(n))
	case "innerHTML":
		return vm.ToValue(n.Serialize())
	case "outerHTML":
		return vm.ToValue(n.SerializeOuter())
	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return goja.Null()
			}
			val, ok := n.GetAttribute(call.Arguments[0].String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(vm.NewTypeError("Failed to execute 'setAttribute': 2 arguments required"))
			}
			n.SetAttribute(strings.ToLower(call.Arguments[0].String()), call.Arguments[1].String())
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(len(call.Arguments) > 0 && n.HasAttribute(call.Arguments[0].String()))
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 {
				n.RemoveAttribute(call.Arguments[0].String())
			}
			return goja.Undefined()
		})
	case "children":
		var elems []*html.Node
		for _, c := range n.Children {
			if c.Type == html.ElementNode {
				elems = append(elems, c)
			}
		}
		return e.ctx.elementArray(elems)
	case "parentElement":
		if n.Parent != nil && n.Parent.TagName != "document" {
			return e.ctx.elementProxy(n.Parent)
		}
		return goja.Null()
	case "classList":
		return vm.NewDynamicObject(&classListAccessor{vm: vm, node: n})
	case "dataset":
		return vm.NewDynamicObject(&datasetAccessor{vm: vm, node: n})
	case "appendChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := e.argNode(call, 0, "appendChild")
			n.AddChild(child)
			return e.ctx.elementProxy(child)
		})
	case "removeChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := e.argNode(call, 0, "removeChild")
			if n.RemoveChild(child) == nil {
				panic(vm.NewTypeError("Failed to execute 'removeChild': The node to be removed is not a child of this node"))
			}
			return e.ctx.elementProxy(child)
		})
	case "insertBefore":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := e.argNode(call, 0, "insertBefore")
			var ref *html.Node
			if len(call.Arguments) > 1 {
				ref = e.ctx.unwrapNode(call.Arguments[1])
			}
			n.InsertBefore(child, ref)
			return e.ctx.elementProxy(child)
		})
	case "remove":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return goja.Undefined()
		})
	case "querySelector":
		return vm.ToValue(e.ctx.querySelectorFn(n))
	case "querySelectorAll":
		return vm.ToValue(e.ctx.querySelectorAllFn(n))
	}
	return goja.Undefined()
}

func (e *elementAccessor) argNode(call goja.FunctionCall, i int, method string) *html.Node {
	if len(call.Arguments) <= i {
		panic(e.ctx.vm.NewTypeError("Failed to execute '" + method + "': argument " + strconv.Itoa(i+1) + " required"))
	}
	node := e.ctx.unwrapNode(call.Arguments[i])
	if node == nil {
		panic(e.ctx.vm.NewTypeError("Failed to execute '" + method + "': parameter " + strconv.Itoa(i+1) + " is not a Node"))
	}
	return node
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "className":
		e.node.SetAttribute("class", val.String())
	case "id":
		e.node.SetAttribute("id", val.String())
	case "textContent":
		e.clearChildren()
		if s := val.String(); s != "" {
			e.node.AppendText(s)
		}
	case "innerHTML":
		e.clearChildren()
		children, err := html.ParseFragment(val.String())
		if err != nil {
			panic(e.ctx.vm.NewGoError(err))
		}
		for _, c := range children {
			e.node.AddChild(c)
		}
	default:
		return false
	}
	return true
}

func (e *elementAccessor) clearChildren() {
	for len(e.node.Children) > 0 {
		e.node.RemoveChild(e.node.Children[0])
	}
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(key string) bool {
	return false
}

func (e *elementAccessor) Keys() []string {
	return elementKeys
}

// getTextContent returns the concatenated text content of a node and its descendants.
func getTextContent(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Text
	}
	var sb strings.Builder
	for _, child := range node.Children {
		sb.WriteString(getTextContent(child))
	}
	return sb.String()
}

// datasetAccessor maps element.dataset.fooBar to the data-foo-bar attribute.
type datasetAccessor struct {
	vm   *goja.Runtime
	node *html.Node
}

func (d *datasetAccessor) Get(key string) goja.Value {
	if v, ok := d.node.GetAttribute("data-" + camelToKebab(key)); ok {
		return d.vm.ToValue(v)
	}
	return goja.Undefined()
}

func (d *datasetAccessor) Set(key string, val goja.Value) bool {
	d.node.SetAttribute("data-"+camelToKebab(key), val.String())
	return true
}

func (d *datasetAccessor) Has(key string) bool {
	return d.node.HasAttribute("data-" + camelToKebab(key))
}

func (d *datasetAccessor) Delete(key string) bool {
	d.node.RemoveAttribute("data-" + camelToKebab(key))
	return true
}

func (d *datasetAccessor) Keys() []string {
	var keys []string
	for name := range d.node.Attributes {
		if rest, ok := strings.CutPrefix(name, "data-"); ok {
			keys = append(keys, kebabToCamel(rest))
		}
	}
	return keys
}

// camelToKebab converts a JS camelCase property name to kebab-case.
func camelToKebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func kebabToCamel(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
