package js

import (
	"errors"
	"strconv"
	"time"

	"github.com/dop251/goja"

	"lazyimg/pkg/html"
	"lazyimg/pkg/lazyload"
)

// BindLoader exposes l to page scripts as the global `lazyload`:
//
//	lazyload.addItems([selector|elements], [options])
//	lazyload.check()
//	lazyload.renderImage(selector|element)
//	lazyload.listen()
//	lazyload.pending()
//
// Options use the page-facing names offset, throttleInterval (ms),
// loadedClass, preloaderIconClass, errorClass and context.
func (e *Engine) BindLoader(l *lazyload.Loader) error {
	if e.dom == nil {
		return errors.New("js: no document attached")
	}
	vm := e.vm
	obj := vm.NewObject()

	_ = obj.Set("check", func(goja.FunctionCall) goja.Value {
		l.CheckItems()
		return goja.Undefined()
	})
	_ = obj.Set("pending", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(l.Pending())
	})
	_ = obj.Set("listen", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(l.CreateCheckListeners())
	})
	_ = obj.Set("addItems", func(call goja.FunctionCall) goja.Value {
		var override *lazyload.Options
		if len(call.Arguments) > 1 {
			override = e.options(call.Arguments[1])
		}
		settings := l.Settings()
		if override != nil {
			settings = settings.Merge(*override)
		}
		var items []lazyload.Item
		if len(call.Arguments) == 0 || goja.IsUndefined(call.Arguments[0]) || goja.IsNull(call.Arguments[0]) {
			root := settings.Context
			if root == nil {
				root = e.dom.doc.Root
			}
			items = lazyload.Scan(root, settings)
		} else {
			for _, n := range e.nodesOf(call.Arguments[0]) {
				if it, ok := lazyload.Classify(n, settings); ok {
					items = append(items, it)
				}
			}
		}
		l.AddItems(items, override)
		return vm.ToValue(len(items))
	})
	_ = obj.Set("renderImage", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'renderImage': 1 argument required"))
		}
		settings := l.Settings()
		for _, n := range e.nodesOf(call.Arguments[0]) {
			it, ok := lazyload.Classify(n, settings)
			if !ok {
				it = lazyload.Item{Node: n}
			}
			l.RenderImage(it)
		}
		return goja.Undefined()
	})

	return vm.Set("lazyload", obj)
}

// nodesOf resolves a selector string, an element or an array of elements.
func (e *Engine) nodesOf(v goja.Value) []*html.Node {
	if s, ok := v.Export().(string); ok {
		return e.dom.doc.Root.Select(s)
	}
	if n := e.dom.unwrapNode(v); n != nil {
		return []*html.Node{n}
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	// only indices actually present count; length is ignored
	var nodes []*html.Node
	for _, key := range obj.Keys() {
		if i, err := strconv.Atoi(key); err != nil || i < 0 {
			continue
		}
		if n := e.dom.unwrapNode(obj.Get(key)); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (e *Engine) options(v goja.Value) *lazyload.Options {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	var o lazyload.Options
	number := func(key string) (float64, bool) {
		val := obj.Get(key)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			return 0, false
		}
		return val.ToFloat(), true
	}
	text := func(key string) *string {
		val := obj.Get(key)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			return nil
		}
		return lazyload.Ptr(val.String())
	}
	if f, ok := number("offset"); ok {
		o.Offset = &f
	}
	if ms, ok := number("throttleInterval"); ok {
		o.ThrottleInterval = lazyload.Ptr(time.Duration(ms * float64(time.Millisecond)))
	}
	o.LoadedClass = text("loadedClass")
	o.PreloaderClass = text("preloaderIconClass")
	o.ErrorClass = text("errorClass")
	if ctx := obj.Get("context"); ctx != nil {
		o.Context = e.dom.unwrapNode(ctx)
	}
	return &o
}
