package js

import (
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"lazyimg/pkg/html"
)

// Engine executes JavaScript against an HTML document's DOM. It is not safe
// for concurrent use; the hosting window calls it from its event loop only.
type Engine struct {
	vm  *goja.Runtime
	log *zap.Logger
	dom *domContext
}

// New creates a new JS engine with a fresh goja runtime. A nil logger
// discards console output.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := goja.New()
	e := &Engine{vm: vm, log: log}

	c := &consoleAPI{log: log.Named("console")}
	c.register(vm)

	return e
}

// Attach registers the document global for doc. Later calls replace it.
func (e *Engine) Attach(doc *html.Document) {
	e.dom = registerDocument(e.vm, doc)
}

// Execute runs all scripts from the document in order, attaching the
// document first if needed. The first failing script stops execution.
func (e *Engine) Execute(doc *html.Document) error {
	if e.dom == nil || e.dom.doc != doc {
		e.Attach(doc)
	}
	for i, script := range doc.Scripts {
		if _, err := e.vm.RunString(script); err != nil {
			return fmt.Errorf("script %d: %w", i, err)
		}
	}
	return nil
}

// Eval runs a single script and returns its completion value exported to Go.
func (e *Engine) Eval(src string) (any, error) {
	v, err := e.vm.RunString(src)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// Reevaluate asks a page-provided responsive image polyfill to pick up
// changed source sets. It calls picturefill({reevaluate: true}) when the
// page defines that global and does nothing otherwise.
func (e *Engine) Reevaluate() {
	fn, ok := goja.AssertFunction(e.vm.Get("picturefill"))
	if !ok {
		return
	}
	opts := e.vm.NewObject()
	_ = opts.Set("reevaluate", true)
	if _, err := fn(goja.Undefined(), opts); err != nil {
		e.log.Warn("picturefill failed", zap.Error(err))
	}
}
