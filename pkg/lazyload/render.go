package lazyload

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"lazyimg/pkg/html"
)

// LoadFunc is called after original was replaced by the loaded image.
type LoadFunc func(original, image *html.Node)

// FailFunc is called when the deferred source of node could not be loaded.
type FailFunc func(node *html.Node, src string, err error)

// Renderer moves items from the pending to the loaded state.
type Renderer struct {
	env    Env
	log    *zap.Logger
	onLoad LoadFunc
	onFail FailFunc
}

// Render performs the transition for it using settings s. Single images are
// replaced once their preload completes, possibly on a later frame; picture
// items switch their source sets immediately.
func (r *Renderer) Render(it Item, s Settings) {
	if it.Node == nil {
		return
	}
	if it.Shape == ShapePicture {
		r.renderPicture(it.Node, s)
		return
	}
	for _, target := range targets(it, s) {
		r.schedule(target, s)
	}
}

// targets resolves the nodes carrying the deferred source. A missing
// attribute yields no targets.
func targets(it Item, s Settings) []*html.Node {
	hasSrc := func(n *html.Node) bool { return n.HasAttribute(s.SrcAttr) }
	switch it.Shape {
	case ShapeGroup:
		var out []*html.Node
		if hasSrc(it.Node) {
			out = append(out, it.Node)
		}
		return append(out, it.Node.FindAll(hasSrc)...)
	default:
		if hasSrc(it.Node) {
			return []*html.Node{it.Node}
		}
		if n := it.Node.FindFirst(hasSrc); n != nil {
			return []*html.Node{n}
		}
	}
	return nil
}

func (r *Renderer) renderPicture(container *html.Node, s Settings) {
	copySrcset := func(n *html.Node) {
		if v, ok := n.GetAttribute(s.SrcsetAttr); ok {
			n.SetAttribute("srcset", v)
		}
	}
	copySrcset(container)
	for _, n := range container.FindAll(func(n *html.Node) bool { return n.HasAttribute(s.SrcsetAttr) }) {
		copySrcset(n)
	}
	container.AddClass(s.LoadedClass)
	if r.env.Responsive != nil {
		r.env.Responsive.Reevaluate()
	}
}

func (r *Renderer) schedule(node *html.Node, s Settings) {
	if r.env.Frames != nil {
		r.env.Frames.RequestFrame(func() { r.load(node, s) })
		return
	}
	r.load(node, s)
}

func (r *Renderer) load(node *html.Node, s Settings) {
	src, _ := node.GetAttribute(s.SrcAttr)
	if r.env.Preloader == nil {
		r.replace(node, src, s)
		return
	}
	r.env.Preloader.Preload(src, func(err error) {
		if err != nil {
			r.fail(node, src, err, s)
			return
		}
		r.replace(node, src, s)
	})
}

func (r *Renderer) replace(node *html.Node, src string, s Settings) {
	parent := node.Parent
	if parent == nil {
		r.log.Debug("image node detached before load", zap.String("src", src))
		return
	}
	for _, icon := range parent.FindAll(func(n *html.Node) bool {
		return n != node && !n.Contains(node) && n.HasClass(s.PreloaderClass)
	}) {
		if icon.Parent != nil {
			icon.Parent.RemoveChild(icon)
		}
	}

	img := html.NewElement("img", nil)
	for k, v := range node.Attributes {
		switch k {
		case s.SrcAttr, s.SrcsetAttr, "class":
			continue
		}
		img.Attributes[k] = v
	}
	img.Attributes["src"] = src
	classes := slices.DeleteFunc(node.Classes(), func(c string) bool { return c == s.ErrorClass })
	if s.LoadedClass != "" {
		classes = append(classes, s.LoadedClass)
	}
	img.Attributes["class"] = strings.Join(classes, " ")

	parent.ReplaceChild(img, node)
	r.log.Debug("image loaded", zap.String("src", src))
	if r.onLoad != nil {
		r.onLoad(node, img)
	}
}

func (r *Renderer) fail(node *html.Node, src string, err error, s Settings) {
	r.log.Warn("image load failed", zap.String("src", src), zap.Error(err))
	if s.ErrorClass != "" {
		node.AddClass(s.ErrorClass)
	}
	if r.onFail != nil {
		r.onFail(node, src, err)
	}
}
