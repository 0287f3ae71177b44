package css

import (
	"strconv"
	"strings"

	"lazyimg/pkg/html"
)

type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

func (s *Style) GetLength(property string) (float64, bool) {
	val, ok := s.Get(property)
	if !ok {
		return 0, false
	}
	return ParseLength(val)
}

// ParseLength parses a pixel length ("100px" or "100"). Other units and
// keywords such as "auto" are rejected.
func ParseLength(val string) (float64, bool) {
	val = strings.TrimSpace(val)
	val = strings.TrimSuffix(val, "px")
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (s *Style) GetMargin() BoxEdge {
	return BoxEdge{
		Top:    s.lengthOrZero("margin-top"),
		Right:  s.lengthOrZero("margin-right"),
		Bottom: s.lengthOrZero("margin-bottom"),
		Left:   s.lengthOrZero("margin-left"),
	}
}

func (s *Style) GetPadding() BoxEdge {
	return BoxEdge{
		Top:    s.lengthOrZero("padding-top"),
		Right:  s.lengthOrZero("padding-right"),
		Bottom: s.lengthOrZero("padding-bottom"),
		Left:   s.lengthOrZero("padding-left"),
	}
}

func (s *Style) lengthOrZero(property string) float64 {
	v, _ := s.GetLength(property)
	return v
}

type PositionType string

const (
	PositionStatic   PositionType = "static"
	PositionRelative PositionType = "relative"
	PositionAbsolute PositionType = "absolute"
	PositionFixed    PositionType = "fixed"
)

// GetPosition returns the position type (default: static)
func (s *Style) GetPosition() PositionType {
	switch v, _ := s.Get("position"); v {
	case "relative":
		return PositionRelative
	case "absolute":
		return PositionAbsolute
	case "fixed":
		return PositionFixed
	}
	return PositionStatic
}

type PositionOffset struct {
	Top, Right, Bottom, Left             float64
	HasTop, HasRight, HasBottom, HasLeft bool
}

func (s *Style) GetPositionOffset() PositionOffset {
	var o PositionOffset
	o.Top, o.HasTop = s.GetLength("top")
	o.Right, o.HasRight = s.GetLength("right")
	o.Bottom, o.HasBottom = s.GetLength("bottom")
	o.Left, o.HasLeft = s.GetLength("left")
	return o
}

// Display returns the display value, "inline" when unset.
func (s *Style) Display() string {
	if d, ok := s.Get("display"); ok {
		return strings.ToLower(d)
	}
	return "inline"
}

// Visibility returns "hidden", "visible" or "" when the property is not set
// on this element (inherit).
func (s *Style) Visibility() string {
	v, _ := s.Get("visibility")
	switch strings.ToLower(v) {
	case "hidden", "collapse":
		return "hidden"
	case "visible":
		return "visible"
	}
	return ""
}

func ParseInlineStyle(styleAttr string) *Style {
	style := NewStyle()
	for _, decl := range strings.Split(styleAttr, ";") {
		property, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if property == "" {
			continue
		}
		switch property {
		case "margin", "padding":
			expandBoxProperty(style, property, value)
		default:
			style.Set(property, value)
		}
	}
	return style
}

// expandBoxProperty expands the 1-4 value margin/padding shorthand.
func expandBoxProperty(style *Style, prefix, value string) {
	parts := strings.Fields(value)
	var t, r, b, l string
	switch len(parts) {
	case 1:
		t, r, b, l = parts[0], parts[0], parts[0], parts[0]
	case 2:
		t, r, b, l = parts[0], parts[1], parts[0], parts[1]
	case 3:
		t, r, b, l = parts[0], parts[1], parts[2], parts[1]
	case 4:
		t, r, b, l = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	style.Set(prefix+"-top", t)
	style.Set(prefix+"-right", r)
	style.Set(prefix+"-bottom", b)
	style.Set(prefix+"-left", l)
}

// ComputeStyle returns the user agent defaults for node overlaid with its
// inline style attribute.
func ComputeStyle(node *html.Node) *Style {
	style := NewStyle()
	applyUserAgentStyles(node, style)
	if attr, ok := node.GetAttribute("style"); ok {
		for k, v := range ParseInlineStyle(attr).Properties {
			style.Set(k, v)
		}
	}
	if _, ok := node.GetAttribute("hidden"); ok {
		style.Set("display", "none")
	}
	return style
}

func applyUserAgentStyles(node *html.Node, style *Style) {
	switch node.TagName {
	case "document", "html", "body", "address", "article", "aside", "blockquote",
		"details", "dialog", "dd", "div", "dl", "dt", "fieldset", "figcaption",
		"figure", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
		"header", "hgroup", "hr", "li", "main", "nav", "ol", "p", "pre",
		"section", "table", "ul":
		style.Set("display", "block")
		if node.TagName == "body" {
			for _, side := range []string{"top", "right", "bottom", "left"} {
				style.Set("margin-"+side, "8px")
			}
		}
	case "head", "title", "meta", "link", "script", "style", "source", "template", "noscript":
		style.Set("display", "none")
	case "img", "picture", "video", "iframe":
		style.Set("display", "inline-block")
	}
}
