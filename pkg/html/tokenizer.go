package html

import (
	"fmt"
	gohtml "html"
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenStartTag TokenType = iota
	TokenEndTag
	TokenText
	TokenEOF
)

type Token struct {
	Type        TokenType
	TagName     string
	Attributes  map[string]string
	Text        string
	SelfClosing bool // tag ended with "/>"
}

type Tokenizer struct {
	input string
	pos   int
}

func NewTokenizer(html string) *Tokenizer {
	return &Tokenizer{input: html}
}

func (t *Tokenizer) NextToken() (Token, error) {
	for t.pos < len(t.input) {
		if t.input[t.pos] != '<' {
			tok, ok := t.readText()
			if ok {
				return tok, nil
			}
			continue
		}
		if t.skipMarkupDeclaration() {
			continue
		}
		return t.readTag()
	}
	return Token{Type: TokenEOF}, nil
}

// skipMarkupDeclaration consumes comments, doctypes and processing
// instructions. It reports whether anything was skipped.
func (t *Tokenizer) skipMarkupDeclaration() bool {
	rest := t.input[t.pos:]
	switch {
	case strings.HasPrefix(rest, "<!--"):
		end := strings.Index(rest[4:], "-->")
		if end < 0 {
			t.pos = len(t.input)
		} else {
			t.pos += 4 + end + 3
		}
		return true
	case strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "<?"):
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			t.pos = len(t.input)
		} else {
			t.pos += end + 1
		}
		return true
	}
	return false
}

func (t *Tokenizer) readTag() (Token, error) {
	t.pos++ // '<'

	isEndTag := false
	if t.pos < len(t.input) && t.input[t.pos] == '/' {
		isEndTag = true
		t.pos++
	}
	tagName := t.readName(isTagNameChar)
	if tagName == "" {
		return Token{}, fmt.Errorf("expected tag name at position %d", t.pos)
	}
	if isEndTag {
		end := strings.IndexByte(t.input[t.pos:], '>')
		if end < 0 {
			return Token{}, fmt.Errorf("unterminated end tag </%s>", tagName)
		}
		t.pos += end + 1
		return Token{Type: TokenEndTag, TagName: tagName}, nil
	}

	tok := Token{Type: TokenStartTag, TagName: tagName, Attributes: make(map[string]string)}
	for {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			return Token{}, fmt.Errorf("unexpected EOF in <%s>", tagName)
		}
		switch t.input[t.pos] {
		case '>':
			t.pos++
			return tok, nil
		case '/':
			t.pos++
			t.skipWhitespace()
			if t.pos < len(t.input) && t.input[t.pos] == '>' {
				t.pos++
				tok.SelfClosing = true
				return tok, nil
			}
			continue
		}
		name, value, err := t.readAttribute()
		if err != nil {
			return Token{}, err
		}
		if _, dup := tok.Attributes[name]; !dup {
			tok.Attributes[name] = value
		}
	}
}

func (t *Tokenizer) readName(valid func(byte) bool) string {
	start := t.pos
	for t.pos < len(t.input) && valid(t.input[t.pos]) {
		t.pos++
	}
	return strings.ToLower(t.input[start:t.pos])
}

func (t *Tokenizer) readAttribute() (string, string, error) {
	name := t.readName(isAttributeNameChar)
	if name == "" {
		return "", "", fmt.Errorf("expected attribute name at position %d", t.pos)
	}
	t.skipWhitespace()
	if t.pos >= len(t.input) || t.input[t.pos] != '=' {
		return name, "", nil
	}
	t.pos++
	t.skipWhitespace()
	if t.pos >= len(t.input) {
		return "", "", fmt.Errorf("expected value for attribute %q", name)
	}

	var raw string
	if q := t.input[t.pos]; q == '"' || q == '\'' {
		end := strings.IndexByte(t.input[t.pos+1:], q)
		if end < 0 {
			return "", "", fmt.Errorf("unterminated value for attribute %q", name)
		}
		raw = t.input[t.pos+1 : t.pos+1+end]
		t.pos += end + 2
	} else {
		start := t.pos
		for t.pos < len(t.input) && !unicode.IsSpace(rune(t.input[t.pos])) && t.input[t.pos] != '>' {
			t.pos++
		}
		raw = t.input[start:t.pos]
	}
	return name, gohtml.UnescapeString(raw), nil
}

// readText reads up to the next '<'. Whitespace-only runs between tags are
// dropped (ok is false); other runs are collapsed but keep a boundary space.
func (t *Tokenizer) readText() (Token, bool) {
	start := t.pos
	if end := strings.IndexByte(t.input[t.pos:], '<'); end >= 0 {
		t.pos += end
	} else {
		t.pos = len(t.input)
	}
	raw := t.input[start:t.pos]
	if strings.TrimSpace(raw) == "" {
		return Token{}, false
	}
	return Token{Type: TokenText, Text: gohtml.UnescapeString(normalizeWhitespace(raw))}, true
}

func normalizeWhitespace(s string) string {
	out := strings.Join(strings.Fields(s), " ")
	if unicode.IsSpace(rune(s[0])) {
		out = " " + out
	}
	if unicode.IsSpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

// ReadRawUntil returns the raw content up to the closing tag of a raw text
// element (script, style) and consumes the closing tag. Without a closing tag
// the rest of the input is returned.
func (t *Tokenizer) ReadRawUntil(endTag string) string {
	rest := t.input[t.pos:]
	needle := "</" + endTag
	idx := -1
	for i := 0; i+len(needle) <= len(rest); i++ {
		if rest[i] == '<' && strings.EqualFold(rest[i:i+len(needle)], needle) {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.pos = len(t.input)
		return rest
	}
	content := rest[:idx]
	t.pos += idx
	if gt := strings.IndexByte(t.input[t.pos:], '>'); gt >= 0 {
		t.pos += gt + 1
	} else {
		t.pos = len(t.input)
	}
	return content
}

func isTagNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isAttributeNameChar(c byte) bool {
	return isTagNameChar(c) || c == ':' || c == '.'
}
