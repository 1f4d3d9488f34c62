package codec

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokLSpine
	tokRSpine
	tokComma
	tokPipe
	tokWord
	tokString
	tokNumber

	tokAxon
	tokApical
	tokDendrite
	tokCellBody

	tokColor
	tokFont
	tokMarker

	tokGenerated
	tokHigh
	tokIncomplete
	tokLow
	tokNormal
	tokMidpoint
	tokOrigin
)

var keywords = map[string]tokenKind{
	"Axon":       tokAxon,
	"Apical":     tokApical,
	"Dendrite":   tokDendrite,
	"CellBody":   tokCellBody,
	"Color":      tokColor,
	"Font":       tokFont,
	"Generated":  tokGenerated,
	"High":       tokHigh,
	"Incomplete": tokIncomplete,
	"Low":        tokLow,
	"Normal":     tokNormal,
	"Midpoint":   tokMidpoint,
	"Origin":     tokOrigin,
}

// Neurolucida marker glyphs; each may carry a numeric suffix (Dot3, Circle12)
var markerNames = []string{
	"Dot", "Plus", "Cross", "Splat", "Flower", "Circle", "TriStar", "OpenStar",
	"Asterisk", "SnowFlake", "OpenCircle", "ShadedStar", "FilledStar", "TexacoStar",
	"MoneyGreen", "DarkYellow", "OpenSquare", "OpenDiamond", "CircleArrow",
	"CircleCross", "OpenQuadStar", "DoubleCircle", "FilledSquare", "MalteseCross",
	"FilledCircle", "FilledDiamond", "FilledQuadStar", "OpenUpTriangle",
	"FilledUpTriangle", "OpenDownTriangle", "FilledDownTriangle",
}

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "EOF"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokLSpine:
		return "<("
	case tokRSpine:
		return ")>"
	case tokComma:
		return ","
	case tokPipe:
		return "|"
	case tokWord:
		return "word"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokMarker:
		return "marker"
	}
	for name, kind := range keywords {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string
	line int
}

// tokenize splits Neurolucida text into tokens. Whitespace and ';' comments
// are dropped; the slice always ends with a tokEOF.
func tokenize(path, src string) ([]token, error) {
	var toks []token
	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '<':
			j := i + 1
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\r') {
				j++
			}
			if j >= len(src) || src[j] != '(' {
				return nil, parseErr(path, line, ErrRawData, "unexpected '<'")
			}
			toks = append(toks, token{tokLSpine, src[i : j+1], line})
			i = j + 1
		case c == '(':
			toks = append(toks, token{tokLParen, "(", line})
			i++
		case c == ')':
			if i+1 < len(src) && src[i+1] == '>' {
				toks = append(toks, token{tokRSpine, ")>", line})
				i += 2
			} else {
				toks = append(toks, token{tokRParen, ")", line})
				i++
			}
		case c == ',':
			toks = append(toks, token{tokComma, ",", line})
			i++
		case c == '|':
			toks = append(toks, token{tokPipe, "|", line})
			i++
		case c == '"':
			end := strings.IndexByte(src[i+1:], '"')
			if end < 0 {
				return nil, parseErr(path, line, ErrRawData, "unterminated string")
			}
			text := src[i : i+end+2]
			toks = append(toks, token{tokString, text, line})
			line += strings.Count(text, "\n")
			i += end + 2
		case isNumberStart(src, i):
			j := scanNumber(src, i)
			toks = append(toks, token{tokNumber, src[i:j], line})
			i = j
		case isLetter(c):
			j := i + 1
			for j < len(src) && (isLetter(src[j]) || isDigit(src[j])) {
				j++
			}
			toks = append(toks, token{classifyWord(src[i:j]), src[i:j], line})
			i = j
		default:
			return nil, parseErr(path, line, ErrRawData, "unexpected character %q", c)
		}
	}
	return append(toks, token{tokEOF, "", line}), nil
}

func classifyWord(w string) tokenKind {
	if k, ok := keywords[w]; ok {
		return k
	}
	for _, name := range markerNames {
		if rest, ok := strings.CutPrefix(w, name); ok && allDigits(rest) {
			return tokMarker
		}
	}
	return tokWord
}

func isNumberStart(src string, i int) bool {
	c := src[i]
	if c == '+' || c == '-' {
		i++
		if i >= len(src) {
			return false
		}
		c = src[i]
	}
	if c == '.' {
		return i+1 < len(src) && isDigit(src[i+1])
	}
	return isDigit(c)
}

func scanNumber(src string, i int) int {
	if src[i] == '+' || src[i] == '-' {
		i++
	}
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// lexer is a cursor over a token slice with one token of lookahead
type lexer struct {
	path string
	toks []token
	pos  int
}

func (l *lexer) current() token { return l.toks[l.pos] }

func (l *lexer) peek() token {
	if l.pos+1 < len(l.toks) {
		return l.toks[l.pos+1]
	}
	return l.toks[len(l.toks)-1]
}

func (l *lexer) ended() bool { return l.current().kind == tokEOF }

func (l *lexer) line() int { return l.current().line }

func (l *lexer) advance() error {
	if l.ended() {
		return parseErr(l.path, l.line(), ErrRawData, "unexpected end of file")
	}
	l.pos++
	return nil
}

func (l *lexer) expect(k tokenKind, context string) error {
	if cur := l.current(); cur.kind != k {
		return parseErr(l.path, cur.line, ErrRawData, "%s: expected %s, got %q", context, k, cur.text)
	}
	return nil
}

// consume checks the current token kind and moves past it
func (l *lexer) consume(k tokenKind, context string) error {
	if err := l.expect(k, context); err != nil {
		return err
	}
	return l.advance()
}

// skipSexp moves past the s-expression whose '(' has already been consumed
func (l *lexer) skipSexp() error {
	depth := 1
	for depth > 0 {
		switch l.current().kind {
		case tokEOF:
			return parseErr(l.path, l.line(), ErrRawData, "unbalanced parentheses")
		case tokLParen:
			depth++
		case tokRParen:
			depth--
		}
		if err := l.advance(); err != nil {
			return err
		}
	}
	return nil
}
