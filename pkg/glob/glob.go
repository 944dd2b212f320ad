// Package glob implements the pattern matcher shared by key listing and
// channel listing.
//
// A pattern is anchored at both ends. '*' matches any run of characters
// (including none), '?' matches exactly one character, and '[...]' is a
// character class. Everything else matches literally.
package glob

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pattern is a compiled glob.
type Pattern struct {
	src string
	re  *regexp.Regexp
}

// Compile turns a glob into a Pattern. An unterminated '[' is treated as a
// literal bracket.
func Compile(pattern string) (*Pattern, error) {
	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		return nil, err
	}
	return &Pattern{src: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic("glob: " + err.Error())
	}
	return p
}

// Match reports whether name satisfies the pattern.
func (p *Pattern) Match(name string) bool {
	return p.re.MatchString(name)
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.src
}

// Match compiles pattern and tests name against it. Invalid patterns never
// match.
func Match(pattern, name string) bool {
	p, err := Compile(pattern)
	if err != nil {
		return false
	}
	return p.Match(name)
}

// HasMeta reports whether pattern contains any glob metacharacter.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// Matcher returns the predicate used for key listing: a glob when the
// pattern has metacharacters, plain substring containment otherwise.
func Matcher(pattern string) (func(string) bool, error) {
	if !HasMeta(pattern) {
		return func(name string) bool {
			return strings.Contains(name, pattern)
		}, nil
	}
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return p.Match, nil
}

func translate(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 8)
	b.WriteString(`^`)

	for i := 0; i < len(pattern); {
		r, size := utf8.DecodeRuneInString(pattern[i:])
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end <= 0 {
				b.WriteString(`\[`)
				break
			}
			class := pattern[i+1 : i+1+end]
			b.WriteByte('[')
			if class[0] == '!' || class[0] == '^' {
				b.WriteByte('^')
				class = class[1:]
			}
			b.WriteString(strings.NewReplacer(`\`, `\\`, `[`, `\[`).Replace(class))
			b.WriteByte(']')
			size = end + 2
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+size]))
		}
		i += size
	}

	b.WriteString(`$`)
	return b.String()
}
