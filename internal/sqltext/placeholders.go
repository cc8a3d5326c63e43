package sqltext

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder is one occurrence of a bind variable in statement text.
type Placeholder struct {
	// Name is the normalized bind name, without the leading colon.
	Name string
	// Offset is the byte offset of the colon.
	Offset int
	// Length is the byte length of the placeholder including the colon.
	Length int
}

// NormalizeName folds a bind name to upper case.
//
// strings.ToUpper applies the Unicode simple case mapping and does not depend
// on the process locale, so "aàáâãäå" always becomes "AÀÁÂÃÄÅ". Characters
// without an upper-case form are kept unchanged.
func NormalizeName(name string) string {
	return strings.ToUpper(name)
}

// Placeholders lists every bind placeholder in text in order of appearance,
// repeats included. String literals, quoted identifiers, comments, the
// PL/SQL assignment operator, PostgreSQL "::" casts, array slices such as
// arr[1:2] and dollar-quoted bodies are not placeholders.
func Placeholders(text string) []Placeholder {
	var out []Placeholder
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'':
			i = skipQuoted(text, i, '\'')
		case c == '"':
			i = skipQuoted(text, i, '"')
		case hasPrefixAt(text, i, "--"):
			i = skipLine(text, i)
		case hasPrefixAt(text, i, "/*"):
			i = skipBlock(text, i)
		case c == '$' && !followsWord(text, i):
			i = skipDollarQuoted(text, i)
		case hasPrefixAt(text, i, "::") || hasPrefixAt(text, i, ":="):
			i += 2
		case c == ':' && (followsWord(text, i) || (i > 0 && text[i-1] == ']')):
			i++
		case c == ':':
			n := scanName(text, i+1)
			if n == 0 {
				i++
				continue
			}
			out = append(out, Placeholder{
				Name:   NormalizeName(text[i+1 : i+1+n]),
				Offset: i,
				Length: n + 1,
			})
			i += n + 1
		default:
			i++
		}
	}
	return out
}

// Rewrite replaces every placeholder in text with the string returned by
// repl. The placeholders must come from Placeholders(text).
func Rewrite(text string, placeholders []Placeholder, repl func(Placeholder) string) string {
	if len(placeholders) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, p := range placeholders {
		b.WriteString(text[last:p.Offset])
		b.WriteString(repl(p))
		last = p.Offset + p.Length
	}
	b.WriteString(text[last:])
	return b.String()
}

// scanName returns the byte length of the bind name starting at i.
func scanName(text string, i int) int {
	start := i
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i == start {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return 0
			}
		} else if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' && r != '#' {
			break
		}
		i += size
	}
	return i - start
}

func skipQuoted(text string, i int, quote byte) int {
	for i++; i < len(text); i++ {
		if text[i] != quote {
			continue
		}
		if i+1 < len(text) && text[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(text)
}

// followsWord reports whether the byte at i directly follows an identifier
// or number character.
func followsWord(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' || r == '#'
}

// skipDollarQuoted skips a $tag$ ... $tag$ body starting at i. A '$' that
// does not open a tag, such as the $1 parameter, is skipped alone.
func skipDollarQuoted(text string, i int) int {
	j := i + 1
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		if j == i+1 && unicode.IsDigit(r) {
			return i + 1
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		j += size
	}
	if j >= len(text) || text[j] != '$' {
		return i + 1
	}
	tag := text[i : j+1]
	if n := strings.Index(text[j+1:], tag); n >= 0 {
		return j + 1 + n + len(tag)
	}
	return len(text)
}

func skipLine(text string, i int) int {
	if n := strings.IndexByte(text[i:], '\n'); n >= 0 {
		return i + n + 1
	}
	return len(text)
}

func skipBlock(text string, i int) int {
	if n := strings.Index(text[i+2:], "*/"); n >= 0 {
		return i + 2 + n + 2
	}
	return len(text)
}

func hasPrefixAt(text string, i int, prefix string) bool {
	return strings.HasPrefix(text[i:], prefix)
}
