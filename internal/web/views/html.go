package views

import (
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a-h/templ"
)

// htmlWriter keeps the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *htmlWriter {
	return &htmlWriter{w: w}
}

func (hw *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, p)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) int(n int) {
	hw.raw(strconv.Itoa(n))
}

func (hw *htmlWriter) csrfField(token string) {
	if token == "" {
		return
	}
	hw.raw(`<input type="hidden" name="csrf_token" value="`, templ.EscapeString(token), `">`)
}

func (hw *htmlWriter) alert(kind, message string) {
	if message == "" {
		return
	}
	hw.raw(`<div class="alert alert-`, kind, `" role="alert">`)
	hw.text(message)
	hw.raw(`</div>`)
}

// Capitalize upper-cases the first letter, as the header shows the username.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func pct(value, max int) string {
	if max <= 0 {
		return "0"
	}
	return strconv.Itoa(value * 100 / max)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
