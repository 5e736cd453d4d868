// Package markup serializes a render result into one of the supported
// HTML forms. Emitters are pure string templates over the ordered variant
// list; variants with an empty path (recoverable failures upstream) are
// skipped.
package markup

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/picset/picset/internal/render"
)

const (
	ModePicturefill = "picturefill"
	ModePicture     = "picture"
	ModeInterchange = "interchange"
	ModeImg         = "img"
)

// Modes lists the supported serialization modes.
func Modes() []string {
	return []string{ModePicturefill, ModePicture, ModeInterchange, ModeImg}
}

// Valid reports whether mode names a supported serialization.
func Valid(mode string) bool {
	switch mode {
	case ModePicturefill, ModePicture, ModeInterchange, ModeImg:
		return true
	}
	return false
}

// Emit renders the markup for one result. attrs are copied onto the outer
// element; the "alt" attribute additionally reaches the fallback image.
func Emit(mode string, res render.Result, attrs map[string]string) (string, error) {
	switch mode {
	case ModePicturefill:
		return emitPicturefill(res, attrs), nil
	case ModePicture:
		return emitPicture(res, attrs), nil
	case ModeInterchange:
		return emitInterchange(res, attrs), nil
	case ModeImg:
		return emitImg(res, attrs), nil
	default:
		return "", fmt.Errorf("unsupported markup mode: %q", mode)
	}
}

func emitPicturefill(res render.Result, attrs map[string]string) string {
	var b strings.Builder

	b.WriteString("<span data-picture")
	if alt, ok := attrs["alt"]; ok {
		fmt.Fprintf(&b, " data-alt=%q", html.EscapeString(alt))
	}
	writeAttrs(&b, attrs, "alt")
	b.WriteString(">")

	for _, v := range res.Variants {
		if v.Path == "" {
			continue
		}
		if v.Media == "" {
			fmt.Fprintf(&b, "<span data-src=%q></span>", v.Path)
			continue
		}
		fmt.Fprintf(&b, "<span data-src=%q data-media=%q></span>", v.Path, html.EscapeString(v.Media))
	}

	if res.DefaultPath != "" {
		b.WriteString("<noscript>")
		fmt.Fprintf(&b, "<img src=%q", res.DefaultPath)
		if alt, ok := attrs["alt"]; ok {
			fmt.Fprintf(&b, " alt=%q", html.EscapeString(alt))
		}
		b.WriteString("></noscript>")
	}

	b.WriteString("</span>")
	return b.String()
}

func emitPicture(res render.Result, attrs map[string]string) string {
	var b strings.Builder

	b.WriteString("<picture")
	writeAttrs(&b, attrs, "alt")
	b.WriteString(">")

	for _, v := range res.Variants {
		if v.Path == "" || v.Media == "" {
			continue
		}
		fmt.Fprintf(&b, "<source srcset=%q media=%q>", v.Path, html.EscapeString(v.Media))
	}

	if res.DefaultPath != "" {
		fmt.Fprintf(&b, "<img src=%q", res.DefaultPath)
		if alt, ok := attrs["alt"]; ok {
			fmt.Fprintf(&b, " alt=%q", html.EscapeString(alt))
		}
		b.WriteString(">")
	}

	b.WriteString("</picture>")
	return b.String()
}

func emitInterchange(res render.Result, attrs map[string]string) string {
	rules := make([]string, 0, len(res.Variants)+1)
	if res.DefaultPath != "" {
		rules = append(rules, fmt.Sprintf("[%s, (default)]", res.DefaultPath))
	}
	for _, v := range res.Variants {
		if v.Path == "" || v.Media == "" {
			continue
		}
		rules = append(rules, fmt.Sprintf("[%s, (%s)]", v.Path, v.Media))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<img data-interchange=%q", html.EscapeString(strings.Join(rules, ", ")))
	if alt, ok := attrs["alt"]; ok {
		fmt.Fprintf(&b, " alt=%q", html.EscapeString(alt))
	}
	writeAttrs(&b, attrs, "alt")
	b.WriteString(">")

	if res.DefaultPath != "" {
		fmt.Fprintf(&b, "<noscript><img src=%q", res.DefaultPath)
		if alt, ok := attrs["alt"]; ok {
			fmt.Fprintf(&b, " alt=%q", html.EscapeString(alt))
		}
		b.WriteString("></noscript>")
	}
	return b.String()
}

func emitImg(res render.Result, attrs map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<img src=%q", res.DefaultPath)
	if alt, ok := attrs["alt"]; ok {
		fmt.Fprintf(&b, " alt=%q", html.EscapeString(alt))
	}
	writeAttrs(&b, attrs, "alt")
	b.WriteString(">")
	return b.String()
}

// writeAttrs appends HTML attributes in sorted key order so output is
// deterministic regardless of map iteration.
func writeAttrs(b *strings.Builder, attrs map[string]string, skip ...string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		skipped := false
		for _, s := range skip {
			if k == s {
				skipped = true
				break
			}
		}
		if !skipped {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%q", k, html.EscapeString(attrs[k]))
	}
}
