// Package slots renders HTML templates by substituting named regions.
//
// A template is parsed once into an ordered list of slots. A slot is either a
// literal token such as {{title}} or the body of an element identified by tag
// and class, such as <h1 class="blog-title">. Values are spliced into the
// original source, so a value is never scanned for markers itself.
package slots

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Slot names understood by the default markers, in substitution order.
const (
	Title   = "title"
	Heading = "heading"
	Date    = "date"
	Content = "content"
)

// Marker describes where a named slot may appear. Token is a literal
// placeholder. Tag and Class select an element whose body is the slot; an
// empty Tag matches any element, an empty Class matches any class.
type Marker struct {
	Name  string
	Token string
	Tag   string
	Class string
}

// DefaultMarkers are the blog template markers, in declared order.
var DefaultMarkers = []Marker{
	{Name: Title, Token: "{{title}}", Tag: "title"},
	{Name: Heading, Token: "{{heading}}", Tag: "h1", Class: "blog-title"},
	{Name: Date, Token: "{{date}}", Class: "blog-date"},
	{Name: Content, Token: "{{content}}", Tag: "div", Class: "blog-content"},
}

// Slot is a located region of the template source: src[Start:End] is
// replaced when the slot is filled.
type Slot struct {
	Name  string
	Start int
	End   int
}

// Template is a parsed template.
type Template struct {
	src   string
	slots []Slot
}

// Parse locates each marker's earliest occurrence in src. A slot whose region
// overlaps the region of a slot declared before it is dropped.
func Parse(src string, markers []Marker) *Template {
	structural := findElements(src, markers)

	t := &Template{src: src}
	for i, m := range markers {
		var best *Slot
		if m.Token != "" {
			if at := strings.Index(src, m.Token); at >= 0 {
				best = &Slot{Name: m.Name, Start: at, End: at + len(m.Token)}
			}
		}
		if s := structural[i]; s != nil && (best == nil || s.Start < best.Start) {
			best = s
		}
		if best == nil || t.overlaps(*best) {
			continue
		}
		t.slots = append(t.slots, *best)
	}
	return t
}

func (t *Template) overlaps(s Slot) bool {
	for _, o := range t.slots {
		if s.Start < o.End && o.Start < s.End {
			return true
		}
		// two empty regions at the same offset
		if s.Start == s.End && o.Start == o.End && s.Start == o.Start {
			return true
		}
	}
	return false
}

// Slots returns the located slots in declared order.
func (t *Template) Slots() []Slot {
	return append([]Slot(nil), t.slots...)
}

// Source returns the unmodified template.
func (t *Template) Source() string { return t.src }

// Execute returns the template with each slot replaced by values[slot.Name].
// Slots without a value are left as they are in the source.
func (t *Template) Execute(values map[string]string) string {
	type edit struct {
		Slot
		value string
	}
	var edits []edit
	for _, s := range t.slots {
		if v, ok := values[s.Name]; ok {
			edits = append(edits, edit{s, v})
		}
	}
	if len(edits) == 0 {
		return t.src
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })

	var b strings.Builder
	b.Grow(len(t.src))
	pos := 0
	for _, e := range edits {
		b.WriteString(t.src[pos:e.Start])
		b.WriteString(e.value)
		pos = e.End
	}
	b.WriteString(t.src[pos:])
	return b.String()
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// open is an element being tracked until its matching end tag.
type open struct {
	marker int
	tag    string
	depth  int
	body   int
}

// findElements walks src once and returns, per marker, the body of the first
// element matching its Tag and Class. Byte offsets come from the raw token
// lengths, so the result indexes the original source.
func findElements(src string, markers []Marker) []*Slot {
	found := make([]*Slot, len(markers))
	tracking := make([]bool, len(markers))
	var stack []*open

	z := html.NewTokenizer(strings.NewReader(src))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF, or malformed input; either way keep what was found
			return found
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, attrs := tagInfo(z)
			if voidElements[name] {
				// never has a body or an end tag
				continue
			}
			for _, o := range stack {
				if o.tag == name {
					o.depth++
				}
			}
			for i, m := range markers {
				if found[i] != nil || tracking[i] || (m.Tag == "" && m.Class == "") {
					continue
				}
				if m.Tag != "" && m.Tag != name {
					continue
				}
				if m.Class != "" && !hasClass(attrs["class"], m.Class) {
					continue
				}
				tracking[i] = true
				stack = append(stack, &open{marker: i, tag: name, depth: 1, body: offset})
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			kept := stack[:0]
			for _, o := range stack {
				if o.tag == string(name) {
					o.depth--
					if o.depth == 0 {
						found[o.marker] = &Slot{Name: markers[o.marker].Name, Start: o.body, End: start}
						tracking[o.marker] = false
						continue
					}
				}
				kept = append(kept, o)
			}
			stack = kept
		}
	}
}

func tagInfo(z *html.Tokenizer) (string, map[string]string) {
	name, more := z.TagName()
	attrs := map[string]string{}
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		if _, dup := attrs[string(k)]; !dup {
			attrs[string(k)] = string(v)
		}
	}
	return string(name), attrs
}

func hasClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}
