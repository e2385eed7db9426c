// Package report turns an analysis into styled text for the results panel
// and into plain or JSON output for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"screen-vision/src/vision"
)

type Style int

const (
	Plain Style = iota
	Title
	Subtitle
	Tag
	Error
)

func (s Style) String() string {
	switch s {
	case Title:
		return "title"
	case Subtitle:
		return "subtitle"
	case Tag:
		return "tag"
	case Error:
		return "error"
	default:
		return "plain"
	}
}

// Span is a run of text with one style. Spans are concatenated as is, so
// line breaks are part of the text.
type Span struct {
	Text  string
	Style Style
}

type Document []Span

func (d *Document) add(style Style, text string) {
	*d = append(*d, Span{Text: text, Style: style})
}

// String renders the document without styling.
func (d Document) String() string {
	var b strings.Builder
	for _, s := range d {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Lines splits the document into lines of spans, dropping the newlines.
// Renderers that lay out one widget per line use it.
func (d Document) Lines() []Document {
	lines := []Document{nil}
	for _, s := range d {
		parts := strings.Split(s.Text, "\n")
		for i, p := range parts {
			if i > 0 {
				lines = append(lines, nil)
			}
			if p != "" {
				lines[len(lines)-1] = append(lines[len(lines)-1], Span{Text: p, Style: s.Style})
			}
		}
	}
	return lines
}

// Results formats an analysis: caption, then tags, then objects, each with
// its confidence to two decimals.
func Results(a *vision.Analysis, lang string) Document {
	l := labelsFor(lang)
	var d Document
	d.add(Title, l.resultsTitle+"\n\n")
	if a == nil {
		return d
	}

	if caption := a.Caption(); caption != "" {
		d.add(Subtitle, l.description+": ")
		d.add(Plain, caption+"\n\n")
	}

	if len(a.Tags) > 0 {
		d.add(Subtitle, l.tags+":\n")
		for _, t := range a.Tags {
			d.add(Tag, "• "+t.Name+" ")
			d.add(Plain, fmt.Sprintf("(%.2f)\n", t.Confidence))
		}
	}

	if len(a.Objects) > 0 {
		d.add(Subtitle, "\n"+l.objects+":\n")
		for _, o := range a.Objects {
			d.add(Tag, "• "+o.Object+" ")
			d.add(Plain, fmt.Sprintf("(%.2f)\n", o.Confidence))
		}
	}
	return d
}

// Failure formats an error message for the results panel.
func Failure(msg string) Document {
	return Document{
		{Text: "ERROR: ", Style: Error},
		{Text: msg, Style: Plain},
	}
}

// CaptureFailed and AnalysisFailed prefix err with the localized context.
func CaptureFailed(err error, lang string) Document {
	return Failure(fmt.Sprintf("%s: %v", labelsFor(lang).captureFailed, err))
}

func AnalysisFailed(err error, lang string) Document {
	return Failure(fmt.Sprintf("%s: %v", labelsFor(lang).analysisFailed, err))
}

// Capabilities is the introductory text shown before the first capture.
func Capabilities(lang string) Document {
	l := labelsFor(lang)
	var d Document
	d.add(Title, l.capabilitiesTitle+"\n\n")
	for _, section := range l.capabilities {
		d.add(Subtitle, "• "+section.name+"\n")
		for _, item := range section.items {
			d.add(Plain, "  - "+item+"\n")
		}
		d.add(Plain, "\n")
	}
	d.add(Plain, l.prompt)
	return d
}

// Caption returns a one-line summary: caption followed by the top tags.
func Caption(a *vision.Analysis, maxTags int) string {
	if a == nil {
		return ""
	}
	parts := []string{}
	if c := a.Caption(); c != "" {
		parts = append(parts, c)
	}
	var tags []string
	for i, t := range a.Sorted().Tags {
		if maxTags > 0 && i >= maxTags {
			break
		}
		tags = append(tags, "#"+strings.ReplaceAll(t.Name, " ", "_"))
	}
	if len(tags) > 0 {
		parts = append(parts, strings.Join(tags, " "))
	}
	return strings.Join(parts, "\n")
}

// Output is the machine readable result printed by the CLI.
type Output struct {
	Source    string           `json:"source"`
	Backend   string           `json:"backend"`
	Timestamp string           `json:"timestamp"`
	Duration  float64          `json:"duration_seconds"`
	Caption   string           `json:"caption,omitempty"`
	Analysis  *vision.Analysis `json:"analysis"`
}

func NewOutput(a *vision.Analysis, source, backend string, elapsed time.Duration) Output {
	return Output{
		Source:    source,
		Backend:   backend,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		Caption:   a.Caption(),
		Analysis:  a,
	}
}

func (o Output) JSON() ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}
