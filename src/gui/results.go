package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"screen-vision/src/report"
)

// segments lays a report out as rich text, one paragraph per line.
func segments(doc report.Document) []widget.RichTextSegment {
	var out []widget.RichTextSegment
	for _, line := range doc.Lines() {
		if len(line) == 0 {
			out = append(out, &widget.TextSegment{Text: " ", Style: widget.RichTextStyleParagraph})
			continue
		}
		for i, span := range line {
			style := spanStyle(span.Style)
			style.Inline = i < len(line)-1
			out = append(out, &widget.TextSegment{Text: span.Text, Style: style})
		}
	}
	return out
}

func spanStyle(s report.Style) widget.RichTextStyle {
	switch s {
	case report.Title:
		return widget.RichTextStyle{
			ColorName: theme.ColorNameForeground,
			SizeName:  theme.SizeNameSubHeadingText,
			TextStyle: fyne.TextStyle{Bold: true},
		}
	case report.Subtitle:
		return widget.RichTextStyle{
			ColorName: theme.ColorNamePrimary,
			SizeName:  theme.SizeNameText,
			TextStyle: fyne.TextStyle{Bold: true},
		}
	case report.Tag:
		return widget.RichTextStyle{ColorName: theme.ColorNameSuccess, SizeName: theme.SizeNameText}
	case report.Error:
		return widget.RichTextStyle{
			ColorName: theme.ColorNameError,
			SizeName:  theme.SizeNameText,
			TextStyle: fyne.TextStyle{Bold: true},
		}
	default:
		return widget.RichTextStyle{ColorName: theme.ColorNameForeground, SizeName: theme.SizeNameText}
	}
}

// darkTheme forces the dark variant so text reads on the black panel.
type darkTheme struct {
	fyne.Theme
}

func (t darkTheme) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, theme.VariantDark)
}
