package gui

import (
	"testing"

	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-vision/src/report"
)

func TestSegmentsFailure(t *testing.T) {
	segs := segments(report.Failure("boom"))
	require.Len(t, segs, 2)

	first := segs[0].(*widget.TextSegment)
	assert.Equal(t, "ERROR: ", first.Text)
	assert.Equal(t, theme.ColorNameError, first.Style.ColorName)
	assert.True(t, first.Style.Inline)

	second := segs[1].(*widget.TextSegment)
	assert.Equal(t, "boom", second.Text)
	assert.False(t, second.Style.Inline)
}

func TestSegmentsBlankLines(t *testing.T) {
	segs := segments(report.Document{{Text: "Title\n\nbody\n", Style: report.Title}})
	var texts []string
	for _, s := range segs {
		texts = append(texts, s.(*widget.TextSegment).Text)
	}
	assert.Equal(t, []string{"Title", " ", "body", " "}, texts)
}

func TestSpanStyles(t *testing.T) {
	assert.True(t, spanStyle(report.Title).TextStyle.Bold)
	assert.Equal(t, theme.ColorNameSuccess, spanStyle(report.Tag).ColorName)
	assert.Equal(t, theme.ColorNameForeground, spanStyle(report.Plain).ColorName)
}
