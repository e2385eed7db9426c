package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-vision/src/vision"
)

func sample() *vision.Analysis {
	return &vision.Analysis{
		Description: vision.Description{Captions: []vision.Caption{{Text: "un gato en un sofá", Confidence: 0.91}}},
		Tags: []vision.Tag{
			{Name: "gato", Confidence: 0.987},
			{Name: "interior", Confidence: 0.5},
		},
		Objects: []vision.Object{{Object: "cat", Confidence: 0.8712}},
	}
}

func TestResultsSpanish(t *testing.T) {
	got := Results(sample(), "es").String()
	want := "RESULTADOS DEL ANÁLISIS:\n\n" +
		"Descripción: un gato en un sofá\n\n" +
		"Etiquetas detectadas:\n" +
		"• gato (0.99)\n" +
		"• interior (0.50)\n" +
		"\nObjetos detectados:\n" +
		"• cat (0.87)\n"
	assert.Equal(t, want, got)
}

func TestResultsEnglishAndStyles(t *testing.T) {
	doc := Results(sample(), "en-US")
	require.NotEmpty(t, doc)
	assert.Equal(t, Title, doc[0].Style)
	assert.Equal(t, "ANALYSIS RESULTS:\n\n", doc[0].Text)

	var tagSpans []string
	for _, s := range doc {
		if s.Style == Tag {
			tagSpans = append(tagSpans, s.Text)
		}
	}
	assert.Equal(t, []string{"• gato ", "• interior ", "• cat "}, tagSpans)
}

func TestResultsOmitsEmptySections(t *testing.T) {
	got := Results(&vision.Analysis{}, "es").String()
	assert.Equal(t, "RESULTADOS DEL ANÁLISIS:\n\n", got)

	onlyObjects := Results(&vision.Analysis{Objects: []vision.Object{{Object: "dog", Confidence: 0.5}}}, "fr").String()
	assert.NotContains(t, onlyObjects, "Description")
	assert.Contains(t, onlyObjects, "Detected objects:\n• dog (0.50)\n")

	assert.Equal(t, "ANALYSIS RESULTS:\n\n", Results(nil, "en").String())
}

func TestFailure(t *testing.T) {
	doc := Failure("boom")
	require.Len(t, doc, 2)
	assert.Equal(t, Error, doc[0].Style)
	assert.Equal(t, "ERROR: boom", doc.String())

	assert.Equal(t, "ERROR: Error en el análisis: timeout", AnalysisFailed(errors.New("timeout"), "es").String())
	assert.Equal(t, "ERROR: Failed to capture the image: no display", CaptureFailed(errors.New("no display"), "en").String())
}

func TestCapabilities(t *testing.T) {
	es := Capabilities("es").String()
	assert.True(t, strings.HasPrefix(es, "CAPACIDADES DE AZURE COMPUTER VISION:"))
	assert.Contains(t, es, "• Detección de Objetos\n  - Identifica objetos comunes\n")
	assert.True(t, strings.HasSuffix(es, "Presiona 'Capturar y Analizar' para comenzar."))

	assert.Contains(t, Capabilities("en").String(), "Text recognition (OCR)")
}

func TestLines(t *testing.T) {
	doc := Document{
		{Text: "Title\n\n", Style: Title},
		{Text: "a ", Style: Tag},
		{Text: "(0.50)\n", Style: Plain},
	}
	lines := doc.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, Document{{Text: "Title", Style: Title}}, lines[0])
	assert.Empty(t, lines[1])
	assert.Equal(t, "a (0.50)", lines[2].String())
	assert.Empty(t, lines[3])
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "un gato en un sofá\n#gato #interior", Caption(sample(), 5))
	assert.Equal(t, "un gato en un sofá\n#gato", Caption(sample(), 1))
	assert.Equal(t, "#big_dog", Caption(&vision.Analysis{Tags: []vision.Tag{{Name: "big dog"}}}, 0))
	assert.Empty(t, Caption(nil, 3))
}

func TestOutputJSON(t *testing.T) {
	out := NewOutput(sample(), "screen", "Azure Vision AI", 1500*time.Millisecond)
	data, err := out.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "screen", decoded["source"])
	assert.Equal(t, "un gato en un sofá", decoded["caption"])
	assert.InDelta(t, 1.5, decoded["duration_seconds"], 1e-9)
	assert.Contains(t, decoded, "analysis")
}

func TestStyleString(t *testing.T) {
	assert.Equal(t, "title", Title.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "plain", Style(99).String())
}
