package report

import "strings"

type capabilitySection struct {
	name  string
	items []string
}

type Labels struct {
	resultsTitle      string
	description       string
	tags              string
	objects           string
	captureFailed     string
	analysisFailed    string
	capabilitiesTitle string
	capabilities      []capabilitySection
	prompt            string

	// UI strings used by the desktop app.
	CaptureButton string
	CopyButton    string
	SourceLabel   string
	Busy          string
	Copied        string
}

var spanish = Labels{
	resultsTitle:      "RESULTADOS DEL ANÁLISIS:",
	description:       "Descripción",
	tags:              "Etiquetas detectadas",
	objects:           "Objetos detectados",
	captureFailed:     "Error al capturar la imagen",
	analysisFailed:    "Error en el análisis",
	capabilitiesTitle: "CAPACIDADES DE AZURE COMPUTER VISION:",
	capabilities: []capabilitySection{
		{"Descripción de Imágenes", []string{"Genera descripciones completas en lenguaje natural", "Identifica escenas y acciones"}},
		{"Detección de Objetos", []string{"Identifica objetos comunes", "Proporciona coordenadas de ubicación", "Detecta múltiples instancias"}},
		{"Reconocimiento de Texto (OCR)", []string{"Lee texto impreso y manuscrito", "Soporta múltiples idiomas", "Extrae texto de imágenes"}},
		{"Análisis Facial", []string{"Detecta rostros y atributos", "Estima edad y emociones", "Identifica accesorios"}},
		{"Detección de Marcas", []string{"Reconoce logos y marcas comerciales", "Identifica productos"}},
		{"Análisis de Color", []string{"Detecta colores dominantes", "Identifica si es B/N o color", "Determina esquemas de color"}},
		{"Categorización de Contenido", []string{"Clasifica escenas y contextos", "Detecta contenido para adultos", "Identifica tipos de imágenes"}},
		{"Etiquetado de Imágenes", []string{"Genera tags descriptivos", "Identifica características clave", "Proporciona niveles de confianza"}},
	},
	prompt:        "Presiona 'Capturar y Analizar' para comenzar.",
	CaptureButton: "Capturar y Analizar",
	CopyButton:    "Copiar",
	SourceLabel:   "Fuente",
	Busy:          "Analizando...",
	Copied:        "Copiado al portapapeles",
}

var english = Labels{
	resultsTitle:      "ANALYSIS RESULTS:",
	description:       "Description",
	tags:              "Detected tags",
	objects:           "Detected objects",
	captureFailed:     "Failed to capture the image",
	analysisFailed:    "Analysis failed",
	capabilitiesTitle: "AZURE COMPUTER VISION CAPABILITIES:",
	capabilities: []capabilitySection{
		{"Image description", []string{"Generates full natural-language descriptions", "Identifies scenes and actions"}},
		{"Object detection", []string{"Identifies common objects", "Provides location coordinates", "Detects multiple instances"}},
		{"Text recognition (OCR)", []string{"Reads printed and handwritten text", "Supports many languages", "Extracts text from images"}},
		{"Face analysis", []string{"Detects faces and attributes", "Estimates age and emotions", "Identifies accessories"}},
		{"Brand detection", []string{"Recognizes logos and brands", "Identifies products"}},
		{"Color analysis", []string{"Detects dominant colors", "Tells black and white from color", "Determines color schemes"}},
		{"Content categorization", []string{"Classifies scenes and contexts", "Detects adult content", "Identifies image types"}},
		{"Image tagging", []string{"Generates descriptive tags", "Identifies key features", "Provides confidence levels"}},
	},
	prompt:        "Press 'Capture and Analyze' to start.",
	CaptureButton: "Capture and Analyze",
	CopyButton:    "Copy",
	SourceLabel:   "Source",
	Busy:          "Analyzing...",
	Copied:        "Copied to clipboard",
}

func labelsFor(lang string) Labels {
	if strings.HasPrefix(strings.ToLower(lang), "es") {
		return spanish
	}
	return english
}

// UI returns the button and status strings for lang.
func UI(lang string) Labels {
	return labelsFor(lang)
}
