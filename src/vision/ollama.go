package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"screen-vision/src/logutil"
)

const (
	ollamaTimeout = 300 * time.Second
	// Longest stretch of model output written to the log.
	maxLoggedOutput = 500
)

type OllamaConfig struct {
	URL        string
	Model      string
	Language   string
	HTTPClient *http.Client
}

// OllamaClient asks a local multimodal model for the same analysis the
// cloud service returns: a caption, tags and object boxes.
type OllamaClient struct {
	client   *api.Client
	model    string
	language string
}

func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: ollama model is required", ErrNotConfigured)
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama URL %q", cfg.URL)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaClient{
		client:   api.NewClient(base, httpClient),
		model:    cfg.Model,
		language: cfg.Language,
	}, nil
}

func (c *OllamaClient) Name() string { return "Ollama " + c.model }

func (c *OllamaClient) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	if len(image) == 0 {
		return nil, errors.New("image is empty")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ollamaTimeout)
		defer cancel()
	}

	width, height, format := imageSize(image)

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{{
			Role:    "user",
			Content: analysisPrompt(c.language),
			Images:  []api.ImageData{api.ImageData(image)},
		}},
		Stream:  &stream,
		Format:  json.RawMessage(`"json"`),
		Options: map[string]any{"temperature": 0.1},
	}

	var content string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("empty response from ollama")
	}

	analysis, err := parseModelOutput(content, width, height)
	if err != nil {
		log.Printf("Ollama: %s returned an unusable response: %s", c.model, logutil.SanitizeForLog(content, maxLoggedOutput))
		return nil, err
	}
	analysis.Metadata = Metadata{Width: width, Height: height, Format: format}
	analysis.ModelVersion = c.model
	return analysis, nil
}

func analysisPrompt(lang string) string {
	return "Analyze this image. Respond with ONLY a JSON object of the form\n" +
		`{"description": "<one sentence>", "tags": [{"name": "<tag>", "confidence": <0..1>}], ` +
		`"objects": [{"object": "<name>", "confidence": <0..1>, "box": {"x": <0..1>, "y": <0..1>, "w": <0..1>, "h": <0..1>}}]}` + "\n" +
		"Box coordinates are fractions of the image width and height, origin top-left.\n" +
		"Write description, tags and object names in " + languageName(lang) + "."
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "es":
		return "Spanish"
	case "en", "":
		return "English"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "pt":
		return "Portuguese"
	case "it":
		return "Italian"
	default:
		return "the language with code " + code
	}
}

func imageSize(data []byte) (int, int, string) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, ""
	}
	return cfg.Width, cfg.Height, format
}

type modelOutput struct {
	Description string            `json:"description"`
	Tags        []json.RawMessage `json:"tags"`
	Objects     []struct {
		Object     string  `json:"object"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Box        struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			W float64 `json:"w"`
			H float64 `json:"h"`
		} `json:"box"`
	} `json:"objects"`
}

// parseModelOutput converts the model's JSON into an Analysis, scaling the
// normalized boxes to the pixel size of the image.
func parseModelOutput(raw string, width, height int) (*Analysis, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model returned non-JSON response: %.80q", raw)
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	a := &Analysis{}
	if d := strings.TrimSpace(out.Description); d != "" {
		a.Description.Captions = []Caption{{Text: d, Confidence: 1}}
	}

	for _, rawTag := range out.Tags {
		var name string
		if err := json.Unmarshal(rawTag, &name); err == nil {
			a.Tags = append(a.Tags, Tag{Name: name, Confidence: 1})
			continue
		}
		var tag Tag
		if err := json.Unmarshal(rawTag, &tag); err == nil && tag.Name != "" {
			tag.Confidence = clamp01(tag.Confidence)
			a.Tags = append(a.Tags, tag)
		}
	}
	for _, t := range a.Tags {
		a.Description.Tags = append(a.Description.Tags, t.Name)
	}

	for _, o := range out.Objects {
		name := o.Object
		if name == "" {
			name = o.Label
		}
		if name == "" {
			continue
		}
		a.Objects = append(a.Objects, Object{
			Object:     name,
			Confidence: clamp01(o.Confidence),
			Rectangle:  toPixels(o.Box.X, o.Box.Y, o.Box.W, o.Box.H, width, height),
		})
	}
	return a, nil
}

func toPixels(x, y, w, h float64, width, height int) Rectangle {
	x, y = clamp01(x), clamp01(y)
	w, h = math.Min(clamp01(w), 1-x), math.Min(clamp01(h), 1-y)
	fw, fh := float64(width), float64(height)
	return Rectangle{
		X: int(math.Round(x * fw)),
		Y: int(math.Round(y * fh)),
		W: int(math.Round(w * fw)),
		H: int(math.Round(h * fh)),
	}
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON strips code fences, comments and trailing commas and
// keeps only the outermost object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")
	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
