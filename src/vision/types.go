package vision

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var ErrNotConfigured = errors.New("vision client not configured")

// Analyzer sends one image to a vision backend and returns its analysis.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, image []byte) (*Analysis, error)
}

// Analysis mirrors the Azure Computer Vision v3.2 analyze response. Other
// backends convert into the same shape.
type Analysis struct {
	Categories   []Category  `json:"categories,omitempty"`
	Description  Description `json:"description"`
	Tags         []Tag       `json:"tags,omitempty"`
	Objects      []Object    `json:"objects,omitempty"`
	Metadata     Metadata    `json:"metadata"`
	RequestID    string      `json:"requestId,omitempty"`
	ModelVersion string      `json:"modelVersion,omitempty"`
}

type Category struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type Description struct {
	Tags     []string  `json:"tags,omitempty"`
	Captions []Caption `json:"captions,omitempty"`
}

type Caption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type Tag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Hint       string  `json:"hint,omitempty"`
}

type Object struct {
	Rectangle  Rectangle `json:"rectangle"`
	Object     string    `json:"object"`
	Confidence float64   `json:"confidence"`
	Parent     *Parent   `json:"parent,omitempty"`
}

type Parent struct {
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
	Parent     *Parent `json:"parent,omitempty"`
}

// Rectangle is a bounding box in pixels of the analyzed image.
type Rectangle struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type Metadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format,omitempty"`
}

// Caption returns the first caption text, or "" when there is none.
func (a *Analysis) Caption() string {
	if a == nil || len(a.Description.Captions) == 0 {
		return ""
	}
	return a.Description.Captions[0].Text
}

// Sorted returns a copy with tags and objects ordered by confidence,
// highest first. Equal confidences keep their service order.
func (a *Analysis) Sorted() *Analysis {
	if a == nil {
		return nil
	}
	out := *a
	out.Tags = append([]Tag(nil), a.Tags...)
	out.Objects = append([]Object(nil), a.Objects...)
	sort.SliceStable(out.Tags, func(i, j int) bool { return out.Tags[i].Confidence > out.Tags[j].Confidence })
	sort.SliceStable(out.Objects, func(i, j int) bool { return out.Objects[i].Confidence > out.Objects[j].Confidence })
	return &out
}

// APIError is an error reported by the vision service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("vision API returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vision API error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
