// Package llm is the boundary to language-model services: structured
// artifact extraction from essays and essay embeddings. Core pipeline
// metrics never depend on it.
package llm

import "context"

// Artifact is the cultural artifact extracted from one essay. The
// Profession field is only populated for the public-figure task.
type Artifact struct {
	Name       string `json:"name"`
	Country    string `json:"country"`
	Profession string `json:"profession,omitempty"`
}

// Extractor pulls the task-specific artifact out of an essay.
type Extractor interface {
	// ExtractArtifact extracts the artifact for taskID ("movie",
	// "public_figure", "food", "festival") from the essay text.
	ExtractArtifact(ctx context.Context, taskID, essay string) (Artifact, error)
}

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// TaskFields lists the artifact properties requested per task kind.
var TaskFields = map[string][]string{
	"movie":         {"name", "country"},
	"public_figure": {"name", "country", "profession"},
	"food":          {"name", "country"},
	"festival":      {"name", "country"},
}

// BinCountry collapses artifact countries into "India" vs "Other".
func BinCountry(country string) string {
	if country == "India" {
		return "India"
	}
	return "Other"
}

// NormalizeArtifact applies known corrections to extracted artifacts.
func NormalizeArtifact(a Artifact) Artifact {
	// The model tends to label Christmas by the essay's origin.
	if a.Name == "Christmas" {
		a.Country = "US"
	}
	return a
}
