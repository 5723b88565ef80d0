package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Aspect ratio sets differ per modality: the image models accept six values
// (Auto delegates the choice to the model), the video model exactly two.
var (
	ImageAspectRatios = []string{"Auto", "1:1", "16:9", "9:16", "4:3", "3:4"}
	VideoAspectRatios = []string{"16:9", "9:16"}
)

// ValidImageAspect reports whether ratio is allowed for image generation.
func ValidImageAspect(ratio string) bool {
	return containsRatio(ImageAspectRatios, ratio)
}

// ValidVideoAspect reports whether ratio is allowed for video generation.
func ValidVideoAspect(ratio string) bool {
	return containsRatio(VideoAspectRatios, ratio)
}

func containsRatio(set []string, ratio string) bool {
	for _, r := range set {
		if r == ratio {
			return true
		}
	}
	return false
}

// InlineImage is a decoded seed or input image: raw bytes plus MIME type.
type InlineImage struct {
	Data []byte
	MIME string
}

// ParseDataURL decodes a data URL of the form data:<mime>;base64,<payload>
// into an InlineImage.
func ParseDataURL(url string) (*InlineImage, error) {
	const prefix = "data:"
	if !strings.HasPrefix(url, prefix) {
		return nil, E(KindValidation, "seed_image_invalid", "not a data URL")
	}
	rest := url[len(prefix):]
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return nil, E(KindValidation, "seed_image_invalid", "missing base64 marker")
	}
	mime := rest[:sep]
	payload := rest[sep+len(";base64,"):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, Wrap(KindValidation, "seed_image_invalid", err)
	}
	if mime == "" {
		mime = "image/png"
	}
	return &InlineImage{Data: data, MIME: mime}, nil
}

// DataURL re-encodes the image as a data URL.
func (i *InlineImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIME, base64.StdEncoding.EncodeToString(i.Data))
}

// GeneratedArtifact is the immutable result of a completed generation.
// At most one of ImageURL/VideoURL is set; ImageOptions carries the
// candidate set when a fan-out produced several variants; SecondaryURL
// retains an intermediate stage output for audit and comparison.
type GeneratedArtifact struct {
	ImageURL     string   `json:"image_url,omitempty"`
	VideoURL     string   `json:"video_url,omitempty"`
	Text         string   `json:"text,omitempty"`
	SecondaryURL string   `json:"secondary_url,omitempty"`
	ImageOptions []string `json:"image_options,omitempty"`
}

// EffectOption is one entry of the client's effect picker. The full list
// rides along with suggestion queries so relevance ranking happens
// server-side against exactly what the client can offer.
type EffectOption struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HistoryEntry is one append-only record of a completed top-level
// generation, kept most-recent-first for recall and use-as-input flows.
type HistoryEntry struct {
	ID        string            `json:"id"`
	Prompt    string            `json:"prompt"`
	Effect    string            `json:"effect,omitempty"`
	Artifact  GeneratedArtifact `json:"artifact"`
	CreatedAt time.Time         `json:"created_at"`
}
