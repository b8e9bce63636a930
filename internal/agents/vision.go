// ABOUTME: Vision agent: multimodal image analysis through vision-capable providers.
// ABOUTME: Reports file structure deterministically when no such provider exists.

package agents

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/model"
)

// maxImageBytes caps a single attachment at 10MB.
const maxImageBytes = 10 << 20

// Accepted extensions and the media type each one implies.
var visionFormats = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

const visionCapabilitiesReply = `I analyze images and other visual content. I can help with:

- Image description: objects, people, scenes, colors, and composition
- Visual question answering about image content
- Text extraction from images
- Scene and activity understanding
- Comparing multiple images

Send an image through the multimodal endpoint along with your question.`

const visionDefaultPrompt = `Provide a comprehensive analysis of this image:

1. Main subject and overall scene
2. Key objects, people, or elements and their arrangement
3. Dominant colors, lighting, and composition
4. Any activity or interaction taking place
5. Any visible text, transcribed
6. Notable or unusual details`

// VisionAgent analyzes image attachments. Text-only messages get a
// capabilities reply; image analysis goes through the first provider that
// implements model.ImageDescriber.
type VisionAgent struct {
	*agent.Core

	models *model.Manager
}

var (
	_ agent.Agent               = (*VisionAgent)(nil)
	_ agent.MultimodalProcessor = (*VisionAgent)(nil)
)

// NewVisionAgent builds the image analysis agent.
func NewVisionAgent(deps Deps) *VisionAgent {
	provider, modelID := visionIdentity(deps.Models)
	core := agent.NewCore(agent.Info{
		ID:          "vision_agent",
		Name:        "Vision Analyzer",
		Description: "Analyzes images and visual content, providing detailed descriptions and insights",
		Type:        "vision",
		Capabilities: []string{
			"image_analysis",
			"visual_description",
			"object_detection",
			"scene_understanding",
			"text_extraction_from_images",
			"visual_question_answering",
			"image_comparison",
		},
		ModelProvider: provider,
		ModelName:     modelID,
	}, agent.CoreConfig{Logger: deps.Logger, MaxMessages: deps.MaxHistory})
	return &VisionAgent{Core: core, models: deps.Models}
}

// Process handles text-only messages by explaining what the agent can do
// with an image.
func (v *VisionAgent) Process(ctx context.Context, message, sessionID string, extra map[string]any) (*agent.Response, error) {
	start, err := v.Begin(sessionID, message)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(message)
	content := fmt.Sprintf("I received your message: %q. I'm designed for image analysis: send an image through the multimodal endpoint along with your question.", message)
	if strings.Contains(lower, "image") || strings.Contains(lower, "picture") ||
		strings.Contains(lower, "photo") || strings.Contains(lower, "visual") {
		content = visionCapabilitiesReply
	}

	resp := &agent.Response{
		Content:  content,
		Metadata: map[string]any{"message_type": "text_only"},
	}
	return v.Finish(resp, sessionID, start, nil)
}

// ProcessMultimodal validates the attachments and analyzes the first
// acceptable image.
func (v *VisionAgent) ProcessMultimodal(ctx context.Context, message string, files []agent.Attachment, sessionID string) (*agent.Response, error) {
	start, err := v.Begin(sessionID, message)
	if err != nil {
		return nil, err
	}

	images := validImages(files)
	if len(images) == 0 {
		resp := &agent.Response{
			Content:  "No valid image files were provided. Supported formats: jpg, jpeg, png, gif, bmp, webp, up to 10MB each.",
			Metadata: map[string]any{"reason": "no_valid_images"},
		}
		return v.Finish(resp, sessionID, start, nil)
	}

	img := images[0]
	prompt := visionPrompt(message)

	var content, modelID string
	if describer, ok := v.describer(); ok {
		result, err := describer.DescribeImage(ctx, model.Image{MediaType: img.mediaType, Data: img.file.Data}, prompt)
		if err != nil {
			return v.Finish(nil, sessionID, start, fmt.Errorf("analyze image: %w", err))
		}
		content = result.Text
		modelID = result.Model
	} else {
		content = structuralDescription(img, message)
	}

	meta := map[string]any{
		"image_processed": true,
		"image_name":      img.file.Name,
		"image_size":      len(img.file.Data),
		"media_type":      img.mediaType,
	}
	if modelID != "" {
		meta["model"] = modelID
	}
	return v.Finish(&agent.Response{Content: content, Metadata: meta}, sessionID, start, nil)
}

// describer finds a vision-capable provider, preferring the default one.
func (v *VisionAgent) describer() (model.ImageDescriber, bool) {
	if v.models == nil {
		return nil, false
	}
	if p, ok := v.models.Default(); ok {
		if d, ok := p.(model.ImageDescriber); ok {
			return d, true
		}
	}
	for _, name := range v.models.Providers() {
		p, ok := v.models.Provider(name)
		if !ok {
			continue
		}
		if d, ok := p.(model.ImageDescriber); ok {
			return d, true
		}
	}
	return nil, false
}

type validImage struct {
	file      agent.Attachment
	mediaType string
}

// validImages drops oversized or unrecognized attachments, keeping the
// accepted ones in submission order.
func validImages(files []agent.Attachment) []validImage {
	var out []validImage
	for _, f := range files {
		if len(f.Data) == 0 || len(f.Data) > maxImageBytes {
			continue
		}
		mt, ok := imageMediaType(f)
		if !ok {
			continue
		}
		out = append(out, validImage{file: f, mediaType: mt})
	}
	return out
}

// imageMediaType accepts a declared media type from the supported set, or
// falls back to the filename extension.
func imageMediaType(f agent.Attachment) (string, bool) {
	declared := strings.ToLower(f.MediaType)
	for _, allowed := range visionFormats {
		if declared == allowed {
			return declared, true
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
	mt, ok := visionFormats[ext]
	return mt, ok
}

func visionPrompt(message string) string {
	trimmed := strings.TrimSpace(message)
	switch strings.ToLower(trimmed) {
	case "", "analyze", "describe", "what is this":
		return visionDefaultPrompt
	}
	return fmt.Sprintf(`Analyze this image with focus on the following request: %s

Be specific in your observations, reference the visual elements that support your analysis, and read out any text visible in the image.`, trimmed)
}

// structuralDescription is the no-model fallback: whatever can be said
// about the file without understanding its pixels.
func structuralDescription(img validImage, message string) string {
	name := img.file.Name
	if name == "" {
		name = "(unnamed)"
	}

	var b strings.Builder
	b.WriteString("Image received. No vision-capable model is configured, so this reports file structure only:\n")
	fmt.Fprintf(&b, "- File: %s (%s, %d bytes)\n", name, img.mediaType, len(img.file.Data))
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(img.file.Data)); err == nil {
		fmt.Fprintf(&b, "- Dimensions: %dx%d pixels (%s)\n", cfg.Width, cfg.Height, format)
	}
	if msg := strings.TrimSpace(message); msg != "" {
		fmt.Fprintf(&b, "- Request: %s\n", msg)
	}
	b.WriteString("Configure an Anthropic or OpenAI provider to enable full image understanding.")
	return b.String()
}

// visionIdentity reports the first vision-capable model for Info metadata.
func visionIdentity(models *model.Manager) (provider, modelID string) {
	if models == nil {
		return "", ""
	}
	for _, mi := range models.ListModels() {
		if mi.Vision {
			return mi.Provider, mi.ID
		}
	}
	return "", ""
}
