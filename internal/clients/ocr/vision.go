package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/orcha-ai/orcha-backend/internal/clients/gcp"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

type visionClient struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

// NewVisionClient builds the Google Vision backed OCR implementation.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS[_JSON].
func NewVisionClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	client, err := vision.NewImageAnnotatorClient(context.Background(), gcp.ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionClient{
		log:    log.With("service", "VisionOCRClient"),
		client: client,
	}, nil
}

func (c *visionClient) ExtractFromBytes(ctx context.Context, filename string, data []byte, languages []string) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty file")
	}
	languages = normalizeLanguages(languages)

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: data},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
		ImageContext: &visionpb.ImageContext{LanguageHints: languages},
	}

	resp, err := c.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return Result{}, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return Result{Provider: "gcp_vision", Filename: filename, Languages: languages}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return Result{}, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	text := ""
	if r0.FullTextAnnotation != nil {
		text = strings.TrimSpace(r0.FullTextAnnotation.Text)
	}
	return Result{
		Text:      text,
		Provider:  "gcp_vision",
		Filename:  filename,
		Languages: languages,
	}, nil
}

func (c *visionClient) ExtractFromURI(ctx context.Context, uri string, languages []string) (Result, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Result{}, fmt.Errorf("empty uri")
	}
	languages = normalizeLanguages(languages)

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{
			Source: &visionpb.ImageSource{ImageUri: uri},
		},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
		ImageContext: &visionpb.ImageContext{LanguageHints: languages},
	}

	resp, err := c.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return Result{}, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return Result{Provider: "gcp_vision", Languages: languages}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return Result{}, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	text := ""
	if r0.FullTextAnnotation != nil {
		text = strings.TrimSpace(r0.FullTextAnnotation.Text)
	}
	return Result{
		Text:      text,
		Provider:  "gcp_vision",
		Languages: languages,
	}, nil
}
