// README: Image label extraction backed by the Cloud Vision annotate endpoint.
package vision

import (
	"context"
	"encoding/base64"
	"log"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

const (
	// labelsPerImage is how many labels one image contributes before merging.
	labelsPerImage = 5
	// maxLabels caps the merged, deduplicated label set.
	maxLabels = 10
)

// annotator is the slice of the Vision API the client needs.
type annotator interface {
	Annotate(ctx context.Context, req *vision.BatchAnnotateImagesRequest) (*vision.BatchAnnotateImagesResponse, error)
}

type restAnnotator struct {
	svc *vision.Service
}

func (a *restAnnotator) Annotate(ctx context.Context, req *vision.BatchAnnotateImagesRequest) (*vision.BatchAnnotateImagesResponse, error) {
	return a.svc.Images.Annotate(req).Context(ctx).Do()
}

// LabelClient extracts descriptive tags from uploaded photos. A failed image
// is skipped, never fatal: label enrichment is strictly best-effort.
type LabelClient struct {
	annotator annotator
}

// NewLabelClient creates a LabelClient. credentialsFile may be empty, in which
// case application-default credentials are used.
func NewLabelClient(ctx context.Context, credentialsFile string) (*LabelClient, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &LabelClient{annotator: &restAnnotator{svc: svc}}, nil
}

// ExtractLabels runs label detection on each image independently and returns
// the deduplicated union, capped at maxLabels. A batch with zero successes
// yields an empty slice — callers treat that as "no enrichment available".
func (c *LabelClient) ExtractLabels(ctx context.Context, images [][]byte) []string {
	var all []string
	processed := 0
	for i, img := range images {
		resp, err := c.annotator.Annotate(ctx, &vision.BatchAnnotateImagesRequest{
			Requests: []*vision.AnnotateImageRequest{{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(img)},
				Features: []*vision.Feature{{Type: "LABEL_DETECTION", MaxResults: labelsPerImage}},
			}},
		})
		if err != nil {
			log.Printf("vision: annotate failed for image %d: %v", i, err)
			continue
		}
		if len(resp.Responses) == 0 {
			continue
		}
		r := resp.Responses[0]
		if r.Error != nil {
			log.Printf("vision: image %d rejected: %s", i, r.Error.Message)
			continue
		}
		for _, ann := range r.LabelAnnotations {
			all = append(all, ann.Description)
		}
		processed++
	}

	labels := dedupe(all)
	if len(labels) > maxLabels {
		labels = labels[:maxLabels]
	}
	log.Printf("vision: processed %d/%d images, %d labels", processed, len(images), len(labels))
	return labels
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
