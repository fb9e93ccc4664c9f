package ocr

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// RekognitionExtractor reads label text with AWS Rekognition DetectText.
// The call is a single round trip, so progress is 0 at dispatch and 1 on
// return.
type RekognitionExtractor struct {
	client *rekognition.Client
}

// NewRekognitionExtractor builds an extractor using the default AWS
// credential chain and the AWS_REGION environment variable.
func NewRekognitionExtractor(ctx context.Context) (*RekognitionExtractor, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &RekognitionExtractor{client: rekognition.NewFromConfig(cfg)}, nil
}

func (e *RekognitionExtractor) ExtractText(ctx context.Context, asset models.ImageAsset, onProgress ProgressFunc) (string, error) {
	emit(onProgress, 0)

	out, err := e.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: asset.Data},
	})
	if err != nil {
		return "", fmt.Errorf("rekognition DetectText failed: %w", err)
	}

	// LINE detections preserve reading order; WORD entries duplicate them.
	var lines []string
	for _, detection := range out.TextDetections {
		if detection.Type != types.TextTypesLine || detection.DetectedText == nil {
			continue
		}
		lines = append(lines, *detection.DetectedText)
	}
	emit(onProgress, 1)

	return strings.Join(lines, "\n"), nil
}

func (e *RekognitionExtractor) Close() error {
	return nil
}
