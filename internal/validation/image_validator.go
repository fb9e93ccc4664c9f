package validation

import (
	"strings"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// MaxImageBytes is the intake limit for label images.
const MaxImageBytes = 10 * 1024 * 1024

// allowedMediaTypes are the formats the OCR backends accept. image/jpg is not
// a registered type but browsers and phone cameras still send it.
var allowedMediaTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

// ValidateImage is a pure predicate over the asset's declared metadata. It
// never inspects pixel content; unreadable images surface later as
// extraction failures.
func ValidateImage(asset models.ImageAsset) error {
	mediaType := strings.ToLower(strings.TrimSpace(asset.MediaType))
	if _, ok := allowedMediaTypes[mediaType]; !ok {
		return apperrors.NewUnsupportedMediaType(asset.MediaType)
	}
	if asset.Size > MaxImageBytes {
		return apperrors.NewPayloadTooLarge(asset.Size, MaxImageBytes)
	}
	return nil
}
