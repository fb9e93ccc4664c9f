package validation

import (
	"testing"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name     string
		asset    models.ImageAsset
		wantKind apperrors.Kind
		wantOK   bool
	}{
		{
			name:   "jpeg within limit",
			asset:  models.ImageAsset{MediaType: "image/jpeg", Size: 1024},
			wantOK: true,
		},
		{
			name:   "jpg alias accepted",
			asset:  models.ImageAsset{MediaType: "image/jpg", Size: 1024},
			wantOK: true,
		},
		{
			name:   "png accepted",
			asset:  models.ImageAsset{MediaType: "image/png", Size: 1024},
			wantOK: true,
		},
		{
			name:   "webp accepted",
			asset:  models.ImageAsset{MediaType: "image/webp", Size: 1024},
			wantOK: true,
		},
		{
			name:   "media type case insensitive",
			asset:  models.ImageAsset{MediaType: "IMAGE/PNG", Size: 1024},
			wantOK: true,
		},
		{
			name:   "exactly at the size limit",
			asset:  models.ImageAsset{MediaType: "image/png", Size: MaxImageBytes},
			wantOK: true,
		},
		{
			name:     "gif rejected",
			asset:    models.ImageAsset{MediaType: "image/gif", Size: 1024},
			wantKind: apperrors.KindUnsupportedMediaType,
		},
		{
			name:     "empty media type rejected",
			asset:    models.ImageAsset{MediaType: "", Size: 1024},
			wantKind: apperrors.KindUnsupportedMediaType,
		},
		{
			name:     "one byte over the limit",
			asset:    models.ImageAsset{MediaType: "image/jpeg", Size: MaxImageBytes + 1},
			wantKind: apperrors.KindPayloadTooLarge,
		},
		{
			name:     "unsupported type reported before size",
			asset:    models.ImageAsset{MediaType: "application/pdf", Size: MaxImageBytes + 1},
			wantKind: apperrors.KindUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.asset)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("ValidateImage() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateImage() = nil, want kind %s", tt.wantKind)
			}
			if got := apperrors.KindOf(err); got != tt.wantKind {
				t.Errorf("ValidateImage() kind = %s, want %s", got, tt.wantKind)
			}
		})
	}
}
