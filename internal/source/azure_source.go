package source

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/internal/validation"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// AzureBlobSource fetches label images stored in Azure Blob Storage. Blob
// references use the form https://<account>.blob.core.windows.net/<container>?blob=<name>.
type AzureBlobSource struct {
	client *azblob.Client
}

func NewAzureBlobSource(accountName, accountKey string) (*AzureBlobSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	return &AzureBlobSource{client: client}, nil
}

func (s *AzureBlobSource) FetchImage(ctx context.Context, blobURL string) (models.ImageAsset, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return models.ImageAsset{}, apperrors.NewValidationError("invalid blob URL", err)
	}

	containerName := strings.TrimPrefix(parsedURL.Path, "/")
	blobName := parsedURL.Query().Get("blob")
	if containerName == "" || blobName == "" {
		return models.ImageAsset{}, apperrors.NewValidationError(
			"blob URL must name a container and a blob", nil)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return models.ImageAsset{}, apperrors.NewInternalError("blob download failed", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(io.LimitReader(retryReader, validation.MaxImageBytes+1))
	if err != nil {
		return models.ImageAsset{}, apperrors.NewInternalError("reading blob stream", err)
	}
	if int64(len(data)) > validation.MaxImageBytes {
		return models.ImageAsset{}, apperrors.NewPayloadTooLarge(int64(len(data)), validation.MaxImageBytes)
	}

	mediaType := ""
	if downloadResponse.ContentType != nil {
		mediaType = *downloadResponse.ContentType
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		// Storage accounts frequently lack a content type; fall back to the
		// blob name's extension.
		mediaType = mime.TypeByExtension(path.Ext(blobName))
	}

	return models.ImageAsset{
		Data:      data,
		MediaType: mediaType,
		Size:      int64(len(data)),
	}, nil
}
