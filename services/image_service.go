package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/kendall-kelly/storefront-api/utils"
)

// MaxImageDimension bounds the longest side of stored catalog images
const MaxImageDimension = 1600

// MaxImagePixels bounds the decoded size of an upload, checked from the header before decoding
const MaxImagePixels = 40_000_000

// UploadedImage describes a stored image
type UploadedImage struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageService handles catalog image upload and deletion
type ImageService interface {
	// UploadImage validates, downsizes and stores an image for a store
	UploadImage(ctx context.Context, storeID uint, fileHeader *multipart.FileHeader) (*UploadedImage, error)

	// DeleteImage removes an image of storeID by its public URL.
	// URLs from other stores or other hosts are ignored.
	DeleteImage(ctx context.Context, storeID uint, imageURL string) error
}

// StorageImageService implements ImageService on top of an ObjectStorage
type StorageImageService struct {
	storage ObjectStorage
}

var imageServiceInstance ImageService

// InitImageService initializes the process-wide image service
func InitImageService(storage ObjectStorage) ImageService {
	imageServiceInstance = &StorageImageService{storage: storage}
	return imageServiceInstance
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// UploadImage validates the file, decodes it, fits it into MaxImageDimension and stores it
func (s *StorageImageService) UploadImage(ctx context.Context, storeID uint, fileHeader *multipart.FileHeader) (*UploadedImage, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, &utils.FileUploadError{Code: "INVALID_IMAGE", Message: "File is not a valid image"}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, &utils.FileUploadError{Code: "INVALID_IMAGE", Message: "Image dimensions are too large"}
	}

	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &utils.FileUploadError{Code: "INVALID_IMAGE", Message: "File is not a valid image"}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	format := imaging.PNG
	if ext != ".png" {
		format, ext = imaging.JPEG, ".jpg"
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxImageDimension || bounds.Dy() > MaxImageDimension {
		img = imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	key := fmt.Sprintf("stores/%d/%s%s", storeID, uuid.NewString(), ext)
	if err := s.storage.PutObject(ctx, key, buf.Bytes(), utils.ContentTypeFor(key)); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &UploadedImage{
		Key:    key,
		URL:    s.storage.PublicURL(key),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

// DeleteImage removes the stored object behind imageURL when it belongs to storeID
func (s *StorageImageService) DeleteImage(ctx context.Context, storeID uint, imageURL string) error {
	key, ok := s.storage.KeyFromURL(imageURL)
	if !ok || !storeOwnsKey(storeID, key) {
		return nil
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// storeOwnsKey reports whether key lies under the store's prefix, in either the
// object form (stores/5/...) or the flattened local form (stores_5_...).
func storeOwnsKey(storeID uint, key string) bool {
	if strings.Contains(key, "..") {
		return false
	}
	prefix := fmt.Sprintf("stores/%d/", storeID)
	return strings.HasPrefix(key, prefix) || strings.HasPrefix(key, localFilename(prefix))
}
