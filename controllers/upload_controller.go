package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/kendall-kelly/storefront-api/utils"
)

// UploadImage handles POST /api/upload - stores a catalog image for the owner's store
func UploadImage(c *gin.Context) {
	store, ok := currentStore(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "Image file is required (form field \"image\")")
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		respondError(c, http.StatusServiceUnavailable, "UPLOAD_UNAVAILABLE", "Image storage is not configured")
		return
	}

	image, err := imageService.UploadImage(c.Request.Context(), store.ID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		respondServiceError(c, err, "Failed to upload image")
		return
	}

	respondData(c, http.StatusCreated, image)
}

// GetUploadedImage handles GET /api/uploads/:filename - serves images kept on local disk
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")
	if !utils.IsSafeFilename(filename) {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := utils.AllowedImageExtensions[ext]; !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PNG and JPEG images are served")
		return
	}

	filePath := filepath.Join(utils.UploadDir, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	c.Header("Content-Type", utils.ContentTypeFor(filename))
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(filePath)
}

// GetYandexMapsKey handles GET /api/yandex-maps-key - hands the maps JS key to the admin SPA
func GetYandexMapsKey(c *gin.Context) {
	key := config.GetConfig().YandexMapsAPIKey
	if key == "" {
		respondError(c, http.StatusNotFound, "MAPS_NOT_CONFIGURED", "Yandex Maps API key is not configured")
		return
	}
	respondData(c, http.StatusOK, gin.H{"key": key})
}
