package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"recognition-api/internal/service"
	"recognition-api/internal/signals"

	"github.com/gin-gonic/gin"
)

// RecognizeHandler handles photo recognition requests
type RecognizeHandler struct {
	service RecognitionService
}

// Service interface for dependency injection
type RecognitionService interface {
	Recognize(ctx context.Context, input service.RecognitionInput) (service.RecognitionResult, error)
}

// NewRecognizeHandler creates a new recognize handler
func NewRecognizeHandler(svc RecognitionService) *RecognizeHandler {
	return &RecognizeHandler{service: svc}
}

// Recognize handles POST /api/v1/recognize requests. Multipart form:
// an optional image file plus optional extracted coordinates
// (latitude/longitude from standard EXIF, binary_latitude/binary_longitude
// from a raw binary scan, device_latitude/device_longitude from the device).
// At least one signal must be present.
func (h *RecognizeHandler) Recognize(c *gin.Context) {
	input := service.RecognitionInput{
		ImageRef: c.PostForm("image_ref"),
	}

	if file, err := c.FormFile("image"); err == nil {
		opened, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image upload"})
			return
		}
		defer opened.Close()

		image, err := io.ReadAll(opened)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image upload"})
			return
		}
		input.Image = image
	}

	exif, ok := parseCoordinatePair(c, "latitude", "longitude")
	if !ok {
		return
	}
	input.ExifGPS = exif

	binary, ok := parseCoordinatePair(c, "binary_latitude", "binary_longitude")
	if !ok {
		return
	}
	input.ExifBinary = binary

	device, ok := parseCoordinatePair(c, "device_latitude", "device_longitude")
	if !ok {
		return
	}
	input.DeviceLocation = device

	if len(input.Image) == 0 && input.ExifGPS == nil && input.ExifBinary == nil && input.DeviceLocation == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request carries no image and no coordinates"})
		return
	}

	result, err := h.service.Recognize(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseCoordinatePair reads an optional lat/lng form pair. Returns nil when
// both fields are absent; writes a 400 and returns ok=false on a malformed
// or half-present pair.
func parseCoordinatePair(c *gin.Context, latField, lngField string) (*signals.ExifPayload, bool) {
	latStr := c.PostForm(latField)
	lngStr := c.PostForm(lngField)

	if latStr == "" && lngStr == "" {
		return nil, true
	}
	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "both " + latField + " and " + lngField + " must be provided"})
		return nil, false
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + latField + " format"})
		return nil, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + lngField + " format"})
		return nil, false
	}

	return &signals.ExifPayload{Latitude: lat, Longitude: lng}, true
}
