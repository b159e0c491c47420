package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot       = "./media"
	DefaultMaxUploadSizeMB = 5
	DefaultMaxPixels       = 40_000_000
	PostImageDir           = "posts"
	MasterMaxSize          = 2048
	JPEGQuality            = 82
	WebPQuality            = 70

	invalidImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// UploadedImage is a raw image file taken from a form or API request.
type UploadedImage struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageStore persists post images and returns their path relative to the
// media root.
type ImageStore interface {
	Save(ctx context.Context, img UploadedImage) (string, error)
	Remove(relPath string) error
}

// MediaService validates, normalizes and stores post images on local disk.
// Each upload is written as a JPEG master plus a WebP sibling, named by the
// SHA-256 of the encoded master so identical uploads share one file.
type MediaService struct {
	root               string
	maxUploadSizeBytes int64
	maxPixels          int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	root := DefaultMediaRoot
	maxUploadSizeMB := DefaultMaxUploadSizeMB
	maxPixels := DefaultMaxPixels
	if cfg != nil {
		if cfg.MediaRoot != "" {
			root = cfg.MediaRoot
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
		if cfg.ImageMaxPixels > 0 {
			maxPixels = cfg.ImageMaxPixels
		}
	}
	return &MediaService{
		root:               root,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		maxPixels:          int64(maxPixels),
	}
}

// Root is the directory served under /media/.
func (s *MediaService) Root() string {
	return s.root
}

func (s *MediaService) Save(ctx context.Context, in UploadedImage) (string, error) {
	_, span := observability.StartService(ctx, "MediaService", "Save")
	rel, err := s.save(in)
	observability.EndSpan(span, err)
	return rel, err
}

func (s *MediaService) save(in UploadedImage) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewValidationError(invalidImageMessage)
	}

	// The header is checked before decoding: a small file can declare
	// dimensions whose pixel buffer would not fit in memory.
	header, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil || header.Width <= 0 || header.Height <= 0 {
		return "", models.NewValidationError(invalidImageMessage)
	}
	if int64(header.Width)*int64(header.Height) > s.maxPixels {
		return "", models.NewValidationError(invalidImageMessage)
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError(invalidImageMessage)
	}
	sourceMime := decodedFormatToMime(format)
	if sourceMime == "" {
		return "", models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMime) {
		return "", models.NewValidationError("Image content type mismatch")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	encodedJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	encodedWebP, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	hash := contentHash(encodedJPG)
	jpgRel := path.Join(PostImageDir, hash+".jpg")
	webpRel := path.Join(PostImageDir, hash+".webp")

	if err := writeBytesToFile(s.abs(jpgRel), encodedJPG); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := writeBytesToFile(s.abs(webpRel), encodedWebP); err != nil {
		_ = os.Remove(s.abs(jpgRel))
		return "", models.NewInternalError(err)
	}

	middleware.Logger.Debug("Stored post image",
		slog.String("path", jpgRel),
		slog.String("source_format", format),
		slog.Int("bytes", len(encodedJPG)),
	)
	return jpgRel, nil
}

// Remove deletes a stored image and its WebP sibling. Missing files are ignored.
func (s *MediaService) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	if !isPostImagePath(relPath) {
		return models.NewValidationError("Invalid image path")
	}
	for _, p := range []string{relPath, strings.TrimSuffix(relPath, ".jpg") + ".webp"} {
		if err := os.Remove(s.abs(p)); err != nil && !os.IsNotExist(err) {
			return models.NewInternalError(err)
		}
	}
	return nil
}

// WebPPath returns the WebP sibling of a stored JPEG.
func WebPPath(relPath string) string {
	return strings.TrimSuffix(relPath, ".jpg") + ".webp"
}

func (s *MediaService) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// isPostImagePath accepts only posts/<sha256>.jpg, which rules out traversal.
func isPostImagePath(rel string) bool {
	dir, file := path.Split(rel)
	if dir != PostImageDir+"/" || !strings.HasSuffix(file, ".jpg") {
		return false
	}
	hash := strings.TrimSuffix(file, ".jpg")
	if len(hash) != sha256.Size*2 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
