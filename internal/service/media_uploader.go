package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"swappi/internal/config"
	"swappi/internal/models"
	"swappi/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	_ "image/gif"  // Register GIF decoder
	_ "image/png"  // Register PNG decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaMaxSizeMB = 25
	PhotoMaxDimension     = 2048
	PhotoJPEGQuality      = 80
	PhotoWebPQuality      = 75

	photoKeyPrefix = "profile_images"
	introKeyPrefix = "profile_media"
)

// AssetKind distinguishes photo assets (re-encoded server side) from intro
// media (stored verbatim).
type AssetKind string

const (
	AssetPhoto AssetKind = "photo"
	AssetVideo AssetKind = "video"
	AssetAudio AssetKind = "audio"
)

// Asset is a single piece of media queued for upload. Slot is the caller's
// position for the asset; UploadMany reports results under the same slot.
type Asset struct {
	Kind        AssetKind
	Filename    string
	ContentType string
	Content     []byte
	Slot        int
}

// RemoteRef identifies an uploaded blob and its public URL.
type RemoteRef struct {
	Key string
	URL string
}

// UploadResult pairs one asset's outcome with its input slot. Exactly one of
// Ref and Err is set.
type UploadResult struct {
	Slot int
	Ref  *RemoteRef
	Err  error
}

// Uploader stores media assets. UploadMany uploads every asset concurrently
// and returns only after all of them finish, successes and failures alike,
// with results in the same order as the input.
type Uploader interface {
	UploadOne(ctx context.Context, asset Asset) (*RemoteRef, error)
	UploadMany(ctx context.Context, assets []Asset) []UploadResult
}

// MediaUploader implements Uploader on top of a BlobStore.
type MediaUploader struct {
	store        BlobStore
	maxSizeBytes int64
}

// NewMediaUploader returns an Uploader backed by store.
func NewMediaUploader(store BlobStore, cfg *config.Config) *MediaUploader {
	maxMB := DefaultMediaMaxSizeMB
	if cfg != nil && cfg.MediaMaxSizeMB > 0 {
		maxMB = cfg.MediaMaxSizeMB
	}
	return &MediaUploader{
		store:        store,
		maxSizeBytes: int64(maxMB) * 1024 * 1024,
	}
}

func (u *MediaUploader) UploadOne(ctx context.Context, asset Asset) (*RemoteRef, error) {
	start := time.Now()
	ref, err := u.uploadOne(ctx, asset)
	if err != nil {
		observability.ObserveUpload(models.ErrorCode(err), start)
		return nil, err
	}
	observability.ObserveUpload("success", start)
	return ref, nil
}

func (u *MediaUploader) uploadOne(ctx context.Context, asset Asset) (*RemoteRef, error) {
	if len(asset.Content) == 0 {
		return nil, models.NewEncodingError(fmt.Errorf("empty asset"))
	}
	if int64(len(asset.Content)) > u.maxSizeBytes {
		return nil, models.NewEncodingError(fmt.Errorf("asset exceeds %d bytes", u.maxSizeBytes))
	}

	var key string
	var payload []byte
	switch asset.Kind {
	case AssetPhoto:
		encoded, companion, err := encodePhoto(asset.Content)
		if err != nil {
			return nil, err
		}
		id := uuid.New().String()
		key = fmt.Sprintf("%s/%s.jpg", photoKeyPrefix, id)
		payload = encoded

		// The WebP rendition is a bandwidth optimization; losing it does
		// not fail the upload.
		if companion != nil {
			_ = u.store.Put(ctx, fmt.Sprintf("%s/%s.webp", photoKeyPrefix, id), companion)
		}
	case AssetVideo, AssetAudio:
		key = fmt.Sprintf("%s/%s%s", introKeyPrefix, uuid.New().String(), introExtension(asset))
		payload = asset.Content
	default:
		return nil, models.NewEncodingError(fmt.Errorf("unknown asset kind %q", asset.Kind))
	}

	if err := u.store.Put(ctx, key, payload); err != nil {
		return nil, models.NewTransferError(err)
	}

	url, err := u.store.PublicURL(key)
	if err != nil {
		// The blob was written but cannot be referenced.
		return nil, models.NewResolutionError(err)
	}

	return &RemoteRef{Key: key, URL: url}, nil
}

func (u *MediaUploader) UploadMany(ctx context.Context, assets []Asset) []UploadResult {
	results := make([]UploadResult, len(assets))

	var wg sync.WaitGroup
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset Asset) {
			defer wg.Done()
			ref, err := u.UploadOne(ctx, asset)
			results[i] = UploadResult{Slot: asset.Slot, Ref: ref, Err: err}
		}(i, asset)
	}
	wg.Wait()

	return results
}

// encodePhoto normalizes a photo to JPEG plus a best-effort WebP rendition.
func encodePhoto(content []byte) (jpg, webpBytes []byte, err error) {
	detected := http.DetectContentType(content)
	if !strings.HasPrefix(detected, "image/") {
		return nil, nil, models.NewEncodingError(fmt.Errorf("not an image: %s", detected))
	}

	decoded, _, decodeErr := image.Decode(bytes.NewReader(content))
	if decodeErr != nil {
		return nil, nil, models.NewEncodingError(decodeErr)
	}

	fitted := fitWithin(decoded, PhotoMaxDimension)

	buf := bytes.NewBuffer(nil)
	if encErr := jpeg.Encode(buf, fitted, &jpeg.Options{Quality: PhotoJPEGQuality}); encErr != nil {
		return nil, nil, models.NewEncodingError(encErr)
	}

	wbuf := bytes.NewBuffer(nil)
	if wErr := webp.Encode(wbuf, fitted, &webp.Options{Quality: PhotoWebPQuality}); wErr != nil {
		return buf.Bytes(), nil, nil
	}
	return buf.Bytes(), wbuf.Bytes(), nil
}

// fitWithin scales the image down so neither dimension exceeds max.
func fitWithin(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || (w <= max && h <= max) {
		return src
	}

	scale := float64(max) / float64(w)
	if s := float64(max) / float64(h); s < scale {
		scale = s
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// introExtension picks a file extension for intro media from the filename,
// falling back to the content type.
func introExtension(asset Asset) string {
	if ext := strings.ToLower(path.Ext(asset.Filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	switch strings.ToLower(asset.ContentType) {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".bin"
	}
}
