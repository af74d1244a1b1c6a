package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"swappi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blobStoreStub struct {
	mu    sync.Mutex
	blobs map[string][]byte
	putFn func(ctx context.Context, key string, data []byte) error
	urlFn func(key string) (string, error)
}

func newBlobStoreStub() *blobStoreStub {
	return &blobStoreStub{blobs: map[string][]byte{}}
}

func (s *blobStoreStub) Put(ctx context.Context, key string, data []byte) error {
	if s.putFn != nil {
		if err := s.putFn(ctx, key, data); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *blobStoreStub) PublicURL(key string) (string, error) {
	if s.urlFn != nil {
		return s.urlFn(key)
	}
	return "https://cdn.test/" + key, nil
}

func (s *blobStoreStub) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	return b, ok
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestMediaUploader_UploadOne_PhotoReencodedAsJPEG(t *testing.T) {
	t.Parallel()

	store := newBlobStoreStub()
	up := NewMediaUploader(store, nil)

	ref, err := up.UploadOne(context.Background(), Asset{
		Kind:     AssetPhoto,
		Filename: "me.png",
		Content:  pngBytes(t, 40, 30),
	})
	require.NoError(t, err)
	require.NotNil(t, ref)

	assert.True(t, strings.HasPrefix(ref.Key, "profile_images/"), "key %q", ref.Key)
	assert.True(t, strings.HasSuffix(ref.Key, ".jpg"), "key %q", ref.Key)
	assert.Equal(t, "https://cdn.test/"+ref.Key, ref.URL)

	stored, ok := store.get(ref.Key)
	require.True(t, ok, "blob should be written")
	decoded, format, err := image.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, decoded.Bounds().Dx())
}

func TestMediaUploader_UploadOne_PhotoScaledDown(t *testing.T) {
	t.Parallel()

	store := newBlobStoreStub()
	up := NewMediaUploader(store, nil)

	ref, err := up.UploadOne(context.Background(), Asset{
		Kind:    AssetPhoto,
		Content: pngBytes(t, PhotoMaxDimension*2, PhotoMaxDimension),
	})
	require.NoError(t, err)

	stored, _ := store.get(ref.Key)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, PhotoMaxDimension)
	assert.LessOrEqual(t, cfg.Height, PhotoMaxDimension)
}

func TestMediaUploader_UploadOne_IntroStoredVerbatim(t *testing.T) {
	t.Parallel()

	store := newBlobStoreStub()
	up := NewMediaUploader(store, nil)
	content := []byte("not really a video but stored as-is")

	ref, err := up.UploadOne(context.Background(), Asset{
		Kind:        AssetVideo,
		Filename:    "intro.mp4",
		ContentType: "video/mp4",
		Content:     content,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref.Key, "profile_media/"), "key %q", ref.Key)
	assert.True(t, strings.HasSuffix(ref.Key, ".mp4"), "key %q", ref.Key)

	stored, ok := store.get(ref.Key)
	require.True(t, ok)
	assert.Equal(t, content, stored, "intro media must not be transcoded")
}

func TestMediaUploader_UploadOne_Errors(t *testing.T) {
	t.Parallel()

	t.Run("undecodable photo is an encoding error", func(t *testing.T) {
		t.Parallel()
		up := NewMediaUploader(newBlobStoreStub(), nil)
		_, err := up.UploadOne(context.Background(), Asset{
			Kind:    AssetPhoto,
			Content: bytes.Repeat([]byte{0xde, 0xad}, 64),
		})
		require.Error(t, err)
		assert.Equal(t, models.CodeEncoding, models.ErrorCode(err))
	})

	t.Run("empty asset is an encoding error", func(t *testing.T) {
		t.Parallel()
		up := NewMediaUploader(newBlobStoreStub(), nil)
		_, err := up.UploadOne(context.Background(), Asset{Kind: AssetAudio})
		require.Error(t, err)
		assert.Equal(t, models.CodeEncoding, models.ErrorCode(err))
	})

	t.Run("store write failure is a transfer error", func(t *testing.T) {
		t.Parallel()
		store := newBlobStoreStub()
		store.putFn = func(context.Context, string, []byte) error {
			return fmt.Errorf("disk full")
		}
		up := NewMediaUploader(store, nil)
		_, err := up.UploadOne(context.Background(), Asset{
			Kind:    AssetAudio,
			Content: []byte("audio"),
		})
		require.Error(t, err)
		assert.Equal(t, models.CodeTransfer, models.ErrorCode(err))
	})

	t.Run("unresolvable reference is a resolution error", func(t *testing.T) {
		t.Parallel()
		store := newBlobStoreStub()
		store.urlFn = func(string) (string, error) {
			return "", fmt.Errorf("no public endpoint")
		}
		up := NewMediaUploader(store, nil)
		_, err := up.UploadOne(context.Background(), Asset{
			Kind:    AssetAudio,
			Content: []byte("audio"),
		})
		require.Error(t, err)
		assert.Equal(t, models.CodeResolution, models.ErrorCode(err))
	})
}

func TestMediaUploader_UploadMany_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	store := newBlobStoreStub()
	// Scramble completion order so ordering cannot come for free.
	store.putFn = func(context.Context, string, []byte) error {
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		return nil
	}
	up := NewMediaUploader(store, nil)

	const n = 8
	assets := make([]Asset, n)
	for i := range assets {
		assets[i] = Asset{
			Kind:    AssetAudio,
			Slot:    i,
			Content: []byte(fmt.Sprintf("clip-%d", i)),
		}
	}

	results := up.UploadMany(context.Background(), assets)
	require.Len(t, results, n)

	for i, res := range results {
		require.NoError(t, res.Err, "slot %d", i)
		assert.Equal(t, i, res.Slot)
		stored, ok := store.get(res.Ref.Key)
		require.True(t, ok)
		assert.Equal(t, assets[i].Content, stored, "result %d must map back to input %d", i, i)
	}
}

func TestMediaUploader_UploadMany_PartialFailureDoesNotCancelSiblings(t *testing.T) {
	t.Parallel()

	store := newBlobStoreStub()
	store.putFn = func(_ context.Context, _ string, data []byte) error {
		if bytes.Equal(data, []byte("clip-2")) {
			return fmt.Errorf("transient blip")
		}
		return nil
	}
	up := NewMediaUploader(store, nil)

	assets := make([]Asset, 5)
	for i := range assets {
		assets[i] = Asset{Kind: AssetAudio, Slot: i, Content: []byte(fmt.Sprintf("clip-%d", i))}
	}

	results := up.UploadMany(context.Background(), assets)
	require.Len(t, results, 5)

	for i, res := range results {
		if i == 2 {
			require.Error(t, res.Err)
			assert.Equal(t, models.CodeTransfer, models.ErrorCode(res.Err))
			assert.Nil(t, res.Ref)
			continue
		}
		require.NoError(t, res.Err, "sibling %d must still complete", i)
		require.NotNil(t, res.Ref)
	}
}

func TestMediaUploader_RejectsOversizedAsset(t *testing.T) {
	t.Parallel()

	store := newBlobStoreStub()
	up := NewMediaUploader(store, nil)
	up.maxSizeBytes = 16

	_, err := up.UploadOne(context.Background(), Asset{
		Kind:    AssetAudio,
		Content: bytes.Repeat([]byte{1}, 17),
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeEncoding, models.ErrorCode(err))
}
