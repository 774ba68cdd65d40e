package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURI(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

func TestDecodeDataURI(t *testing.T) {
	raw := pngBytes(t, 2, 2)

	got, err := DecodeDataURI(dataURI(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeDataURI(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	for _, bad := range []string{"", "data:text/plain;base64,aGk=", "data:image/png,raw", "data:image/png;base64,!!!"} {
		_, err := DecodeDataURI(bad)
		assert.ErrorIs(t, err, ErrBadDataURI, bad)
	}

	huge := strings.Repeat("A", (MaxImageBytes/3+10)*4)
	_, err = DecodeDataURI(huge)
	assert.ErrorIs(t, err, ErrImageTooBig)
}

func TestNormalize_ShrinksAndReencodes(t *testing.T) {
	img, err := Normalize(pngBytes(t, 1000, 500), 100)
	require.NoError(t, err)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 50, img.Height)

	small, err := Normalize(pngBytes(t, 10, 10), 100)
	require.NoError(t, err)
	assert.Equal(t, 10, small.Width)

	_, err = Normalize([]byte("not an image"), 100)
	assert.ErrorIs(t, err, ErrNotImage)
}

// withDimensions rewrites the IHDR of a PNG so its header claims w x h.
func withDimensions(raw []byte, w, h uint32) []byte {
	out := append([]byte(nil), raw...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestNormalize_RejectsOversizedDimensions(t *testing.T) {
	raw := pngBytes(t, 1, 1)

	_, err := Normalize(withDimensions(raw, 30000, 30000), 0)
	assert.ErrorIs(t, err, ErrTooManyPixel)

	_, err = Normalize(withDimensions(raw, 8000, 6000), 100)
	assert.ErrorIs(t, err, ErrTooManyPixel)

	_, err = FromDataURI(dataURI(withDimensions(raw, 65535, 65535)), 0)
	assert.ErrorIs(t, err, ErrTooManyPixel)
}

func TestFromDataURI(t *testing.T) {
	img, err := FromDataURI(dataURI(pngBytes(t, 4, 4)), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)

	_, err = FromDataURI("nope", 0)
	assert.Error(t, err)
}

func TestLocalStore_SaveDeleteURL(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(filepath.Join(root, "media"), "http://x/media/")
	require.NoError(t, err)
	ctx := context.Background()

	key := NewKey("recipes", "png")
	assert.True(t, strings.HasPrefix(key, "recipes/") && strings.HasSuffix(key, ".png"))

	require.NoError(t, s.Save(ctx, key, []byte("abc"), "image/png"))
	b, err := os.ReadFile(filepath.Join(root, "media", filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	assert.Equal(t, "http://x/media/"+key, s.URL(key))
	assert.Equal(t, "", s.URL(""))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting a missing file is not an error")

	assert.Error(t, s.Save(ctx, "../escape.png", nil, ""))
	assert.Error(t, s.Save(ctx, "/abs.png", nil, ""))
}

type fakeS3 struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.puts[*in.Key] = b
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}
	s := newS3Store(fake, "bucket", "https://cdn.example")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "avatars/a.png", []byte("img"), "image/png"))
	assert.Equal(t, "img", string(fake.puts["avatars/a.png"]))
	assert.Equal(t, "image/png", fake.types["avatars/a.png"])
	assert.Equal(t, "https://cdn.example/avatars/a.png", s.URL("avatars/a.png"))

	require.NoError(t, s.Delete(ctx, "avatars/a.png"))
	assert.Equal(t, []string{"avatars/a.png"}, fake.deleted)

	fake.err = errors.New("boom")
	assert.Error(t, s.Save(ctx, "avatars/b.png", nil, "image/png"))
	assert.Error(t, s.Delete(ctx, "avatars/b.png"))
}
