package util

import (
	"bytes"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotFound is returned when a local input path does not exist.
	ErrNotFound = errors.New("input file not found")
	// ErrAlphaUnsupported is returned when a transparent image is saved to a
	// format without an alpha channel.
	ErrAlphaUnsupported = errors.New("output format cannot store transparency")
)

// IsURL reports whether src has to be downloaded instead of opened.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// ReadSource 读取本地文件或远程图片的原始字节
func ReadSource(src string) ([]byte, error) {
	if IsURL(src) {
		return DownloadBytes(src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, src)
		}
		return nil, errors.Wrap(err, "read input")
	}
	return data, nil
}

// DownloadBytes fetches url and returns the body.
func DownloadBytes(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, errors.Wrap(err, "download")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download %s: status code %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// DecodeImage decodes any format registered with the image package
// (png, jpeg, gif, bmp, tiff, webp), honouring EXIF orientation.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return img, nil
}

// SaveImage writes img to path, picking the encoder from the extension.
// Unknown extensions are written as PNG. JPEG output of an image that is not
// fully opaque fails with ErrAlphaUnsupported.
func SaveImage(img image.Image, path string) error {
	if format, err := imaging.FormatFromFilename(path); err == nil && format == imaging.JPEG && !isOpaque(img) {
		return errors.Wrap(ErrAlphaUnsupported, path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	err := imaging.Save(img, path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, imaging.ErrUnsupportedFormat) {
		return errors.Wrap(err, "save image")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer func() {
		_ = f.Close()
	}()
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		return errors.Wrap(err, "encode png")
	}
	return nil
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
