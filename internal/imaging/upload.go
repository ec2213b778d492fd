package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("imaging: unsupported file type (want jpg, jpeg or png)")
	ErrDecode          = errors.New("imaging: decode failed")
)

var allowedExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Upload is an image normalised to an opaque RGB PNG, ready to send.
type Upload struct {
	Name   string
	Width  int
	Height int
	PNG    []byte
	SHA256 string
}

// Base64 returns the PNG bytes in standard, padded base64.
func (u Upload) Base64() string {
	return base64.StdEncoding.EncodeToString(u.PNG)
}

// Supported reports whether the file extension is an accepted image type.
func Supported(path string) bool {
	_, ok := allowedExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads and normalises the image at path.
func Load(path string) (Upload, error) {
	path = strings.TrimSpace(path)
	if !Supported(path) {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(path))
	}
	f, err := os.Open(expandHome(path))
	if err != nil {
		return Upload{}, fmt.Errorf("imaging: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(filepath.Base(path), f)
}

// Decode performs a basic decode and re-encodes the pixels as RGB PNG.
func Decode(name string, r io.Reader) (Upload, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	rgb := toRGB(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgb); err != nil {
		return Upload{}, fmt.Errorf("imaging: encode png: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	b := rgb.Bounds()
	return Upload{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		PNG:    buf.Bytes(),
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}

// toRGB drops alpha without compositing, keeping the stored colour of each
// pixel. The result is fully opaque so the PNG encoder writes 8-bit RGB.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
