// Avatar normalization: every stored avatar is a square JPEG.
package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	AvatarSize        = 512
	avatarJPEGQuality = 85
)

// NormalizeAvatar decodes input (jpg/png/webp), applies EXIF orientation,
// crops to a centered square, scales to AvatarSize, and encodes to JPEG.
func NormalizeAvatar(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("empty image")
	}

	img, _, err := decodeAvatar(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}

	ori := readEXIFOrientation(bytes.NewReader(input))
	img = applyOrientation(img, ori)
	img = cropSquare(img)
	img = scaleTo(img, AvatarSize)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: avatarJPEGQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeAvatar(r *bytes.Reader) (image.Image, string, error) {
	r.Seek(0, io.SeekStart)
	if img, err := jpeg.Decode(r); err == nil {
		return img, "jpeg", nil
	}
	r.Seek(0, io.SeekStart)
	if img, err := png.Decode(r); err == nil {
		return img, "png", nil
	}
	r.Seek(0, io.SeekStart)
	if img, err := webp.Decode(r); err == nil {
		return img, "webp", nil
	}
	return nil, "", errors.New("unsupported image format (jpeg/png/webp)")
}

func readEXIFOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	ori, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return ori
}

// EXIF orientation values:
// 1 = normal
// 2 = flip horizontal
// 3 = rotate 180
// 4 = flip vertical
// 5 = transpose (flip horizontal + rotate 90 CW)
// 6 = rotate 90 CW
// 7 = transverse (flip horizontal + rotate 90 CCW)
// 8 = rotate 270 CW (90 CCW)
func applyOrientation(src image.Image, ori int) image.Image {
	switch ori {
	case 2:
		return flipHorizontal(src)
	case 3:
		return rotate180(src)
	case 4:
		return flipVertical(src)
	case 5:
		return rotate90CW(flipHorizontal(src))
	case 6:
		return rotate90CW(src)
	case 7:
		return rotate90CCW(flipHorizontal(src))
	case 8:
		return rotate90CCW(src)
	default:
		return src
	}
}

func cropSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return src
	}

	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Pt(x0, y0), draw.Src)
	return dst
}

func scaleTo(src image.Image, side int) image.Image {
	b := src.Bounds()
	if b.Dx() == side && b.Dy() == side {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func rotate90CW(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func rotate90CCW(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(y, w-1-x, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func rotate180(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(w-1-x, h-1-y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func flipHorizontal(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(w-1-x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func flipVertical(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, h-1-y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
