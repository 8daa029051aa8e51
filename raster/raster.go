// Package raster 负责把图片字节解码为像素网格，并提供暗像素判定与邻域搜索。
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode 表示输入字节不是可识别的图片。
var ErrDecode = errors.New("raster: 无法解码图片")

// Grid is an immutable pixel grid. Pixels are stored non-premultiplied so that
// the red channel matches what image editors report.
type Grid struct {
	Width  int
	Height int
	pix    *image.NRGBA
}

// Decode 解码 PNG/JPEG/GIF/BMP/TIFF/WebP，返回图片与格式名。
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: 输入为空", ErrDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// Load 解码并按固定比例缩放，得到后续扫描使用的网格。
func Load(data []byte, kernel xdraw.Interpolator) (*Grid, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Resize(img, kernel), nil
}

// ResizedSize returns the working canvas size for a source of w×h pixels:
// floor(w/1.5) × floor(h/2).
func ResizedSize(w, h int) (int, int) {
	return (2 * w) / 3, h / 2
}

// Resize 将图片缩放到 ResizedSize 给出的尺寸。kernel 为空时使用 CatmullRom。
func Resize(img image.Image, kernel xdraw.Interpolator) *Grid {
	if kernel == nil {
		kernel = xdraw.CatmullRom
	}
	src := img.Bounds()
	w, h := ResizedSize(src.Dx(), src.Dy())
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w > 0 && h > 0 {
		kernel.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
	}
	return &Grid{Width: w, Height: h, pix: dst}
}

// NewGrid 复制任意图片为网格（不缩放），坐标原点平移到 (0,0)。
func NewGrid(img image.Image) *Grid {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return &Grid{Width: b.Dx(), Height: b.Dy(), pix: dst}
}

// Bounds 返回网格范围。
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Red 返回 (x, y) 处的红色通道值；越界时返回 255（视为非暗像素）。
func (g *Grid) Red(x, y int) uint8 {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return 255
	}
	return g.pix.Pix[g.pix.PixOffset(x, y)]
}
