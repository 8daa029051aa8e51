package raster

import "image"

// IsDark 判断像素的红色通道是否低于阈值。
func (g *Grid) IsDark(x, y, threshold int) bool {
	return int(g.Red(x, y)) < threshold
}

// Scan visits dark pixels in raster order: rows top to bottom, columns left to
// right. Returning false from fn stops the scan.
func (g *Grid) Scan(threshold int, fn func(x, y int) bool) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !g.IsDark(x, y, threshold) {
				continue
			}
			if !fn(x, y) {
				return
			}
		}
	}
}

// Neighbors 在以 (x, y) 为中心、边长 2*radius+1 的窗口内查找暗像素。
// 窗口与网格求交；遍历顺序为外层 x 升序、内层 y 升序（按列）。
// 中心像素满足条件时同样包含在结果里。
func (g *Grid) Neighbors(x, y, radius, threshold int) []image.Point {
	x0, x1 := max(0, x-radius), min(g.Width, x+radius+1)
	y0, y1 := max(0, y-radius), min(g.Height, y+radius+1)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}
	var out []image.Point
	for i := x0; i < x1; i++ {
		for j := y0; j < y1; j++ {
			if g.IsDark(i, j, threshold) {
				out = append(out, image.Pt(i, j))
			}
		}
	}
	return out
}
