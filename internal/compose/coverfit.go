package compose

import "math"

// CoverFit computes the scale-then-crop parameters that make a source fill
// the destination frame completely: scale uniformly until both dimensions
// cover the frame, then center-crop the overhang. The returned scale
// dimensions are never smaller than the destination.
func CoverFit(srcW, srcH, dstW, dstH int) (scaleW, scaleH, cropX, cropY int) {
	if srcW <= 0 || srcH <= 0 {
		return dstW, dstH, 0, 0
	}

	scale := math.Max(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	// The tiny epsilon keeps exact ratios from ceiling up a pixel through
	// float noise.
	scaleW = int(math.Ceil(float64(srcW)*scale - 1e-6))
	scaleH = int(math.Ceil(float64(srcH)*scale - 1e-6))
	if scaleW < dstW {
		scaleW = dstW
	}
	if scaleH < dstH {
		scaleH = dstH
	}

	cropX = (scaleW - dstW) / 2
	cropY = (scaleH - dstH) / 2
	return scaleW, scaleH, cropX, cropY
}
