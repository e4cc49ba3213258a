// Package convert turns raw sensor frames into displayable images.
//
// A [Policy] describes at most two steps, applied in order:
//
//  1. Depth rescale: every sample is multiplied by 256/2^BitDepth, its
//     absolute value rounded half-to-even and saturated to 8 bits.
//  2. Demosaic: a single-channel Bayer mosaic is interpolated into a
//     3-channel BGR frame. ColorCode values share their numbering with
//     OpenCV's COLOR_Bayer*2BGR codes, which name the pattern by the
//     second row's first two sites.
//
// A pass-through policy returns the input frame itself.
package convert
