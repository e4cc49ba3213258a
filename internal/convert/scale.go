package convert

import "math"

// lookupThreshold is the sample count above which a 16-bit frame is
// rescaled through a precomputed table.
const lookupThreshold = 1 << 16

// ScaleAbs maps every sample to saturate(round(|v*alpha|)) as 8-bit.
// Rounding is half-to-even.
func ScaleAbs(in *Frame, alpha float64) *Frame {
	out := NewFrame(in.Width, in.Height, in.Channels, 1)
	n := in.Samples()

	if in.BytesPerSample == 2 && n > lookupThreshold {
		var lut [1 << 16]uint8
		for v := range lut {
			lut[v] = scaleSample(v, alpha)
		}
		for i := 0; i < n; i++ {
			out.Pix[i] = lut[in.Sample(i)]
		}
		return out
	}

	for i := 0; i < n; i++ {
		out.Pix[i] = scaleSample(in.Sample(i), alpha)
	}
	return out
}

// RescaleDepth maps samples of the given bit depth onto 0..255.
func RescaleDepth(in *Frame, depth int) *Frame {
	return ScaleAbs(in, 256.0/math.Exp2(float64(depth)))
}

func scaleSample(v int, alpha float64) uint8 {
	r := math.RoundToEven(math.Abs(float64(v) * alpha))
	if r > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(r)
}
