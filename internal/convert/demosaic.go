package convert

// Output channel indices, BGR order.
const (
	chB = 0
	chG = 1
	chR = 2
)

// bayerPatterns gives the channel at each site of the top-left 2x2 block,
// indexed by (y&1)<<1 | x&1.
var bayerPatterns = map[ColorCode][4]int{
	ColorBayerBG2BGR: {chR, chG, chG, chB},
	ColorBayerGB2BGR: {chG, chR, chB, chG},
	ColorBayerRG2BGR: {chB, chG, chG, chR},
	ColorBayerGR2BGR: {chG, chB, chR, chG},
}

// Demosaic interpolates a single-channel mosaic into BGR. Each missing
// channel is the rounded mean of the same-colour sites in the 3x3
// neighbourhood; borders are reflected without repeating the edge sample.
// The output keeps the input sample width. Frames that are not
// single-channel, or codes without a pattern, are returned unchanged.
func Demosaic(in *Frame, code ColorCode) *Frame {
	pattern, ok := bayerPatterns[code]
	if !ok || in.Channels != 1 {
		return in
	}

	w, h := in.Width, in.Height
	out := NewFrame(w, h, 3, in.BytesPerSample)
	xs := neighbours(w)
	ys := neighbours(h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, cnt [3]int
			for _, ny := range ys[y] {
				row := ny * w
				for _, nx := range xs[x] {
					c := pattern[(ny&1)<<1|nx&1]
					sum[c] += in.Sample(row + nx)
					cnt[c]++
				}
			}

			own := pattern[(y&1)<<1|x&1]
			o := (y*w + x) * 3
			for c := 0; c < 3; c++ {
				var v int
				switch {
				case c == own:
					v = in.Sample(y*w + x)
				case cnt[c] > 0:
					v = (sum[c] + cnt[c]/2) / cnt[c]
				}
				out.SetSample(o+c, v)
			}
		}
	}
	return out
}

// neighbours returns, for every index in [0,n), the reflected indices of
// its left neighbour, itself and its right neighbour.
func neighbours(n int) [][3]int {
	idx := make([][3]int, n)
	for i := range idx {
		idx[i] = [3]int{reflect101(i-1, n), i, reflect101(i+1, n)}
	}
	return idx
}

func reflect101(i, n int) int {
	if i < 0 {
		i = -i
	}
	if i >= n {
		i = 2*n - 2 - i
	}
	return max(0, min(i, n-1))
}
