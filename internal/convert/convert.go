package convert

// Convert applies p to in. A pass-through policy, or one with no steps,
// returns in itself; each step otherwise allocates a new frame and in is
// left untouched. Convert never fails: shape checks belong to whoever
// builds the frame.
func Convert(p Policy, in *Frame) *Frame {
	if p.PassThrough {
		return in
	}
	out := in
	if p.BitDepth != NoRescale {
		out = RescaleDepth(out, p.BitDepth)
	}
	if p.ColorCode != ColorNone {
		out = Demosaic(out, p.ColorCode)
	}
	return out
}
