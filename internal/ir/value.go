package ir

// MaxWidth is the widest representable signal. Values are held in uint64;
// wider buses must be split by the elaborator before reaching this IR.
const MaxWidth = 64

// Mask returns the value mask for a width-w signal: w low bits set.
// Mask(64) is all ones.
func Mask(w int) uint64 {
	if w >= MaxWidth {
		return ^uint64(0)
	}
	return (uint64(1) << uint(w)) - 1
}

// Fits reports whether v is a legal value for a width-w signal.
func Fits(v uint64, w int) bool {
	return v&^Mask(w) == 0
}
