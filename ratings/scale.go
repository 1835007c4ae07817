package ratings

// Bounds of the two rating scales. UBR is the external universal scale,
// SRR the internal one the engine operates on.
const (
	UBRMin = 3500.0
	UBRMax = 8500.0
	SRRMin = 800.0
	SRRMax = 3000.0
)

// UBRToSRR remaps a universal rating onto the internal scale. Input is
// clamped to the UBR range first, so the output always lies within
// [SRRMin, SRRMax].
func UBRToSRR(ubr float64) float64 {
	ubr = clamp(ubr, UBRMin, UBRMax)
	return SRRMin + (ubr-UBRMin)/(UBRMax-UBRMin)*(SRRMax-SRRMin)
}

// SRRToUBR is the affine inverse of UBRToSRR, modulo clamping.
func SRRToUBR(srr float64) float64 {
	srr = clamp(srr, SRRMin, SRRMax)
	return UBRMin + (srr-SRRMin)/(SRRMax-SRRMin)*(UBRMax-UBRMin)
}
