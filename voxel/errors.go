package voxel

// Error types attached with errors.WithType. Callers classify failures with
// errors.Type(err).
const (
	// ErrTypeInvalidGeometry marks an empty or degenerate mesh bounding box. Fatal.
	ErrTypeInvalidGeometry = "invalid-geometry"

	// ErrTypeDegenerateTriangle marks a triangle with non-finite data. The
	// triangle is skipped and the run continues.
	ErrTypeDegenerateTriangle = "degenerate-triangle"

	// ErrTypePaletteOverflow marks a broken palette reduction. Fatal, it
	// indicates a defect rather than bad input.
	ErrTypePaletteOverflow = "palette-overflow"

	// ErrTypeIO marks a failed read or write of an input or output file. Fatal.
	ErrTypeIO = "io-error"

	// ErrTypeInvalidConfig marks options that cannot be honoured.
	ErrTypeInvalidConfig = "invalid-config"

	// ErrTypeInvalidFormat marks a decoder input that is not a valid scene.
	ErrTypeInvalidFormat = "invalid-format"
)
