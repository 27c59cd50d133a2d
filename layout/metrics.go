package layout

// FontMetrics provides the horizontal and vertical metrics of a font.
// All values are in pixels at the given scale (pixels per em).
type FontMetrics interface {
	// Kerning returns the adjustment applied between prev and next.
	Kerning(prev, next rune, scale float32) float32

	// Advance returns the advance width of r.
	Advance(r rune, scale float32) float32

	// VMetrics returns the vertical metrics at scale.
	VMetrics(scale float32) VMetrics
}

// VMetrics holds vertical font metrics.
type VMetrics struct {
	// Ascent is the distance from the baseline to the top of the line.
	Ascent float32

	// Descent is the distance from the baseline to the bottom of the line
	// (positive).
	Descent float32

	// LineGap is the recommended space between lines.
	LineGap float32
}

// Height returns Ascent + Descent.
func (m VMetrics) Height() float32 {
	return m.Ascent + m.Descent
}

// LineHeight returns the distance between two baselines.
func (m VMetrics) LineHeight() float32 {
	return m.Ascent + m.Descent + m.LineGap
}
