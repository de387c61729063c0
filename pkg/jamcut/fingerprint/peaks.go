package fingerprint

// Log-spaced frequency bands over the positive-frequency bins of a
// WindowSize FFT. One spectral peak per band feeds the frame token.
var tokenBands = [numBands][2]int{
	{0, 32},
	{32, 96},
	{96, 224},
	{224, WindowSize / 2},
}

// bandPeaks returns, for each token band, the bin index with the strongest
// magnitude in that band. Bands are clamped to the frame length so the
// function also behaves for reduced window sizes.
func bandPeaks(frame []float64) [numBands]int {
	var peaks [numBands]int
	for b, band := range tokenBands {
		lo, hi := band[0], band[1]
		if hi > len(frame) {
			hi = len(frame)
		}
		if lo >= hi {
			peaks[b] = 0
			continue
		}

		maxIdx := lo
		maxMag := frame[lo]
		for i := lo + 1; i < hi; i++ {
			if frame[i] > maxMag {
				maxMag = frame[i]
				maxIdx = i
			}
		}
		peaks[b] = maxIdx
	}
	return peaks
}
