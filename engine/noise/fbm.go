package noise

// FBM layers octaves of src at (x, y). Each octave multiplies the frequency by
// lacunarity and the amplitude by persistence. The sum is normalized by the
// total amplitude and remapped from [-1, 1] to [0, 1].
func FBM(src Source, x, y float64, octaves int, lacunarity, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	total := 0.0
	amplitude := 1.0
	frequency := 1.0
	maxValue := 0.0

	for i := 0; i < octaves; i++ {
		total += src.Eval2(x*frequency, y*frequency) * amplitude
		maxValue += amplitude

		amplitude *= persistence
		frequency *= lacunarity
	}
	if maxValue == 0 {
		return 0.5
	}
	v := (total/maxValue + 1) * 0.5
	// persistence <= 0 can make maxValue tiny while total is not; keep the contract.
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
