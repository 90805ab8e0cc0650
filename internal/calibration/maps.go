package calibration

// Canonical coefficient names referenced outside the mapping tables.
const (
	coeffCalTemp    = "CC_cal_temp"
	coeffWavelength = "CC_wl"
	coeffENO3       = "CC_eno3"
	coeffESWA       = "CC_eswa"
	coeffDI         = "CC_di"
	coeffLowerLimit = "CC_lower_wavelength_limit_for_spectra_fit"
	coeffUpperLimit = "CC_upper_wavelength_limit_for_spectra_fit"
)

// ctdNameMap translates Sea-Bird calibration sheet vocabulary to the canonical
// coefficient names used by the ingest pipeline. Keys are the uppercased tags
// of the XMLCON file (T-prefixed inside a temperature sensor block) and the
// keys of the legacy flat format. Fixed at build time.
var ctdNameMap = map[string]string{
	"TA0":     "CC_a0",
	"TA1":     "CC_a1",
	"TA2":     "CC_a2",
	"TA3":     "CC_a3",
	"CPCOR":   "CC_cpcor",
	"CTCOR":   "CC_ctcor",
	"CG":      "CC_g",
	"CH":      "CC_h",
	"CI":      "CC_i",
	"CJ":      "CC_j",
	"G":       "CC_g",
	"H":       "CC_h",
	"I":       "CC_i",
	"J":       "CC_j",
	"PA0":     "CC_pa0",
	"PA1":     "CC_pa1",
	"PA2":     "CC_pa2",
	"PTEMPA0": "CC_ptempa0",
	"PTEMPA1": "CC_ptempa1",
	"PTEMPA2": "CC_ptempa2",
	"PTCA0":   "CC_ptca0",
	"PTCA1":   "CC_ptca1",
	"PTCA2":   "CC_ptca2",
	"PTCB0":   "CC_ptcb0",
	"PTCB1":   "CC_ptcb1",
	"PTCB2":   "CC_ptcb2",
	// series O extensions
	"C1": "CC_C1",
	"C2": "CC_C2",
	"C3": "CC_C3",
	"D1": "CC_D1",
	"D2": "CC_D2",
	"T1": "CC_T1",
	"T2": "CC_T2",
	"T3": "CC_T3",
	"T4": "CC_T4",
	"T5": "CC_T5",
}

// ctdOSeriesMap is the subset of coefficients that only applies to the O
// series hardware revision. Non-CTDBP subtypes have these stripped before the
// record is written.
var ctdOSeriesMap = map[string]string{
	"C1": "CC_C1",
	"C2": "CC_C2",
	"C3": "CC_C3",
	"D1": "CC_D1",
	"D2": "CC_D2",
	"T1": "CC_T1",
	"T2": "CC_T2",
	"T3": "CC_T3",
	"T4": "CC_T4",
	"T5": "CC_T5",
}

// OSeriesCoefficients returns the canonical names of the O series subset.
func OSeriesCoefficients() []string {
	names := make([]string, 0, len(ctdOSeriesMap))
	for _, name := range ctdOSeriesMap {
		names = append(names, name)
	}
	return names
}

// ctdOxygenMap translates the oxygen sensor vocabulary. These tags only count
// when the file declares an oxygen sensor section; the single-letter keys
// would otherwise collide with unrelated markup.
var ctdOxygenMap = map[string]string{
	"A":      "CC_residual_temperature_correction_factor_a",
	"B":      "CC_residual_temperature_correction_factor_b",
	"C":      "CC_residual_temperature_correction_factor_c",
	"E":      "CC_residual_temperature_correction_factor_e",
	"SOC":    "CC_oxygen_signal_slope",
	"OFFSET": "CC_frequency_offset",
}

// nutnrHeaderMap translates SUNA header keys. T_CAL_SWA is a named fallback
// for T_CAL, honored only while CC_cal_temp is still unset.
var nutnrHeaderMap = map[string]string{
	"T_CAL":     coeffCalTemp,
	"T_CAL_SWA": coeffCalTemp,
}
