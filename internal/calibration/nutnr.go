package calibration

import (
	"bufio"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// Default wavelength bounds for the spectral fit, in nanometers. Present
	// in every SUNA record regardless of file content.
	DefaultLowerWavelength = 217
	DefaultUpperWavelength = 240

	// nutnrDateLayout matches the day-Mon-4digit-year dates of SUNA creation
	// lines, e.g. "02-Mar-2021".
	nutnrDateLayout = "02-Jan-2006"

	// NutnrFilePrefix gates accepted SUNA device streams by filename.
	NutnrFilePrefix = "SNA"
)

// NewNutnrRecord returns a record seeded with the fixed spectral fit bounds.
func NewNutnrRecord(lower, upper int) *Record {
	rec := NewRecord()
	rec.Coefficients[coeffLowerLimit] = strconv.Itoa(lower)
	rec.Coefficients[coeffUpperLimit] = strconv.Itoa(upper)
	return rec
}

// NutnrParser reads SUNA calibration files: comma-delimited lines tagged by a
// single-letter record type. Header (H) records carry the calibration
// temperature, creation date and serial; extinction (E) records accumulate
// the per-wavelength coefficient tables.
type NutnrParser struct {
	log *zap.Logger

	wavelengths []float64
	eno3        []float64
	eswa        []float64
	di          []float64
}

// NewNutnrParser returns a parser logging through the given logger. A nil
// logger disables logging.
func NewNutnrParser(log *zap.Logger) *NutnrParser {
	if log == nil {
		log = zap.NewNop()
	}
	return &NutnrParser{log: log}
}

// ReadCal parses the calibration file at path into rec.
func (p *NutnrParser) ReadCal(path string, rec *Record) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}

		switch parts[0] {
		case "H":
			p.readHeader(parts[1], rec)
		case "E":
			p.readExtinction(parts, rec)
		}
	}
	return scanner.Err()
}

// readHeader interprets one H record. Two-token payloads are NAME VALUE
// pairs; longer payloads are scanned for the creation-date and SUNA serial
// markers.
func (p *NutnrParser) readHeader(payload string, rec *Record) {
	tokens := strings.Fields(payload)

	if len(tokens) == 2 {
		name, value := tokens[0], tokens[1]
		_, calTempSet := rec.Coefficients[coeffCalTemp]
		if name == "T_CAL" || (name == "T_CAL_SWA" && !calTempSet) {
			temp, err := strconv.ParseFloat(value, 64)
			if err != nil {
				p.log.Warn("unparseable calibration temperature",
					zap.String("value", value))
				return
			}
			rec.Coefficients[nutnrHeaderMap[name]] = formatFloat(temp)
		}
		return
	}

	if contains(tokens, "creation") && len(tokens) >= 2 {
		raw := tokens[len(tokens)-2]
		d, err := time.Parse(nutnrDateLayout, raw)
		if err != nil {
			p.log.Warn("unparseable creation date", zap.String("value", raw))
			return
		}
		rec.setDateLatest(d)
		return
	}

	if contains(tokens, "SUNA") && len(tokens) >= 2 {
		rec.setSerial(strings.TrimLeft(tokens[1], "0"))
	}
}

// readExtinction interprets one E record. The four numeric fields are
// appended to their tables in lockstep; a record that does not carry exactly
// 6 fields, or holds an unparseable number, is skipped whole so the tables
// never drift out of alignment.
func (p *NutnrParser) readExtinction(parts []string, rec *Record) {
	if len(parts) != 6 {
		p.log.Warn("malformed extinction record",
			zap.Int("fields", len(parts)))
		return
	}

	values := make([]float64, 0, 4)
	for _, idx := range []int{1, 2, 3, 5} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[idx]), 64)
		if err != nil {
			p.log.Warn("malformed extinction record",
				zap.String("field", parts[idx]))
			return
		}
		values = append(values, v)
	}

	p.wavelengths = append(p.wavelengths, values[0])
	p.eno3 = append(p.eno3, values[1])
	p.eswa = append(p.eswa, values[2])
	p.di = append(p.di, values[3])

	rec.Coefficients[coeffWavelength] = encodeFloats(p.wavelengths)
	rec.Coefficients[coeffENO3] = encodeFloats(p.eno3)
	rec.Coefficients[coeffESWA] = encodeFloats(p.eswa)
	rec.Coefficients[coeffDI] = encodeFloats(p.di)
}

func encodeFloats(vs []float64) string {
	b, _ := json.Marshal(vs)
	return string(b)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func contains(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
