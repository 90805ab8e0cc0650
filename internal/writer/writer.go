// Package writer serializes calibration records to the CSV shape consumed by
// the ingest pipeline and implements the write-then-commit protocol that
// gates the irreversible source file cleanup.
package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/funnyabc/asset-management/internal/calibration"
)

// ErrUnknownSubtype means a CTD tracking id matched none of the known
// subtype markers. No default is assumed; writing to a guessed path would
// scatter records across the archive.
var ErrUnknownSubtype = errors.New("writer: tracking id matches no known instrument subtype")

// ctdSubtypeMarkers maps tracking id substrings to the CTD instrument
// subtype. The subtype picks the output directory and the CTDPF/CTDBP
// specific row handling.
var ctdSubtypeMarkers = []struct {
	marker  string
	subtype string
}{
	{"66662", "CTDPFA"},
	{"67627", "CTDPFB"},
	{"67977", "CTDPFL"},
	{"69827", "CTDBPN"},
	{"69828", "CTDBPO"},
}

// ResolveCTDSubtype derives the instrument subtype from the tracking id
// content. The calibration file itself never carries this information.
func ResolveCTDSubtype(trackingID string) (string, error) {
	for _, m := range ctdSubtypeMarkers {
		if strings.Contains(trackingID, m.marker) {
			return m.subtype, nil
		}
	}
	return "", fmt.Errorf("tracking id %s: %w", trackingID, ErrUnknownSubtype)
}

// Writer writes calibration CSV files under OutDir, one subdirectory per
// instrument subtype or family.
type Writer struct {
	OutDir string
}

// New returns a Writer rooted at outDir.
func New(outDir string) *Writer {
	return &Writer{OutDir: outDir}
}

// WriteCTD resolves the record's subtype, strips the O series coefficients
// unless the subtype is a CTDBP variant, and writes the record. CTDPF
// subtypes get one synthetic CC_offset row. Returns the committed file path.
func (w *Writer) WriteCTD(rec *calibration.Record) (string, error) {
	subtype, err := ResolveCTDSubtype(rec.TrackingID)
	if err != nil {
		return "", err
	}
	rec.Subtype = subtype

	if !strings.HasPrefix(subtype, "CTDBP") {
		for _, name := range calibration.OSeriesCoefficients() {
			delete(rec.Coefficients, name)
		}
	}

	var extra [][]string
	if strings.HasPrefix(subtype, "CTDPF") {
		extra = append(extra, []string{rec.Serial, "CC_offset", "0", ""})
	}
	return w.commit(rec, subtype, extra)
}

// WriteNutnr writes a SUNA record under the family directory.
func (w *Writer) WriteNutnr(rec *calibration.Record) (string, error) {
	return w.commit(rec, "NUTNRA", nil)
}

// commit writes the record's rows to a temporary file in the target
// directory, flushes it, and renames it into place. The rename is the commit
// point; callers may delete or archive the source file only after commit
// returns without error.
func (w *Writer) commit(rec *calibration.Record, dir string, extra [][]string) (string, error) {
	target := filepath.Join(w.OutDir, dir)
	if err := os.MkdirAll(target, 0755); err != nil {
		return "", err
	}
	final := filepath.Join(target,
		fmt.Sprintf("%s__%s.csv", rec.TrackingID, rec.Date.Format("20060102")))

	tmp, err := os.CreateTemp(target, ".cal-*.csv")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	cw := csv.NewWriter(tmp)
	if err = cw.Write([]string{"serial", "name", "value", "notes"}); err != nil {
		tmp.Close()
		return "", err
	}
	for _, name := range sortedNames(rec.Coefficients) {
		if err = cw.Write([]string{rec.Serial, name, rec.Coefficients[name], ""}); err != nil {
			tmp.Close()
			return "", err
		}
	}
	for _, row := range extra {
		if err = cw.Write(row); err != nil {
			tmp.Close()
			return "", err
		}
	}
	cw.Flush()
	if err = cw.Error(); err != nil {
		tmp.Close()
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), final); err != nil {
		return "", err
	}
	return final, nil
}

func sortedNames(coefficients map[string]string) []string {
	names := make([]string, 0, len(coefficients))
	for name := range coefficients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
