// Package calibration parses vendor instrument calibration files into a
// canonical coefficient record. Two instrument families are supported: CTD
// instruments (Sea-Bird XMLCON markup plus the legacy flat SEACAT format)
// and SUNA nitrate sensors (tagged comma-delimited records).
package calibration

import (
	"time"
)

// Record is the canonical result of parsing one calibration file. A record is
// created empty, populated by exactly one parser invocation, annotated with a
// tracking id resolved from the serial, serialized once, then discarded.
type Record struct {
	// TrackingID is the asset UID resolved from the serial after parsing.
	// Empty until resolved.
	TrackingID string

	// Serial is the instrument serial number. CTD serials carry the "16-"
	// family prefix.
	Serial string

	// Date is the calibration date. Calendar date only; time of day carries
	// no meaning.
	Date time.Time

	// Coefficients maps canonical coefficient names to their values. Array
	// valued coefficients (SUNA wavelength tables) are stored JSON-encoded.
	Coefficients map[string]string

	// Subtype is the CTD instrument subtype (CTDPFA, CTDBPN, ...), resolved
	// from the tracking id content, never from the file. Empty for SUNA.
	Subtype string
}

// NewRecord returns an empty calibration record.
func NewRecord() *Record {
	return &Record{Coefficients: make(map[string]string)}
}

// setSerial records the serial number the first time it is seen. Duplicate
// serial-bearing fields later in a file never overwrite it.
func (r *Record) setSerial(serial string) {
	if r.Serial == "" {
		r.Serial = serial
	}
}

// setDateFirst records the date only if none has been captured yet. CTD files
// keep the first date encountered.
func (r *Record) setDateFirst(d time.Time) {
	if r.Date.IsZero() {
		r.Date = d
	}
}

// setDateLatest keeps the chronologically latest of the stored and the given
// date. SUNA files may carry several dated creation lines in any order.
func (r *Record) setDateLatest(d time.Time) {
	if r.Date.IsZero() || r.Date.Before(d) {
		r.Date = d
	}
}
