package calibration

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// ctdSerialPrefix marks a serial as belonging to the CTD family.
	ctdSerialPrefix = "16-"

	// ctdDateLayout matches the day-Mon-2digit-year dates in Sea-Bird files,
	// e.g. "08-Apr-13".
	ctdDateLayout = "02-Jan-06"

	xmlconExt = ".xmlcon"
)

// CTDParser reads CTD calibration files. XMLCON markup is preferred; any
// other extension is interpreted as the legacy flat SEACAT format.
type CTDParser struct {
	log *zap.Logger
}

// NewCTDParser returns a parser logging through the given logger. A nil
// logger disables logging.
func NewCTDParser(log *zap.Logger) *CTDParser {
	if log == nil {
		log = zap.NewNop()
	}
	return &CTDParser{log: log}
}

// ReadCal parses the calibration file at path into rec. It first attempts the
// XMLCON format and falls back to the legacy flat format when the extension
// does not match.
func (p *CTDParser) ReadCal(path string, rec *Record) error {
	ok, err := p.readXMLCON(path, rec)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return p.readSeacat(path, rec)
}

// xmlconState is the traversal accumulator threaded through the depth-first
// walk of an XMLCON element tree.
type xmlconState struct {
	// inTemperatureBlock is set on entering a TemperatureSensor section and
	// cleared by the next generic Sensor element, scoping the T-prefixed key
	// lookup to exactly one nested section.
	inTemperatureBlock bool

	// oxygenSensorPresent latches true on the first OxygenSensor section and
	// is never cleared.
	oxygenSensorPresent bool

	// pendingOxygen collects oxygen-map hits during the walk. They are merged
	// into the record only if an oxygen sensor section was seen anywhere in
	// the file, so inclusion does not depend on element order.
	pendingOxygen map[string]string
}

// xmlconNode is a generic XMLCON element: tag, immediate text, children.
type xmlconNode struct {
	XMLName  xml.Name
	Text     string       `xml:",chardata"`
	Children []xmlconNode `xml:",any"`
}

// readXMLCON reports whether path is an XMLCON file and, if so, parses it
// into rec. A false return with nil error means "not this format" and the
// caller should fall back to the legacy parser.
func (p *CTDParser) readXMLCON(path string, rec *Record) (bool, error) {
	if !strings.HasSuffix(path, xmlconExt) {
		return false, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer fh.Close()

	var root xmlconNode
	if err := xml.NewDecoder(fh).Decode(&root); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}

	state := xmlconState{pendingOxygen: make(map[string]string)}
	state, err = walkXMLCON(&root, state, rec)
	if err != nil {
		return false, err
	}
	if state.oxygenSensorPresent {
		for name, value := range state.pendingOxygen {
			rec.Coefficients[name] = value
		}
	}
	return true, nil
}

// walkXMLCON folds one element and its subtree into the record, threading the
// traversal state through in document order.
func walkXMLCON(node *xmlconNode, state xmlconState, rec *Record) (xmlconState, error) {
	tag := node.XMLName.Local
	key := strings.ToUpper(tag)
	text := strings.TrimSpace(node.Text)

	if key == "OXYGENSENSOR" {
		state.oxygenSensorPresent = true
	}

	if key != "" {
		if tag == "TemperatureSensor" {
			state.inTemperatureBlock = true
		}
		if state.inTemperatureBlock && tag == "Sensor" {
			state.inTemperatureBlock = false
		} else if state.inTemperatureBlock {
			key = "T" + tag
		}

		if tag == "SerialNumber" && text != "" {
			rec.setSerial(ctdSerialPrefix + text)
		}
		if tag == "CalibrationDate" && text != "" && rec.Date.IsZero() {
			d, err := time.Parse(ctdDateLayout, text)
			if err != nil {
				return state, fmt.Errorf("calibration date %q: %w", text, err)
			}
			rec.setDateFirst(d)
		}

		if name, ok := ctdNameMap[key]; ok {
			rec.Coefficients[name] = text
		} else if name, ok := ctdOxygenMap[key]; ok {
			state.pendingOxygen[name] = text
		}
	}

	for i := range node.Children {
		var err error
		state, err = walkXMLCON(&node.Children[i], state, rec)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

// readSeacat parses the legacy flat KEY=VALUE format. Lines that do not split
// into exactly two parts are comments or headers and are skipped.
func (p *CTDParser) readSeacat(path string, rec *Record) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "=")
		if len(parts) != 2 {
			continue
		}
		key := parts[0]
		value := strings.TrimSpace(parts[1])

		switch {
		case key == "INSTRUMENT_TYPE" && value == "SEACATPLUS":
			rec.setSerial(ctdSerialPrefix)
		case key == "SERIALNO":
			// The instrument type line must precede the serial line; only it
			// establishes the family prefix.
			if rec.Serial == "" {
				p.log.Warn("serial number precedes instrument type line, serial missing family prefix",
					zap.String("file", path),
					zap.String("serial", value))
				rec.Serial = value
			} else {
				rec.Serial += value
			}
		case key == "CCALDATE":
			d, err := time.Parse(ctdDateLayout, value)
			if err != nil {
				return fmt.Errorf("calibration date %q: %w", value, err)
			}
			rec.setDateFirst(d)
		}

		if name, ok := ctdNameMap[key]; ok {
			rec.Coefficients[name] = value
		}
	}
	return scanner.Err()
}
