// Package batch walks the per-family manufacturer directories, dispatches
// each calibration file to its parser, resolves tracking ids and drives the
// write/cleanup sequence. Files are processed one at a time; a file that
// cannot be attributed or classified is skipped and the batch continues.
package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/funnyabc/asset-management/internal/calibration"
	"github.com/funnyabc/asset-management/internal/lookup"
	"github.com/funnyabc/asset-management/internal/writer"
)

// Processor drives one batch run over the manufacturer directories.
type Processor struct {
	Lookup *lookup.Store
	Writer *writer.Writer
	Log    *zap.Logger
}

// New returns a Processor. A nil logger disables logging.
func New(store *lookup.Store, w *writer.Writer, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{Lookup: store, Writer: w, Log: log}
}

// Family describes one instrument family: which filenames it accepts and how
// one file is processed end to end. The batch driver selects families from
// this table instead of parser type hierarchies.
type Family struct {
	Name    string
	Accepts func(name string) bool
	Process func(p *Processor, path string) error
}

// CTDFamily processes CTD calibration files. Any non-hidden file is a
// candidate; the parser itself discriminates XMLCON from the legacy format.
// The source file is deleted after a committed write.
func CTDFamily() Family {
	return Family{
		Name:    "CTD",
		Accepts: func(string) bool { return true },
		Process: (*Processor).processCTD,
	}
}

// NutnrFamily processes SUNA calibration files. Only filenames carrying the
// accepted device stream prefix are taken; the source file is moved to the
// archive directory after a committed write.
func NutnrFamily(archiveDir string) Family {
	return Family{
		Name: "NUTNR",
		Accepts: func(name string) bool {
			return strings.HasPrefix(name, calibration.NutnrFilePrefix)
		},
		Process: func(p *Processor, path string) error {
			return p.processNutnr(path, archiveDir)
		},
	}
}

// Run walks dir and processes every accepted file of the family. Unresolved
// tracking ids and unknown subtypes skip the file; filesystem errors abort
// the walk.
func (p *Processor) Run(dir string, fam Family) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !fam.Accepts(d.Name()) {
			return nil
		}

		err = fam.Process(p, path)
		switch {
		case err == nil:
			p.Log.Info("calibration file processed",
				zap.String("family", fam.Name), zap.String("file", path))
		case errors.Is(err, lookup.ErrUnresolved):
			p.Log.Info("skipping file, serial unresolved",
				zap.String("family", fam.Name), zap.String("file", path),
				zap.Error(err))
		case errors.Is(err, writer.ErrUnknownSubtype):
			p.Log.Error("skipping file, unknown instrument subtype",
				zap.String("family", fam.Name), zap.String("file", path),
				zap.Error(err))
		default:
			return err
		}
		return nil
	})
}

// processCTD parses one CTD file, resolves its tracking id, writes the CSV
// and removes the source. The remove only happens after the write has been
// committed.
func (p *Processor) processCTD(path string) error {
	rec := calibration.NewRecord()
	parser := calibration.NewCTDParser(p.Log)
	if err := parser.ReadCal(path, rec); err != nil {
		return err
	}

	uid, err := p.Lookup.UID(rec.Serial)
	if err != nil {
		return err
	}
	rec.TrackingID = uid

	out, err := p.Writer.WriteCTD(rec)
	if err != nil {
		return err
	}
	p.Log.Debug("calibration record written", zap.String("output", out))
	return os.Remove(path)
}

// processNutnr parses one SUNA file, resolves its tracking id, writes the
// CSV and archives the source.
func (p *Processor) processNutnr(path, archiveDir string) error {
	rec := calibration.NewNutnrRecord(
		calibration.DefaultLowerWavelength, calibration.DefaultUpperWavelength)
	parser := calibration.NewNutnrParser(p.Log)
	if err := parser.ReadCal(path, rec); err != nil {
		return err
	}

	uid, err := p.Lookup.UID(rec.Serial)
	if err != nil {
		return err
	}
	rec.TrackingID = uid

	out, err := p.Writer.WriteNutnr(rec)
	if err != nil {
		return err
	}
	p.Log.Debug("calibration record written", zap.String("output", out))

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(archiveDir, filepath.Base(path)))
}
