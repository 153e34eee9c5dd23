package consistency

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteReportCSV writes the scan report as UTF-16LE CSV with a BOM, the
// encoding Excel opens without an import wizard.
func WriteReportCSV(w io.Writer, report *ConsistencyReport) error {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	tw := transform.NewWriter(w, enc)
	cw := csv.NewWriter(tw)

	header := []string{"classification", "asset_ulid", "kind", "lifecycle_state", "detail"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, f := range report.Orphans {
		detail := "no recovery candidate"
		if f.RecoveryCandidate != nil {
			detail = "recovery candidate: " + *f.RecoveryCandidate
		}
		rec := []string{"orphan", f.Asset.AssetULID, string(f.Asset.Kind), string(f.Asset.State), detail}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	for _, f := range report.Inverse {
		detail := "dangling assignment id " + strconv.FormatInt(f.DanglingAssignmentID, 10)
		if f.DanglingEmployeeID != nil {
			detail += " -> " + *f.DanglingEmployeeID
		}
		rec := []string{"inverse", f.Asset.AssetULID, string(f.Asset.Kind), string(f.Asset.State), detail}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return tw.Close()
}
