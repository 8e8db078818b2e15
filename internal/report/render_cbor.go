package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// cborMode encodes times as RFC3339 strings and sorts map keys so output
// is deterministic.
var cborMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{
		Time: cbor.TimeRFC3339Nano,
		Sort: cbor.SortCanonical,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// WriteCBOR writes a report as CBOR to an io.Writer.
func WriteCBOR(w io.Writer, report any) error {
	if err := cborMode.NewEncoder(w).Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteCBORFile writes a report as CBOR to disk.
func WriteCBORFile(path string, report any) error {
	data, err := cborMode.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
