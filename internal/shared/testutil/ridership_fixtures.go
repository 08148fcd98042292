package testutil

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/korean"
)

// RidershipHeader is the header row of the public subway ridership export.
var RidershipHeader = []string{"사용일자", "노선명", "역명", "승차총승객수", "하차총승객수", "등록일자"}

// RidershipRow builds one data row in the export layout.
func RidershipRow(date, line, station, boardings, alightings string) []string {
	return []string{date, line, station, boardings, alightings, "20251103"}
}

// EncodeRidershipCSV renders the header and rows as CSV bytes in UTF-8.
func EncodeRidershipCSV(t *testing.T, rows ...[]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(RidershipHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return buf.Bytes()
}

// WriteCP949CSV writes the rows as a CP949 encoded CSV file inside t.TempDir.
func WriteCP949CSV(t *testing.T, name string, rows ...[]string) string {
	t.Helper()

	encoded, err := korean.EUCKR.NewEncoder().Bytes(EncodeRidershipCSV(t, rows...))
	if err != nil {
		t.Fatalf("encode cp949: %v", err)
	}
	return WriteFile(t, name, encoded)
}

// WriteUTF8BOMCSV writes the rows as UTF-8 with a leading byte order mark.
func WriteUTF8BOMCSV(t *testing.T, name string, rows ...[]string) string {
	t.Helper()

	data := append([]byte{0xEF, 0xBB, 0xBF}, EncodeRidershipCSV(t, rows...)...)
	return WriteFile(t, name, data)
}

// WriteFile stores raw bytes inside t.TempDir and returns the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// SampleMonth is a small October 2025 data set covering two lines and every period window.
func SampleMonth() [][]string {
	return [][]string{
		RidershipRow("20251001", "2호선", "강남", "1000", "900"),
		RidershipRow("20251001", "2호선", "역삼", "500", "400"),
		RidershipRow("20251001", "2호선", "선릉", "300", "200"),
		RidershipRow("20251001", "1호선", "서울역", "800", "700"),
		RidershipRow("20251015", "2호선", "강남", "1200", "1100"),
		RidershipRow("20251015", "2호선", "역삼", "600", "500"),
		RidershipRow("20251015", "2호선", "선릉", "100", "100"),
		RidershipRow("20251015", "1호선", "서울역", "900", "800"),
		RidershipRow("20251025", "2호선", "강남", "1100", "1000"),
		RidershipRow("20251025", "1호선", "서울역", "850", "750"),
		RidershipRow("20250930", "2호선", "강남", "9999", "9999"),
	}
}
