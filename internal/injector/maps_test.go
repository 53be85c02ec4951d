package injector

import "testing"

func TestParseMapsLine(t *testing.T) {
	line := "7f1234560000-7f1234580000 r-xp 00000000 08:01 131073 /lib/x86_64-linux-gnu/libc.so.6"
	fields := splitMapsFieldsForTest(line)
	if len(fields) < 6 {
		t.Fatalf("expected at least 6 fields, got %d: %v", len(fields), fields)
	}
	if fields[5] != "/lib/x86_64-linux-gnu/libc.so.6" {
		t.Fatalf("pathname = %q, want libc.so.6 path", fields[5])
	}
}

// splitMapsFieldsForTest exposes the same field-splitting behavior
// readMaps uses, so the fixed-format assumptions (whitespace-separated,
// pathname last) stay covered by a test without requiring a real
// /proc/<pid>/maps file.
func splitMapsFieldsForTest(line string) []string {
	return mapsFields(line)
}
