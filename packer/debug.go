package packer

import "fmt"

// When enabled, packing verifies that record counts fit the buffer
// dimensions and panics on mismatch. A mismatch is an internal invariant
// violation, never a caller error; production builds leave this off.
var debugChecks = false

// EnableDebugChecks turns on internal consistency assertions.
func EnableDebugChecks(enabled bool) {
	debugChecks = enabled
}

func assertRecordsFit(buf *Buffer, records, pixelsPerRecord int) {
	if !debugChecks {
		return
	}
	if records*pixelsPerRecord > buf.Pixels() {
		panic(fmt.Sprintf("packer: %d records of %d pixels exceed buffer %s", records, pixelsPerRecord, buf))
	}
	if int(buf.Records) != records {
		panic(fmt.Sprintf("packer: buffer %s declares %d records, packed %d", buf, buf.Records, records))
	}
}
