package pipeline

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Counters and timings for one scene compile.
type CompileStats struct {
	Triangles     int
	Materials     int
	Nodes         int
	Images        int
	EmissiveCount int
	SkippedMeshes int

	ExtractTime time.Duration
	BVHTime     time.Duration
	PackTime    time.Duration
	TotalTime   time.Duration
}

// Build a tabular representation of the compile statistics.
func (s *CompileStats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Stage", "Output", "Value"})
	table.Append([]string{"Extract", "Triangles", fmt.Sprintf("%d", s.Triangles)})
	table.Append([]string{"", "Materials", fmt.Sprintf("%d", s.Materials)})
	table.Append([]string{"", "Images", fmt.Sprintf("%d", s.Images)})
	table.Append([]string{"", "Emissive triangles", fmt.Sprintf("%d", s.EmissiveCount)})
	table.Append([]string{"", "Skipped meshes", fmt.Sprintf("%d", s.SkippedMeshes)})
	table.Append([]string{"", "Time", fmtDuration(s.ExtractTime)})
	table.Append([]string{"BVH", "Nodes", fmt.Sprintf("%d", s.Nodes)})
	table.Append([]string{"", "Time", fmtDuration(s.BVHTime)})
	table.Append([]string{"Pack", "Time", fmtDuration(s.PackTime)})
	table.SetFooter([]string{"Total", "", fmtDuration(s.TotalTime)})
	table.Render()
	return buf.String()
}

func fmtDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%d us", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", d.Milliseconds())
}
