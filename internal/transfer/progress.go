package transfer

import (
	"time"

	"github.com/kiloframe/beam/internal/ui"
	"github.com/kiloframe/beam/internal/utils"
)

// RenderSummary prints a table summarizing a finished transfer: file
// count, total size, wall-clock duration, and the resulting average
// throughput.
func RenderSummary(filesCount int, totalSize int64, duration time.Duration) {
	seconds := duration.Seconds()
	var speed float64
	if seconds > 0 {
		speed = float64(totalSize) / seconds
	}

	ui.RenderTransferSummary(ui.TransferSummary{
		Status:    "Complete",
		Files:     filesCount,
		TotalSize: utils.FormatSize(totalSize),
		Duration:  utils.FormatTimeDuration(duration),
		Speed:     utils.FormatSpeed(speed),
	})
}
