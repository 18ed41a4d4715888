package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/gosuri/uiprogress"

	"github.com/kmatt/mysql2psql/internal/convert"
)

// progressBar renders conversion progress on stderr. The bar measures input
// bytes consumed against the input size; the counters beside it come from
// the converter.
type progressBar struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
	size     int64

	lines   atomic.Int64
	tables  atomic.Int64
	inserts atomic.Int64
	read    atomic.Int64
}

func newProgressBar(size int64, out io.Writer) *progressBar {
	pb := &progressBar{progress: uiprogress.New(), size: size}
	pb.progress.Out = out
	pb.progress.RefreshInterval = 200 * time.Millisecond

	pb.bar = pb.progress.AddBar(barTotal(size)).AppendCompleted().PrependElapsed()
	pb.bar.PrependFunc(func(*uiprogress.Bar) string {
		return fmt.Sprintf("line %d, %d tables, %d inserts", pb.lines.Load(), pb.tables.Load(), pb.inserts.Load())
	})
	pb.bar.AppendFunc(func(b *uiprogress.Bar) string {
		return eta(b.TimeElapsed(), b.CompletedPercent())
	})
	return pb
}

// barTotal caps the bar total at what an int holds on every platform.
func barTotal(size int64) int {
	const maxTotal = 1<<31 - 1
	if size > maxTotal {
		return maxTotal
	}
	return int(size)
}

// Start begins rendering.
func (pb *progressBar) Start() {
	pb.progress.Start()
}

// Stop renders the final state and stops.
func (pb *progressBar) Stop() {
	pb.progress.Stop()
}

// Bypass returns a writer that prints above the bar, for log output while
// the bar is shown.
func (pb *progressBar) Bypass() io.Writer {
	return pb.progress.Bypass()
}

// Update records converter progress and the bytes consumed from the input
// file. It is called after every line, so the bar is only moved when the
// byte count changed.
func (pb *progressBar) Update(p convert.Progress, read int64) {
	pb.lines.Store(int64(p.Line))
	pb.tables.Store(int64(p.Tables))
	pb.inserts.Store(int64(p.Inserts))
	if pb.read.Swap(read) == read {
		return
	}
	_ = pb.bar.Set(scaled(read, pb.size, pb.bar.Total))
}

// scaled maps read bytes of size onto a bar of total steps.
func scaled(read, size int64, total int) int {
	if size <= 0 || read <= 0 {
		return 0
	}
	if read >= size {
		return total
	}
	return int(float64(read) / float64(size) * float64(total))
}

// eta estimates the remaining time from the elapsed time and percent done.
func eta(elapsed time.Duration, percent float64) string {
	if percent <= 0 || percent >= 100 {
		return "ETA --"
	}
	remaining := time.Duration(float64(elapsed) * (100 - percent) / percent)
	return "ETA " + remaining.Round(time.Second).String()
}
