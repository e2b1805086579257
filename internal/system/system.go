// Package system contains host-level helpers for the conversion pipeline.
package system

import (
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the system package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// InitResourceLimits raises the open-file limit. Each page worker holds a
// rendered page plus OCR scratch files.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.WithError(err).Warn("Could not read open-file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.WithError(err).Warn("Could not raise open-file limit")
		return
	}
	log.WithField("limit", rLimit.Cur).Debug("Open-file limit raised")
}

// bytesPerPage estimates the RGBA memory footprint of one rendered page.
func bytesPerPage(pageWidthPt, pageHeightPt float64, dpi int) uint64 {
	if pageWidthPt <= 0 || pageHeightPt <= 0 || dpi <= 0 {
		// A4 at 300 DPI as a fallback.
		return 2480 * 3508 * 4
	}
	scale := float64(dpi) / 72.0
	return uint64(pageWidthPt*scale) * uint64(pageHeightPt*scale) * 4
}

// RecommendedWorkers returns the page worker count: the requested value when
// positive, otherwise the CPU count capped by available memory so that
// concurrent rasterized pages do not exhaust RAM.
func RecommendedWorkers(requested int, pageWidthPt, pageHeightPt float64, dpi int) int {
	if requested > 0 {
		return requested
	}

	workers := runtime.NumCPU()
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.WithError(err).Debug("Could not read memory stats, sizing workers by CPU only")
		return workers
	}

	// Keep a 2x headroom per page for OCR intermediates.
	perWorker := 2 * bytesPerPage(pageWidthPt, pageHeightPt, dpi)
	byMemory := int(vm.Available / perWorker)
	if byMemory < workers {
		workers = byMemory
	}
	if workers < 1 {
		workers = 1
	}
	log.WithFields(logrus.Fields{
		"workers":   workers,
		"available": vm.Available,
	}).Debug("Worker pool sized")
	return workers
}
