// Package sysinfo gathers host, platform and resource descriptors.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	defaultDiskPath       = "/"
	defaultSampleInterval = 100 * time.Millisecond
)

// Info describes the host.
type Info struct {
	Hostname        string    `json:"hostname"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platform_version"`
	Architecture    string    `json:"architecture"`
	Processor       string    `json:"processor"`
	CPUCount        int       `json:"cpu_count"`
	CPUPercent      float64   `json:"cpu_percent"`
	MemoryTotal     uint64    `json:"memory_total"`
	MemoryAvailable uint64    `json:"memory_available"`
	DiskUsage       DiskUsage `json:"disk_usage"`
}

// DiskUsage is the usage of the filesystem holding the root path.
type DiskUsage struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// Source produces an Info snapshot.
type Source interface {
	Collect(ctx context.Context) (*Info, error)
}

// Collector reads Info from the running system.
type Collector struct {
	DiskPath       string
	SampleInterval time.Duration
}

// NewCollector returns a Collector for the root filesystem.
func NewCollector() *Collector {
	return &Collector{
		DiskPath:       defaultDiskPath,
		SampleInterval: defaultSampleInterval,
	}
}

// Collect gathers a fresh snapshot. The processor model is optional, any
// other failed query fails the whole collection.
func (c *Collector) Collect(ctx context.Context) (*Info, error) {
	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	info := &Info{
		Hostname:        hi.Hostname,
		Platform:        hi.OS,
		PlatformVersion: hi.KernelVersion,
		Architecture:    hi.KernelArch,
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.Processor = cpus[0].ModelName
	}

	if info.CPUCount, err = cpu.CountsWithContext(ctx, true); err != nil {
		return nil, fmt.Errorf("cpu count: %w", err)
	}

	percents, err := cpu.PercentWithContext(ctx, c.SampleInterval, false)
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) > 0 {
		info.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	info.MemoryTotal = vm.Total
	info.MemoryAvailable = vm.Available

	path := c.DiskPath
	if path == "" {
		path = defaultDiskPath
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("disk usage of %s: %w", path, err)
	}
	info.DiskUsage = DiskUsage{
		Total:   du.Total,
		Used:    du.Used,
		Free:    du.Free,
		Percent: du.UsedPercent,
	}

	return info, nil
}
