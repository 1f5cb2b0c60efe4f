// Copyright 2026 The ptremap Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"os"
	"runtime"

	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/process"
)

// Host describes the machine a report was produced on.
type Host struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	Kernel   string `json:"kernel" yaml:"kernel"`
	Arch     string `json:"arch" yaml:"arch"`
	CPUModel string `json:"cpuModel" yaml:"cpuModel"`
	CPUs     int    `json:"cpus" yaml:"cpus"`
	Go       string `json:"go" yaml:"go"`

	// RSS is the resident set size of this process, in bytes.
	RSS uint64 `json:"rss" yaml:"rss"`
}

// DescribeHost collects a Host. Fields that cannot be read are left empty.
func DescribeHost() Host {
	h := Host{
		Arch: runtime.GOARCH,
		CPUs: runtime.NumCPU(),
		Go:   runtime.Version(),
	}
	if info, err := host.Info(); err != nil {
		log.Debugf("Host info: %v", err)
	} else {
		h.Hostname = info.Hostname
		h.Kernel = info.KernelVersion
	}
	if infos, err := cpu.Info(); err != nil {
		log.Debugf("CPU info: %v", err)
	} else if len(infos) > 0 {
		h.CPUModel = infos[0].ModelName
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err != nil {
		log.Debugf("Process info: %v", err)
	} else if mem, err := p.MemoryInfo(); err != nil {
		log.Debugf("Memory info: %v", err)
	} else {
		h.RSS = mem.RSS
	}
	return h
}
