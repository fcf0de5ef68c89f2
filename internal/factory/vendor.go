// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"encoding/json"
	"fmt"

	"github.com/fieldbridge/driver/internal/ethercat/esi"
	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/status"
)

// vendorStub claims a single integration prefix and reports a task.Task
// can never be built for it: the vendor SDK (NI DAQmx, LabJack's LJM, an
// OPC UA client, an HTTP instrument client) sits outside this module, per
// the Source/Sink contracts in pkg/pipeline being hardware-specific and
// external. Registering a stub (rather than leaving the prefix unclaimed)
// means a bad task_set for that integration fails with a clear
// "vendor wrapper not present" error instead of MultiFactory's generic
// "no factory registered" message.
type vendorStub struct {
	prefix string
}

func (v vendorStub) CanConfigure(taskType string) bool { return hasPrefix(taskType, v.prefix) }

func (v vendorStub) Configure(Context, task.Descriptor, *status.Handler) (task.Task, task.ConfigureResult, error) {
	return nil, task.ConfigureResult{}, fmt.Errorf("%s: vendor SDK wrapper is not built into this module", v.prefix)
}

// NIFactory, LabJackFactory and HTTPFactory claim their
// integration's task-type prefix but defer the actual hardware I/O to a
// vendor wrapper this module does not ship.
var (
	NIFactory      = vendorStub{prefix: "ni"}
	LabJackFactory = vendorStub{prefix: "labjack"}
	HTTPFactory    = vendorStub{prefix: "http"}
)

// EtherCATFactory claims the "ethercat" prefix. Unlike the other vendor
// stubs it does real work before giving up: it resolves the task's
// (vendor, product, revision) against the ESI/PDO registry (C18), so a
// descriptor naming an unknown device fails with a config error that
// names the problem, rather than the generic "not built into this
// module" message — the bus I/O itself still requires a master library
// this module does not ship.
type EtherCATFactory struct {
	Registry *esi.Registry
}

type ethercatDeviceConfig struct {
	Vendor   uint32 `json:"vendor"`
	Product  uint32 `json:"product"`
	Revision uint32 `json:"revision"`
}

func (f EtherCATFactory) CanConfigure(taskType string) bool { return hasPrefix(taskType, "ethercat") }

func (f EtherCATFactory) Configure(_ Context, desc task.Descriptor, _ *status.Handler) (task.Task, task.ConfigureResult, error) {
	var cfg ethercatDeviceConfig
	if err := json.Unmarshal(desc.Config, &cfg); err != nil {
		return nil, task.ConfigureResult{}, fmt.Errorf("ethercat: config: %w", err)
	}
	if f.Registry == nil || !f.Registry.IsDeviceKnown(cfg.Vendor, cfg.Product) {
		return nil, task.ConfigureResult{}, fmt.Errorf("ethercat: device %#x:%#x is not in the ESI registry", cfg.Vendor, cfg.Product)
	}
	if _, err := f.Registry.Lookup(cfg.Vendor, cfg.Product, cfg.Revision); err != nil {
		return nil, task.ConfigureResult{}, fmt.Errorf("ethercat: %w", err)
	}
	return nil, task.ConfigureResult{}, fmt.Errorf("ethercat: device recognized but no EtherCAT master is wired into this module")
}
