// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command driver is the rack-resident process bridging field hardware to
// the telemetry cluster: it loads the rack's configuration, connects to
// the cluster, and runs the task manager until asked to shut down.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/google/gops/agent"

	"github.com/fieldbridge/driver/internal/cluster"
	"github.com/fieldbridge/driver/internal/config"
	"github.com/fieldbridge/driver/internal/ethercat/esi"
	"github.com/fieldbridge/driver/internal/factory"
	"github.com/fieldbridge/driver/internal/httpapi"
	"github.com/fieldbridge/driver/internal/runtimeenv"
	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/internal/taskmanager"
	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/log"
)

func main() {
	cliInit()
	log.SetLogLevel(flagLogLevel)

	if err := run(); err != nil {
		log.Critf("driver: %v", err)
		os.Exit(1)
	}
}

func run() error {
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			return fmt.Errorf("starting gops agent: %w", err)
		}
		defer agent.Close()
	}

	rack, err := config.Load(flagConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	b, err := rack.Retry.Breaker()
	if err != nil {
		return fmt.Errorf("retry config: %w", err)
	}
	retryBreaker := breaker.New(b)

	client, err := cluster.Connect(rack.ClusterConfig())
	if err != nil {
		return fmt.Errorf("connecting to cluster: %w", err)
	}
	defer client.Close()

	ctx := factory.Context{RackKey: rack.RackKey, Client: client, Breaker: retryBreaker}
	registry := buildRegistry(ctx, rack)

	manager := taskmanager.New(client, registry, retryBreaker)

	var httpSrv *http.Server
	if flagHTTPAddr != "" {
		manager.OnTaskCountChanged = httpapi.SetTasksRunning
		httpSrv = httpapi.NewServer(flagHTTPAddr)
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warnf("driver: httpapi server stopped: %v", err)
			}
		}()
	}

	initial, err := registry.ConfigureInitialTasks(map[uint64]task.Task{}, cluster.NewStatusEmitter(client, cluster.SubjectTaskState))
	if err != nil {
		return fmt.Errorf("starting initial tasks: %w", err)
	}
	manager.Seed(initial)

	runtimeenv.Notify(true, "driver running")
	log.Infof("driver: rack %d connected, running", rack.RackKey)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- manager.Run(stop) }()

	reason := runtimeenv.WaitForShutdown()
	log.Infof("driver: shutting down (%s)", reason)
	close(stop)
	runtimeenv.Notify(false, "stopping")

	if httpSrv != nil {
		_ = httpSrv.Shutdown(context.Background())
	}

	return <-done
}

// buildRegistry composes the per-integration factories this rack runs.
// Meminfo/heartbeat/sequence are always present; vendor integrations are
// only registered when the rack's config opts in, so an unconfigured
// integration's task types fail with "no factory registered" rather than
// silently being claimed and rejected.
func buildRegistry(ctx factory.Context, rack config.Rack) *factory.MultiFactory {
	m := factory.New(ctx, factory.MeminfoFactory{}, factory.HeartbeatFactory{}, factory.SequenceFactory{})

	if rack.HasIntegration("ni") {
		m.Register(factory.NIFactory)
	}
	if rack.HasIntegration("labjack") {
		m.Register(factory.LabJackFactory)
	}
	if rack.HasIntegration("http") {
		m.Register(factory.HTTPFactory)
	}
	if rack.HasIntegration("ethercat") {
		// No ESI blob path is modeled in the config schema yet: the
		// registry starts empty, so every EtherCAT device is reported
		// as unknown until one is loaded (esi.Parse) and wired in.
		m.Register(factory.EtherCATFactory{Registry: &esi.Registry{}})
	}

	return m
}
