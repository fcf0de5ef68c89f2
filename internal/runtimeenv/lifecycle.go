// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runtimeenv manages the driver process's lifecycle: reporting
// readiness to systemd (if present) and watching for the two supported
// shutdown triggers, an OS signal and the "STOP" stdin command.
package runtimeenv

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fieldbridge/driver/pkg/log"
)

// Notify informs systemd of a readiness/status change via sd_notify(3).
// A no-op when NOTIFY_SOCKET is unset (i.e. not started under systemd).
func Notify(ready bool, status string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return
	}

	args := []string{fmt.Sprintf("--pid=%d", os.Getpid())}
	if ready {
		args = append(args, "--ready")
	}
	if status != "" {
		args = append(args, fmt.Sprintf("--status=%s", status))
	}

	if err := exec.Command("systemd-notify", args...).Run(); err != nil {
		log.Debugf("runtimeenv: systemd-notify failed: %v", err)
	}
}

// WaitForShutdown blocks until SIGINT/SIGTERM is received or a line
// reading exactly "STOP" is read from stdin, per the driver CLI contract.
// It returns the reason for logging purposes.
func WaitForShutdown() string {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stdinCh := make(chan struct{}, 1)
	go watchStdinStop(stdinCh)

	select {
	case sig := <-sigCh:
		return "signal " + sig.String()
	case <-stdinCh:
		return "STOP on stdin"
	}
}

func watchStdinStop(done chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "STOP" {
			done <- struct{}{}
			return
		}
	}
}
