// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import "flag"

var (
	flagConfigFile, flagLogLevel, flagHTTPAddr string
	flagGops                                   bool
)

func cliInit() {
	flag.StringVar(&flagConfigFile, "config", "./synnax-driver-config.json", "Specify alternative path to the rack's `config.json`")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Sets the logging level: `[debug, info, warn, err, crit]`")
	flag.StringVar(&flagHTTPAddr, "http-addr", ":9090", "Address the /healthz and /metrics diagnostics server listens on; empty disables it")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()
}
