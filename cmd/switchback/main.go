// Copyright 2026 The Switchback Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
This command provides an executable version of switchback with the
built-in predicates and filters.

For the list of command line options, run:

	switchback -help

For details about the usage and extensibility of switchback, please see
the documentation of the root switchback package.
*/
package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback"
	"github.com/switchback/switchback/config"
)

func main() {
	cfg := config.NewConfig()
	if err := cfg.Parse(); err != nil {
		log.Fatalf("Error processing config: %s", err)
	}

	log.SetLevel(cfg.ApplicationLogLevel)
	if err := switchback.Run(cfg.ToOptions()); err != nil {
		log.Fatal(err)
	}
}
