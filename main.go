// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/ts2g/etabmap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
