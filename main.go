// Package main provides the entry point for dmcache.
// dmcache is a cycle-accurate model of a direct-mapped data cache chip,
// clocked with the Akita simulation framework.
package main

import "github.com/sarchlab/dmcache/cmd"

func main() {
	cmd.Execute()
}
