package main

import "github.com/Jacksonmativo/SiteOrigin-Checker/cmd"

// execCmd is indirected so tests can stub out command execution.
var execCmd = cmd.Execute

func main() {
	execCmd()
}
