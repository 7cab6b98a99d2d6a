package main

import (
	anklumecmd "github.com/jmchantrein/anklume/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	anklumecmd.SetVersionInfo(version, commit)
	anklumecmd.Execute()
}
