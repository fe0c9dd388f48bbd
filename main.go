package main

import "github.com/gravitl/usersync/cli/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}
