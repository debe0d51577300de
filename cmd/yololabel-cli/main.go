package main

import "yololabel/cmd/yololabel-cli/cmd"

func main() {
	cmd.Execute()
}
