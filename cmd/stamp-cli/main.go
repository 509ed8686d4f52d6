package main

import "stamp-core/cmd/stamp-cli/cmd"

func main() {
	cmd.Execute()
}
