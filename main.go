package main

import "github.com/spacefreq/ificsync/cmd"

func main() {
	cmd.Execute()
}
