package main

import "github.com/KaramelBytes/vidstats-cli/cmd"

func main() {
	cmd.Execute()
}
