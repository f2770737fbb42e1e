package main

import "github.com/KaramelBytes/wavepeak-cli/cmd"

func main() {
	cmd.Execute()
}
