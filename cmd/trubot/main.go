package main

import "github.com/kamir/trubot/cmd/trubot/cmd"

func main() {
	cmd.Execute()
}
