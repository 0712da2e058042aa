package main

import "github.com/pythonstrup/openclaw-docker/cmd"

func main() {
	cmd.Execute()
}
