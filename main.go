package main

import "github.com/Rorical/smartagent/cmd"

func main() {
	cmd.Execute()
}
