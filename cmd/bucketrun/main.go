package main

import "github.com/bucketrun/bucketrun/cmd/bucketrun/commands"

func main() {
	commands.Execute()
}
