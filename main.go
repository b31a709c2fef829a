package main

import "github.com/algovanity/algovanity/cmd"

func main() {
	cmd.Execute()
}
