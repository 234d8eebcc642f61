package main

import "github.com/tanq16/mcscs/cmd"

func main() {
	cmd.Execute()
}
