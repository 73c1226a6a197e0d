package main

import "github.com/yz4230/shipci/cmd"

func main() {
	cmd.Execute()
}
