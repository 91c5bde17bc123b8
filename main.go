package main

import "github.com/derickschaefer/encore/cmd"

func main() {
	cmd.Execute()
}
