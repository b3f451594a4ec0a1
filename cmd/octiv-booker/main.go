package main

import "github.com/seblum/octiv-booker/cmd"

func main() {
	cmd.Execute()
}
