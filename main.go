package main

import "github.com/vibast-solutions/ms-go-letters/cmd"

func main() {
	cmd.Execute()
}
