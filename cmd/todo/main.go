package main

import "github.com/Makepad-fr/tabletodo/internal/cli"

func main() {
	cli.Main()
}
