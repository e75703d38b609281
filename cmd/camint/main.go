package main

import "github.com/voslund/camint/internal/cli"

func main() {
	cli.Execute()
}
