//go:build !tinygo

package main

import "c28rtos/internal/cli"

func main() {
	cli.Execute()
}
