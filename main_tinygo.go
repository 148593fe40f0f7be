//go:build tinygo

package main

import (
	"c28rtos/app"
	"c28rtos/hal"
)

func main() {
	app.Run(hal.New())
}
