//go:build tinygo

package main

import (
	"ubit/app"
	"ubit/hal"
)

func main() {
	app.Run(hal.New(), app.Config{Tick: hal.DefaultTick})
}
