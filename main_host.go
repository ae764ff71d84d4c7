//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"ubit/app"
	"ubit/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var appCfg app.Config
	var group uint
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Poll rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N polls in headless mode (0 = run forever).")
	flag.StringVar(&cfg.Host.MQTT, "mqtt", "", "MQTT broker URL shared with other boards, e.g. mqtt://localhost:1883/lab1.")
	flag.StringVar(&cfg.Host.UARTPort, "uart", "", "Serial device that receives the board's serial output.")
	flag.IntVar(&cfg.Host.UARTBaud, "baud", 115200, "Baud rate for -uart.")
	flag.BoolVar(&cfg.Host.TTY, "tty", false, "Send serial output to the terminal instead of stdout.")
	flag.UintVar(&group, "group", 0, "Radio group (0-255).")
	flag.BoolVar(&appCfg.Beacon, "beacon", false, "Broadcast a counter and show what other boards send.")
	flag.IntVar(&appCfg.BeaconPeriod, "beacon-period", 1000, "Beacon interval in milliseconds.")
	flag.IntVar(&appCfg.Tick, "tick", 1, "Timer tick in milliseconds.")
	flag.Parse()
	defer glog.Flush()

	if group > 255 {
		fmt.Fprintf(os.Stderr, "invalid -group %d\n", group)
		os.Exit(2)
	}
	appCfg.Group = uint8(group)
	appCfg.Baud = cfg.Host.UARTBaud

	newApp := func(h hal.HAL) func() error { return app.New(h, appCfg) }

	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			glog.Flush()
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp, cfg.Host); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}
