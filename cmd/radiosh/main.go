// radiosh is an interactive radio peer for boards running on the host. It joins the same
// MQTT medium as `ubit -mqtt` and sends and prints frames in the boards' wire format.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"ubit/hal"
	"ubit/internal/buildinfo"
)

const peerKey = "$peer"

var (
	brokerURL = "mqtt://localhost:1883"
	group     uint
	evalOnly  bool
)

func init() {
	flag.StringVar(&brokerURL, "mqtt", brokerURL, "MQTT broker URL shared with the boards.")
	flag.UintVar(&group, "group", group, "Radio group (0-255).")
	flag.BoolVar(&evalOnly, "e", evalOnly, "Run the command line arguments and exit.")
}

var commands = []*ishell.Cmd{
	{
		Name: "send",
		Help: "TEXT... transmit text as one frame",
		Func: func(c *ishell.Context) {
			if err := peerFrom(c).Send([]byte(strings.Join(c.Args, " "))); err != nil {
				c.Err(err)
			}
		},
	},
	{
		Name: "sendhex",
		Help: "HEX transmit raw payload bytes",
		Func: func(c *ishell.Context) {
			payload, err := parseHex(strings.Join(c.Args, ""))
			if err != nil {
				c.Err(err)
				return
			}
			if err := peerFrom(c).Send(payload); err != nil {
				c.Err(err)
			}
		},
	},
	{
		Name: "group",
		Help: "[N] show or change the radio group",
		Func: func(c *ishell.Context) {
			p := peerFrom(c)
			if len(c.Args) == 0 {
				c.Printf("group %d\n", p.Group())
				return
			}
			g, err := strconv.ParseUint(c.Args[0], 0, 8)
			if err != nil {
				c.Err(fmt.Errorf("bad group %q: %w", c.Args[0], err))
				return
			}
			p.SetGroup(uint8(g))
			c.SetPrompt(prompt(uint8(g)))
		},
	},
	{
		Name: "all",
		Help: "on|off report frames of every group",
		Func: func(c *ishell.Context) {
			on := len(c.Args) == 0 || c.Args[0] == "on"
			peerFrom(c).all.Store(on)
		},
	},
	{
		Name: "stats",
		Help: "show frame counters",
		Func: func(c *ishell.Context) {
			p := peerFrom(c)
			c.Printf("sent %d heard %d dropped %d\n", p.sent.Load(), p.heard.Load(), p.dropped.Load())
		},
	},
}

func peerFrom(c *ishell.Context) *peer {
	return c.Get(peerKey).(*peer)
}

func prompt(g uint8) string {
	return fmt.Sprintf("[group %d] > ", g)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if group > 255 {
		fmt.Fprintf(os.Stderr, "invalid -group %d\n", group)
		os.Exit(2)
	}

	ether, err := hal.NewMQTTEther(brokerURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer ether.Close()

	p := newPeer(ether, uint8(group))
	defer p.Close()

	sh := ishell.New()
	sh.Set(peerKey, p)
	sh.SetPrompt(prompt(p.Group()))
	for _, cmd := range commands {
		sh.AddCmd(cmd)
	}
	p.OnHeard(func(h Heard) { sh.Println(formatHeard(h)) })
	glog.Infof("radiosh: %s on %s", buildinfo.String(), brokerURL)

	if args := flag.Args(); len(args) > 0 {
		if err := sh.Process(args...); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if evalOnly {
			return
		}
	}
	sh.Run()
}

// formatHeard prints printable payloads as text and anything else as hex.
func formatHeard(h Heard) string {
	for _, b := range h.Payload {
		if b < 0x20 || b > 0x7e {
			return fmt.Sprintf("[%d] % x", h.Group, h.Payload)
		}
	}
	return fmt.Sprintf("[%d] %q", h.Group, h.Payload)
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits in %q", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		b, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad hex %q: %w", s[2*i:2*i+2], err)
		}
		out[i] = byte(b)
	}
	return out, nil
}
