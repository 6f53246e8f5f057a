// Command knutctl is an interactive client for a Knut gateway.
//
// It connects over any of the gateway's bindings, sends requests from
// a readline command loop and prints every inbound envelope, pushes
// included, as it arrives.
//
// Usage:
//
//	knutctl [flags]
//
// Flags:
//
//	-addr string        Gateway address (default "127.0.0.1:8080")
//	-transport string   Binding: stream, prefix or ws (default "stream")
//	-discover           Browse for gateways via mDNS and exit
//
// Examples:
//
//	# Connect to the default stream binding
//	knutctl
//
//	# Connect over the length-prefixed binding
//	knutctl -addr 127.0.0.1:8081 -transport prefix
//
//	# Connect over WebSocket
//	knutctl -addr ws://127.0.0.1:8765 -transport ws
//
//	# Find gateways on the local network
//	knutctl -discover
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/knut-protocol/knut-go/pkg/discovery"
	"github.com/knut-protocol/knut-go/pkg/knut"
	"github.com/knut-protocol/knut-go/pkg/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "Gateway address")
	transportName := flag.String("transport", "stream", "Binding: stream, prefix or ws")
	discover := flag.Bool("discover", false, "Browse for gateways via mDNS and exit")
	flag.Parse()

	if *discover {
		os.Exit(runDiscover())
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "knut> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "knutctl: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	cli := &client{rl: rl}

	clientConfig := transport.ClientConfig{
		OnMessage: cli.printMessage,
		OnDisconnect: func(err error) {
			if err != nil {
				fmt.Fprintf(rl.Stdout(), "connection lost: %v\n", err)
				return
			}
			fmt.Fprintln(rl.Stdout(), "connection closed")
		},
	}

	ctx := context.Background()
	var conn *transport.Conn
	switch *transportName {
	case "stream":
		clientConfig.Mode = transport.ModeStream
		conn, err = transport.Dial(ctx, *addr, clientConfig)
	case "prefix":
		clientConfig.Mode = transport.ModePrefix
		conn, err = transport.Dial(ctx, *addr, clientConfig)
	case "ws":
		conn, err = transport.DialWebSocket(ctx, *addr, clientConfig)
	default:
		fmt.Fprintf(os.Stderr, "knutctl: unknown transport %q\n", *transportName)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "knutctl: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	cli.conn = conn
	cli.run()
}

// runDiscover browses the local network for gateways.
func runDiscover() int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	gateways, err := discovery.Browse(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "knutctl: %v\n", err)
		return 1
	}
	if len(gateways) == 0 {
		fmt.Println("no gateways found")
		return 0
	}
	for _, gw := range gateways {
		fmt.Printf("%-24s %-10s %-6s %s\n", gw.Instance, gw.Binding, gw.Version, gw.Addr())
	}
	return 0
}

// client is the interactive command loop around one connection.
type client struct {
	rl   *readline.Instance
	conn *transport.Conn
}

// run reads commands until quit or EOF.
func (c *client) run() {
	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "lights":
			c.send(knut.CapabilityLight, knut.LightsRequest, struct{}{})

		case "light":
			c.cmdLight(args)

		case "switch":
			c.cmdSwitch(args)

		case "rooms":
			c.send(knut.CapabilityLight, knut.RoomsListRequest, struct{}{})

		case "room":
			c.cmdRoom(args)

		case "all":
			c.cmdAll(args)

		case "tasks":
			c.send(knut.CapabilityTask, knut.AllTasksRequest, struct{}{})

		case "task":
			c.cmdTask(args)

		case "temp":
			c.cmdTemp(args)

		case "local":
			c.send(knut.CapabilityLocal, knut.LocalRequest, struct{}{})

		case "quit", "exit", "q":
			return

		default:
			c.printf("unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

// send builds and writes one request envelope.
func (c *client) send(cap knut.CapabilityID, msgType knut.MessageType, payload any) {
	msg, err := knut.NewMessage(cap, msgType, payload)
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	if err := c.conn.Send(msg); err != nil {
		c.printf("send failed: %v\n", err)
	}
}

func (c *client) printf(format string, args ...any) {
	fmt.Fprintf(c.rl.Stdout(), format, args...)
}

func (c *client) printHelp() {
	c.printf(`Commands:
  lights                      list all lights
  light <id>                  show one light
  switch <id> on|off|<0-100>  switch or dim one light
  rooms                       list room aggregates
  room <name> on|off          switch a whole room
  all on|off                  switch every light
  tasks                       list all tasks
  task show <id>              show one task
  task add <due> <reminder> <title...>
                              create a task (due in minutes from now,
                              reminder in minutes before due)
  task done <id>              mark a task done
  task delete <id>            delete a task
  temp                        list temperature backends
  temp <id>                   show one backend
  temp history <id>           show a backend's history
  local                       show location and daylight status
  help                        show this help
  quit                        exit
`)
}
