// Command knut-log is a tool for viewing and analyzing Knut protocol
// capture files.
//
// Capture files are written by knutd when the log.capture setting
// names a file.
//
// Usage:
//
//	knut-log <command> [flags] <file.klog>
//
// Commands:
//
//	view     View a capture file in human-readable format
//	stats    Show statistics about a capture file
//
// Examples:
//
//	# View all events
//	knut-log view gateway.klog
//
//	# View only inbound envelopes of one session
//	knut-log view -session 5f2b... -direction in gateway.klog
//
//	# View light traffic with payloads
//	knut-log view -capability 2 -payload gateway.klog
//
//	# Show statistics
//	knut-log stats gateway.klog
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/knut-protocol/knut-go/pkg/eventlog"
)

const usage = `knut-log - Knut protocol capture analyzer

Usage:
  knut-log <command> [flags] <file.klog>

Commands:
  view     View a capture file in human-readable format
  stats    Show statistics about a capture file

Use "knut-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch cmd := os.Args[1]; cmd {
	case "view":
		err = runView(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "knut-log: %v\n", err)
		os.Exit(1)
	}
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	session := fs.String("session", "", "Filter by session id")
	direction := fs.String("direction", "", "Filter by direction: in or out")
	category := fs.String("category", "", "Filter by category: message, heartbeat, state or error")
	capabilityID := fs.Int("capability", -1, "Filter message events by capability id")
	payload := fs.Bool("payload", false, "Include message payloads")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("view needs exactly one capture file")
	}

	filter := eventlog.Filter{SessionID: *session}
	switch *direction {
	case "":
	case "in":
		d := eventlog.DirectionIn
		filter.Direction = &d
	case "out":
		d := eventlog.DirectionOut
		filter.Direction = &d
	default:
		return fmt.Errorf("unknown direction %q", *direction)
	}
	switch *category {
	case "":
	case "message":
		c := eventlog.CategoryMessage
		filter.Category = &c
	case "heartbeat":
		c := eventlog.CategoryHeartbeat
		filter.Category = &c
	case "state":
		c := eventlog.CategoryState
		filter.Category = &c
	case "error":
		c := eventlog.CategoryError
		filter.Category = &c
	default:
		return fmt.Errorf("unknown category %q", *category)
	}
	if *capabilityID >= 0 {
		id := uint8(*capabilityID)
		filter.CapabilityID = &id
	}

	reader, err := eventlog.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read capture: %w", err)
		}
		printEvent(event, *payload)
	}
}

// printEvent renders one capture event on a single line (two with
// payload).
func printEvent(event eventlog.Event, withPayload bool) {
	fmt.Printf("%s %-8s %-3s %-9s",
		event.Timestamp.Format("15:04:05.000"),
		shortSession(event.SessionID),
		event.Direction,
		event.Category)

	switch {
	case event.Message != nil:
		fmt.Printf(" cap=%d %s", event.Message.CapabilityID, event.Message.Name)
		if withPayload && len(event.Message.Payload) > 0 {
			fmt.Printf("\n    %s", event.Message.Payload)
		}
	case event.StateChange != nil:
		fmt.Printf(" %s -> %s", event.StateChange.OldState, event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			fmt.Printf(" (%s)", event.StateChange.Reason)
		}
	case event.Error != nil:
		fmt.Printf(" [%s] %s", event.Error.Layer, event.Error.Message)
		if event.Error.Context != "" {
			fmt.Printf(" (%s)", event.Error.Context)
		}
	case event.Frame != nil:
		fmt.Printf(" %d bytes", event.Frame.Size)
	}
	fmt.Println()
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("stats needs exactly one capture file")
	}

	reader, err := eventlog.NewReader(fs.Arg(0))
	if err != nil {
		return err
	}
	defer reader.Close()

	var total int
	categories := make(map[string]int)
	sessions := make(map[string]int)
	messages := make(map[string]int)

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read capture: %w", err)
		}

		total++
		categories[event.Category.String()]++
		sessions[event.SessionID]++
		if event.Message != nil {
			messages[event.Message.Name]++
		}
	}

	fmt.Printf("events:   %d\n", total)
	fmt.Printf("sessions: %d\n", len(sessions))
	fmt.Println("\nby category:")
	printCounts(categories)
	if len(messages) > 0 {
		fmt.Println("\nby message:")
		printCounts(messages)
	}
	return nil
}

func printCounts(counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-28s %6d\n", name, counts[name])
	}
}

// shortSession abbreviates a UUID session id for column display.
func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
