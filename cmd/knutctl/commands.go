package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/knut-protocol/knut-go/pkg/knut"
	"github.com/knut-protocol/knut-go/pkg/light"
	"github.com/knut-protocol/knut-go/pkg/task"
)

func (c *client) cmdLight(args []string) {
	if len(args) != 1 {
		c.printf("usage: light <id>\n")
		return
	}
	c.send(knut.CapabilityLight, knut.LightStatusRequest, struct {
		ID string `json:"id"`
	}{args[0]})
}

func (c *client) cmdSwitch(args []string) {
	if len(args) != 2 {
		c.printf("usage: switch <id> on|off|<0-100>\n")
		return
	}

	cmd := light.Command{ID: args[0]}
	switch args[1] {
	case "on":
		cmd.State = true
	case "off":
		cmd.State = false
	default:
		dimlevel, err := strconv.Atoi(args[1])
		if err != nil {
			c.printf("usage: switch <id> on|off|<0-100>\n")
			return
		}
		cmd.State = dimlevel > 0
		cmd.Dimlevel = &dimlevel
	}
	c.send(knut.CapabilityLight, knut.LightStatusResponse, cmd)
}

func (c *client) cmdRoom(args []string) {
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		c.printf("usage: room <name> on|off\n")
		return
	}
	c.send(knut.CapabilityLight, knut.RoomRequest, struct {
		Room  string `json:"room"`
		State bool   `json:"state"`
	}{args[0], args[1] == "on"})
}

func (c *client) cmdAll(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		c.printf("usage: all on|off\n")
		return
	}
	c.send(knut.CapabilityLight, knut.AllLightsResponse, struct {
		State bool `json:"state"`
	}{args[0] == "on"})
}

func (c *client) cmdTask(args []string) {
	if len(args) == 0 {
		c.printf("usage: task show|add|done|delete ...\n")
		return
	}

	switch args[0] {
	case "show":
		if len(args) != 2 {
			c.printf("usage: task show <id>\n")
			return
		}
		c.send(knut.CapabilityTask, knut.TaskRequest, struct {
			ID string `json:"id"`
		}{args[1]})

	case "add":
		if len(args) < 4 {
			c.printf("usage: task add <due> <reminder> <title...>\n")
			return
		}
		dueMinutes, err1 := strconv.Atoi(args[1])
		reminderMinutes, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			c.printf("due and reminder must be whole minutes\n")
			return
		}
		title := strings.Join(args[3:], " ")
		due := time.Now().Add(time.Duration(dueMinutes) * time.Minute).Unix()
		reminder := int64(reminderMinutes) * 60
		c.send(knut.CapabilityTask, knut.TaskResponse, task.Patch{
			Title:    &title,
			Due:      &due,
			Reminder: &reminder,
		})

	case "done":
		if len(args) != 2 {
			c.printf("usage: task done <id>\n")
			return
		}
		done := true
		c.send(knut.CapabilityTask, knut.TaskResponse, task.Patch{ID: args[1], Done: &done})

	case "delete":
		if len(args) != 2 {
			c.printf("usage: task delete <id>\n")
			return
		}
		c.send(knut.CapabilityTask, knut.DeleteTaskRequest, struct {
			ID string `json:"id"`
		}{args[1]})

	default:
		c.printf("unknown task command: %s\n", args[0])
	}
}

func (c *client) cmdTemp(args []string) {
	switch {
	case len(args) == 0:
		c.send(knut.CapabilityTemperature, knut.TemperatureListRequest, struct{}{})

	case args[0] == "history":
		if len(args) != 2 {
			c.printf("usage: temp history <id>\n")
			return
		}
		c.send(knut.CapabilityTemperature, knut.TemperatureHistoryRequest, struct {
			ID string `json:"id"`
		}{args[1]})

	case len(args) == 1:
		c.send(knut.CapabilityTemperature, knut.TemperatureStatusRequest, struct {
			ID string `json:"id"`
		}{args[0]})

	default:
		c.printf("usage: temp [<id>] | temp history <id>\n")
	}
}
