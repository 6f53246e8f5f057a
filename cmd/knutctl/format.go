package main

import (
	"encoding/json"
	"time"

	"github.com/knut-protocol/knut-go/pkg/knut"
	"github.com/knut-protocol/knut-go/pkg/light"
	"github.com/knut-protocol/knut-go/pkg/local"
	"github.com/knut-protocol/knut-go/pkg/task"
	"github.com/knut-protocol/knut-go/pkg/temperature"
)

// printMessage renders one inbound envelope, response or push alike.
func (c *client) printMessage(msg knut.Message) {
	switch msg.CapabilityID {
	case knut.CapabilityLight:
		c.printLight(msg)
	case knut.CapabilityTask:
		c.printTask(msg)
	case knut.CapabilityTemperature:
		c.printTemperature(msg)
	case knut.CapabilityLocal:
		c.printLocal(msg)
	default:
		c.printRaw(msg)
	}
}

func (c *client) printLight(msg knut.Message) {
	switch msg.MessageType {
	case knut.LightStatusResponse:
		var status light.Status
		if json.Unmarshal(msg.Payload, &status) != nil {
			c.printRaw(msg)
			return
		}
		c.printLightStatus(status)

	case knut.LightsResponse:
		var resp struct {
			Lights []light.Status `json:"lights"`
		}
		if json.Unmarshal(msg.Payload, &resp) != nil {
			c.printRaw(msg)
			return
		}
		for _, status := range resp.Lights {
			c.printLightStatus(status)
		}

	case knut.AllLightsResponse:
		var resp struct {
			State light.Aggregate `json:"state"`
		}
		if json.Unmarshal(msg.Payload, &resp) != nil {
			c.printRaw(msg)
			return
		}
		c.printf("all lights: %s\n", resp.State)

	case knut.RoomsListResponse:
		var resp struct {
			Rooms map[string]light.Aggregate `json:"rooms"`
		}
		if json.Unmarshal(msg.Payload, &resp) != nil {
			c.printRaw(msg)
			return
		}
		for name, state := range resp.Rooms {
			c.printf("%-20s %s\n", name, state)
		}

	case knut.RoomResponse:
		var status light.RoomStatus
		if json.Unmarshal(msg.Payload, &status) != nil {
			c.printRaw(msg)
			return
		}
		c.printf("room %s: %s\n", status.Room, status.State)

	default:
		c.printRaw(msg)
	}
}

func (c *client) printLightStatus(status light.Status) {
	state := "off"
	if status.State {
		state = "on"
	}
	c.printf("%-20s %-4s", status.ID, state)
	if status.Dimlevel != nil {
		c.printf("  dim %3d%%", *status.Dimlevel)
	}
	if status.Temperature != nil {
		c.printf("  temp %3d%%", *status.Temperature)
	}
	if status.Color != nil && *status.Color != "" {
		c.printf("  color %s", *status.Color)
	}
	c.printf("  (%s, %s)\n", status.Room, status.Location)
}

func (c *client) printTask(msg knut.Message) {
	switch msg.MessageType {
	case knut.TaskResponse:
		var t task.Task
		if json.Unmarshal(msg.Payload, &t) != nil {
			c.printRaw(msg)
			return
		}
		c.printTaskLine(t)

	case knut.AllTasksResponse:
		var resp struct {
			Tasks []task.Task `json:"tasks"`
		}
		if json.Unmarshal(msg.Payload, &resp) != nil {
			c.printRaw(msg)
			return
		}
		if len(resp.Tasks) == 0 {
			c.printf("no tasks\n")
			return
		}
		for _, t := range resp.Tasks {
			c.printTaskLine(t)
		}

	case knut.TaskReminder:
		var r task.Reminder
		if json.Unmarshal(msg.Payload, &r) != nil {
			c.printRaw(msg)
			return
		}
		c.printf("REMINDER: task %s is due in %s\n", r.ID, time.Duration(r.Reminder)*time.Second)

	default:
		c.printRaw(msg)
	}
}

func (c *client) printTaskLine(t task.Task) {
	mark := " "
	if t.Done {
		mark = "x"
	}
	c.printf("[%s] %s  %q due %s\n", mark, t.ID, t.Title, time.Unix(t.Due, 0).Format(time.RFC822))
}

func (c *client) printTemperature(msg knut.Message) {
	switch msg.MessageType {
	case knut.TemperatureStatusResponse:
		var status temperature.Status
		if json.Unmarshal(msg.Payload, &status) != nil {
			c.printRaw(msg)
			return
		}
		c.printTemperatureLine(status)

	case knut.TemperatureListResponse:
		var resp struct {
			Backends []temperature.Status `json:"backends"`
		}
		if json.Unmarshal(msg.Payload, &resp) != nil {
			c.printRaw(msg)
			return
		}
		for _, status := range resp.Backends {
			c.printTemperatureLine(status)
		}

	case knut.TemperatureHistoryResponse:
		var resp struct {
			ID          string    `json:"id"`
			Temperature []float64 `json:"temperature"`
			Time        []int64   `json:"time"`
		}
		if json.Unmarshal(msg.Payload, &resp) != nil {
			c.printRaw(msg)
			return
		}
		for i, value := range resp.Temperature {
			if i >= len(resp.Time) {
				break
			}
			c.printf("%s  %.1f°C\n", time.Unix(resp.Time[i], 0).Format(time.RFC822), value)
		}

	default:
		c.printRaw(msg)
	}
}

func (c *client) printTemperatureLine(status temperature.Status) {
	c.printf("%-20s %.1f%s  %s (%s)\n",
		status.ID, status.Temperature, status.Unit, status.Condition, status.Location)
}

func (c *client) printLocal(msg knut.Message) {
	var status local.Status
	if msg.MessageType != knut.LocalResponse || json.Unmarshal(msg.Payload, &status) != nil {
		c.printRaw(msg)
		return
	}

	daylight := "night"
	if status.IsDaylight {
		daylight = "daylight"
	}
	c.printf("%s: %s, sunrise %s, sunset %s\n",
		status.Location, daylight,
		time.Unix(status.Sunrise, 0).Format(time.Kitchen),
		time.Unix(status.Sunset, 0).Format(time.Kitchen))
}

func (c *client) printRaw(msg knut.Message) {
	c.printf("%s/%s %s\n",
		msg.CapabilityID,
		knut.MessageName(msg.CapabilityID, msg.MessageType),
		string(msg.Payload))
}
