package cec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Controller sends one-shot commands to the display through cec-client.
type Controller struct {
	run func(ctx context.Context, script string) error
}

func NewController() *Controller {
	return &Controller{run: runCECClient}
}

// runCECClient pipes script into a single-command cec-client session.
func runCECClient(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, "cec-client", "-s", "-d", "1")
	cmd.Stdin = strings.NewReader(script + "\n")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cec-client %q: %w: %s", script, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// PowerOn wakes the TV (logical address 0).
func (c *Controller) PowerOn(ctx context.Context) error {
	return c.run(ctx, "on 0")
}

// Standby puts the TV to sleep.
func (c *Controller) Standby(ctx context.Context) error {
	return c.run(ctx, "standby 0")
}

// SwitchToHDMI broadcasts Active Source for physical address input.0.0.0.
func (c *Controller) SwitchToHDMI(ctx context.Context, input int) error {
	if input < 1 || input > 15 {
		return fmt.Errorf("hdmi input must be in [1, 15], got %d", input)
	}
	return c.run(ctx, fmt.Sprintf("tx 1F:82:%X0:00", input))
}

// Prepare wakes the display and selects our input as configured. Failures
// are logged; a kiosk without CEC still shows the map.
func (c *Controller) Prepare(ctx context.Context, powerOn bool, hdmiInput int) {
	if powerOn {
		if err := c.PowerOn(ctx); err != nil {
			log.Warn().Err(err).Msg("Could not power on display")
		}
	}
	if hdmiInput > 0 {
		if err := c.SwitchToHDMI(ctx, hdmiInput); err != nil {
			log.Warn().Err(err).Int("input", hdmiInput).Msg("Could not switch HDMI input")
		}
	}
}
