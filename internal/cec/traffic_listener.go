package cec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// RemoteCommand is a recognised CEC button press.
type RemoteCommand int

const (
	RemoteUnknown RemoteCommand = iota
	RemoteUp
	RemoteDown
	RemoteLeft
	RemoteRight
	RemoteSelect
	RemoteBack
)

func (c RemoteCommand) String() string {
	switch c {
	case RemoteUp:
		return "up"
	case RemoteDown:
		return "down"
	case RemoteLeft:
		return "left"
	case RemoteRight:
		return "right"
	case RemoteSelect:
		return "select"
	case RemoteBack:
		return "back"
	default:
		return "unknown"
	}
}

// User Control Pressed operands (CEC 1.4 table 27).
var userControlCodes = map[string]RemoteCommand{
	"00": RemoteSelect,
	"01": RemoteUp,
	"02": RemoteDown,
	"03": RemoteLeft,
	"04": RemoteRight,
	"0D": RemoteBack,
}

// Matches traffic lines such as ">> 04:44:03": opcode 44 is User Control
// Pressed, the last byte the key.
var reUserControlPressed = regexp.MustCompile(`>>\s+([0-9A-Fa-f]{2}):44:([0-9A-Fa-f]{2})`)

// ParseTrafficLine extracts a button press from one line of cec-client
// traffic output.
func ParseTrafficLine(line string) (RemoteCommand, bool) {
	match := reUserControlPressed.FindStringSubmatch(line)
	if len(match) != 3 {
		return RemoteUnknown, false
	}
	cmd, ok := userControlCodes[strings.ToUpper(match[2])]
	return cmd, ok
}

// forwardPresses reads traffic from r until EOF or ctx is done and sends
// every recognised press to events.
func forwardPresses(ctx context.Context, r io.Reader, events chan<- RemoteCommand) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd, ok := ParseTrafficLine(scanner.Text())
		if !ok {
			continue
		}
		log.Debug().Stringer("command", cmd).Msg("CEC key press")
		select {
		case events <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// Listen runs cec-client in traffic mode and forwards presses to events
// until ctx is cancelled or cec-client exits.
func Listen(ctx context.Context, events chan<- RemoteCommand) error {
	cmd := exec.CommandContext(ctx, "cec-client", "-t", "p", "-d", "8")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("cec-client stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start cec-client: %w", err)
	}

	scanErr := forwardPresses(ctx, stdout, events)
	waitErr := cmd.Wait()
	if scanErr != nil && ctx.Err() == nil {
		return fmt.Errorf("read cec-client output: %w", scanErr)
	}
	if waitErr != nil && ctx.Err() == nil {
		return fmt.Errorf("cec-client exited: %w", waitErr)
	}
	return nil
}

// StartListener runs Listen in the background, logging how it ended.
func StartListener(ctx context.Context, events chan<- RemoteCommand) {
	go func() {
		if err := Listen(ctx, events); err != nil {
			log.Warn().Err(err).Msg("CEC listener stopped")
			return
		}
		log.Debug().Msg("CEC listener exiting")
	}()
}
