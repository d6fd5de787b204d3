// Package replay compiles text stimulus scripts into per-tick input
// vectors and drives a core through them. Scripts exist for two jobs:
// reproducing a field incident from a log, and pinning the core's timing
// behavior in CI without hardware.
//
// Script grammar, one statement per line, '#' starts a comment:
//
//	reset                one tick with reset asserted
//	enable on|off        set the enable bit for following ticks
//	mode sensor|ml       select the active path
//	select N             select sensor channel N (0-3)
//	learn on|off         allow threshold adaptation
//	auto on|off          allow actuator auto-control
//	sample V [xN]        one (or N) sensor ticks with sample byte V
//	hold N               N ticks of the standing input vector
//	vsync                one tick with vsync asserted
//	pixel V [xN]         one (or N) pixel ticks (href high) with byte V
//	row N V              N pixel ticks of byte V, then href drops
//	gap N                N ticks with href low
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sweeney/farm-monitor/internal/engine"
)

// Compile parses a script into the tick-by-tick input sequence it
// describes. Setter verbs change a standing input register; emitting verbs
// append ticks derived from it.
func Compile(r io.Reader) ([]engine.Input, error) {
	current := engine.Input{Enable: true, Mode: engine.ModeSensor}
	var steps []engine.Input

	scan := bufio.NewScanner(r)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := scan.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		verb, args := fields[0], fields[1:]
		emitted, err := apply(&current, verb, args)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		steps = append(steps, emitted...)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func apply(current *engine.Input, verb string, args []string) ([]engine.Input, error) {
	switch verb {
	case "reset":
		if err := wantArgs(args, 0); err != nil {
			return nil, err
		}
		in := *current
		in.Reset = true
		return []engine.Input{in}, nil

	case "enable":
		v, err := onOff(args)
		if err != nil {
			return nil, err
		}
		current.Enable = v
		return nil, nil

	case "mode":
		if err := wantArgs(args, 1); err != nil {
			return nil, err
		}
		switch args[0] {
		case "sensor":
			current.Mode = engine.ModeSensor
		case "ml":
			current.Mode = engine.ModeML
		default:
			return nil, fmt.Errorf("mode: want sensor or ml, got %q", args[0])
		}
		return nil, nil

	case "select":
		n, err := byteArg(args, 0)
		if err != nil {
			return nil, err
		}
		if n > 3 {
			return nil, fmt.Errorf("select: channel %d out of range 0-3", n)
		}
		current.Sensor = n
		return nil, nil

	case "learn":
		v, err := onOff(args)
		if err != nil {
			return nil, err
		}
		current.Learn = v
		return nil, nil

	case "auto":
		v, err := onOff(args)
		if err != nil {
			return nil, err
		}
		current.Auto = v
		return nil, nil

	case "sample":
		v, repeat, err := byteAndRepeat(args)
		if err != nil {
			return nil, err
		}
		current.Sample = v
		in := *current
		in.VSync, in.HRef = false, false
		return repeatInput(in, repeat), nil

	case "hold":
		n, err := countArg(args, 0)
		if err != nil {
			return nil, err
		}
		return repeatInput(*current, n), nil

	case "vsync":
		if err := wantArgs(args, 0); err != nil {
			return nil, err
		}
		in := *current
		in.VSync, in.HRef = true, false
		return []engine.Input{in}, nil

	case "pixel":
		v, repeat, err := byteAndRepeat(args)
		if err != nil {
			return nil, err
		}
		current.Sample = v
		in := *current
		in.VSync, in.HRef = false, true
		return repeatInput(in, repeat), nil

	case "row":
		if err := wantArgs(args, 2); err != nil {
			return nil, err
		}
		n, err := countArg(args, 0)
		if err != nil {
			return nil, err
		}
		v, err := byteArg(args, 1)
		if err != nil {
			return nil, err
		}
		current.Sample = v
		in := *current
		in.VSync, in.HRef = false, true
		steps := repeatInput(in, n)
		in.HRef = false
		return append(steps, in), nil

	case "gap":
		n, err := countArg(args, 0)
		if err != nil {
			return nil, err
		}
		in := *current
		in.VSync, in.HRef = false, false
		return repeatInput(in, n), nil
	}

	return nil, fmt.Errorf("unknown verb %q", verb)
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("want %d argument(s), got %d", n, len(args))
	}
	return nil
}

func onOff(args []string) (bool, error) {
	if err := wantArgs(args, 1); err != nil {
		return false, err
	}
	switch args[0] {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", args[0])
}

func byteArg(args []string, i int) (uint8, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	v, err := strconv.ParseUint(args[i], 0, 8)
	if err != nil {
		return 0, fmt.Errorf("parse byte %q: %w", args[i], err)
	}
	return uint8(v), nil
}

func countArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("want positive count, got %q", args[i])
	}
	return n, nil
}

// byteAndRepeat parses "V" or "V xN".
func byteAndRepeat(args []string) (uint8, int, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, fmt.Errorf("want 1 or 2 arguments, got %d", len(args))
	}
	v, err := byteArg(args, 0)
	if err != nil {
		return 0, 0, err
	}
	repeat := 1
	if len(args) == 2 {
		rep := args[1]
		if !strings.HasPrefix(rep, "x") {
			return 0, 0, fmt.Errorf("want repeat like x10, got %q", rep)
		}
		repeat, err = strconv.Atoi(rep[1:])
		if err != nil || repeat < 1 {
			return 0, 0, fmt.Errorf("want repeat like x10, got %q", rep)
		}
	}
	return v, repeat, nil
}

func repeatInput(in engine.Input, n int) []engine.Input {
	steps := make([]engine.Input, n)
	for i := range steps {
		steps[i] = in
	}
	return steps
}

// TracePoint is one tick of a replay run.
type TracePoint struct {
	Tick int
	In   engine.Input
	Out  engine.Output
}

// Run drives the core through the steps and returns the full output trace.
func Run(core *engine.Core, steps []engine.Input) []TracePoint {
	trace := make([]TracePoint, len(steps))
	for i, in := range steps {
		trace[i] = TracePoint{Tick: i, In: in, Out: core.Tick(in)}
	}
	return trace
}

// FormatTrace renders a trace the way the bench logs read: one line per
// tick with the raw input byte and the decoded outputs.
func FormatTrace(w io.Writer, trace []TracePoint) {
	for _, p := range trace {
		fmt.Fprintf(w, "%5d %s in=%3d status=0x%02X pump=%t valve=%t fert=%t lights=%t\n",
			p.Tick, p.In.Mode, p.In.Sample, p.Out.Status,
			p.Out.Pump, p.Out.Valve, p.Out.Fertilizer, p.Out.Lights)
	}
}

// FrameSteps converts raw frame bytes into the ML-mode input sequence the
// camera would produce: a vsync pulse, then width-pixel href bursts with
// gap idle ticks between rows, and two trailing idle ticks so the verdict
// pipeline runs to completion.
func FrameSteps(pixels []byte, width, gap int) []engine.Input {
	if width < 1 {
		width = len(pixels)
	}
	base := engine.Input{Enable: true, Mode: engine.ModeML}

	vsync := base
	vsync.VSync = true
	steps := []engine.Input{vsync}

	for i, px := range pixels {
		if i > 0 && i%width == 0 {
			steps = append(steps, repeatInput(base, gap)...)
		}
		in := base
		in.HRef = true
		in.Sample = px
		steps = append(steps, in)
	}

	return append(steps, base, base)
}
