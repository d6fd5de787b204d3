// Command farm-monitor runs the precision-farming decision core against
// real I/O: serial sensor samples in, GPIO actuators out, MQTT events and
// an HTTP status page out, SQLite history underneath.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/farm-monitor/internal/discovery"
	"github.com/sweeney/farm-monitor/internal/engine"
	"github.com/sweeney/farm-monitor/internal/gpio"
	"github.com/sweeney/farm-monitor/internal/mqtt"
	"github.com/sweeney/farm-monitor/internal/replay"
	"github.com/sweeney/farm-monitor/internal/report"
	"github.com/sweeney/farm-monitor/internal/serial"
	"github.com/sweeney/farm-monitor/internal/status"
	"github.com/sweeney/farm-monitor/internal/store"
	"github.com/sweeney/farm-monitor/internal/web"
)

// frameRowGap is the idle ticks between pixel rows when feeding a stored
// frame, matching the camera interface's inter-row blanking.
const frameRowGap = 3

func main() {
	tick := flag.Duration("tick", 50*time.Millisecond, "Core tick interval")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	serialPort := flag.String("serial", "", "Serial port for sensor samples (empty = scripted fake)")
	dev := flag.Bool("dev", false, "Development mode: fake GPIO and looping fake samples")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	dbPath := flag.String("db", "farm-monitor.db", "History database path (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	announce := flag.Bool("announce", true, "Announce the status server over mDNS")
	auto := flag.Bool("auto", true, "Allow actuator auto-control")
	learn := flag.Bool("learn", true, "Allow threshold adaptation")
	frameFile := flag.String("frame-file", "", "Raw frame bytes to classify periodically")
	frameEvery := flag.Uint64("frame-every", 1200, "Ticks between frame classifications")
	frameWidth := flag.Int("frame-width", 20, "Pixels per row when feeding frames")
	replayPath := flag.String("replay", "", "Run a stimulus script, print the trace and exit")
	reportFlag := flag.Bool("report", false, "Print channel statistics from the history database and exit")
	pinPump := flag.Int("pin-pump", gpio.PinPump, "BCM pin for the pump relay")
	pinValve := flag.Int("pin-valve", gpio.PinValve, "BCM pin for the valve relay")
	pinFert := flag.Int("pin-fertilizer", gpio.PinFertilizer, "BCM pin for the fertilizer relay")
	pinLights := flag.Int("pin-lights", gpio.PinLights, "BCM pin for the light relay")

	flag.Parse()

	if *replayPath != "" {
		if err := runReplay(*replayPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}
	if *reportFlag {
		if err := runReport(*dbPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	cfg := daemonConfig{
		tick:       *tick,
		broker:     *broker,
		serialPort: *serialPort,
		dev:        *dev,
		httpAddr:   *httpAddr,
		dbPath:     *dbPath,
		heartbeat:  *heartbeat,
		announce:   *announce,
		auto:       *auto,
		learn:      *learn,
		frameFile:  *frameFile,
		frameEvery: *frameEvery,
		frameWidth: *frameWidth,
		pins:       [4]int{*pinPump, *pinValve, *pinFert, *pinLights},
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type daemonConfig struct {
	tick       time.Duration
	broker     string
	serialPort string
	dev        bool
	httpAddr   string
	dbPath     string
	heartbeat  time.Duration
	announce   bool
	auto       bool
	learn      bool
	frameFile  string
	frameEvery uint64
	frameWidth int
	pins       [4]int
}

// devScript is the looping sample feed used when no serial port is
// configured: dry soil, low nutrients, dim light, mild temperature. It
// exercises every auto-control branch.
var devScript = []serial.Reading{
	{Channel: 0, Value: 70},
	{Channel: 1, Value: 50},
	{Channel: 2, Value: 90},
	{Channel: 3, Value: 120},
}

func run(cfg daemonConfig) error {
	session := uuid.NewString()

	// Actuator outputs.
	var lines gpio.Lines
	if cfg.dev {
		lines = gpio.NewFakeLines()
		log.Printf("dev mode: using fake GPIO")
	} else {
		real, err := gpio.NewRealLines(cfg.pins[0], cfg.pins[1], cfg.pins[2], cfg.pins[3])
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		lines = real
	}
	defer lines.Close()

	// Sample source.
	var source serial.Source
	if cfg.serialPort != "" && !cfg.dev {
		src, err := serial.Open(cfg.serialPort)
		if err != nil {
			return fmt.Errorf("init serial: %w", err)
		}
		source = src
	} else {
		source = serial.NewFakeSource(devScript, true)
		log.Printf("using scripted sample source")
	}
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := source.Monitor(ctx); err != nil {
			log.Printf("serial monitor stopped: %v", err)
		}
	}()

	// History database.
	var db *store.Store
	if cfg.dbPath != "" {
		var err error
		db, err = store.Open(cfg.dbPath)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer db.Close()

		cfgJSON, _ := json.Marshal(map[string]any{
			"tick_ms": cfg.tick.Milliseconds(),
			"broker":  cfg.broker,
			"serial":  cfg.serialPort,
			"auto":    cfg.auto,
			"learn":   cfg.learn,
		})
		if err := db.StartSession(session, time.Now(), string(cfgJSON)); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}

	// MQTT.
	publisher, err := mqtt.NewRealPublisher(cfg.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Status tracker (before STARTUP so the snapshot is available).
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.tick.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
		SerialPort:  cfg.serialPort,
		DBPath:      cfg.dbPath,
		Session:     session,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// HTTP status server.
	if cfg.httpAddr != "" {
		var history web.History
		if db != nil {
			history = db
		}
		srv := web.New(cfg.httpAddr, tracker, history)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)

		if cfg.announce {
			if port, err := httpPort(cfg.httpAddr); err != nil {
				log.Printf("mdns announce disabled: %v", err)
			} else {
				svc := discovery.New(port, session)
				if err := svc.Start(); err != nil {
					log.Printf("mdns announce failed: %v", err)
				} else {
					defer svc.Shutdown()
					log.Printf("announced %s.%s", svc.Instance(), discovery.ServiceType)
				}
			}
		}
	}

	// Periodic frame classification.
	var frames *frameScheduler
	if cfg.frameFile != "" {
		pixels, err := os.ReadFile(cfg.frameFile)
		if err != nil {
			return fmt.Errorf("read frame file: %w", err)
		}
		frames = &frameScheduler{pixels: pixels, width: cfg.frameWidth, every: cfg.frameEvery}
		log.Printf("classifying %s (%d bytes) every %d ticks", cfg.frameFile, len(pixels), cfg.frameEvery)
	}

	log.Printf("started: session=%s tick=%v broker=%s heartbeat=%v auto=%t learn=%t",
		session, cfg.tick, cfg.broker, cfg.heartbeat, cfg.auto, cfg.learn)

	ticker := time.NewTicker(cfg.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		core:      engine.New(),
		lines:     lines,
		publisher: publisher,
		mqttSt:    publisher,
		tracker:   tracker,
		db:        db,
		session:   session,
		heartbeat: cfg.heartbeat,
		auto:      cfg.auto,
		learn:     cfg.learn,
		frames:    frames,
		now:       time.Now,
	}
	return l.run(source.Readings(), ticker.C, sigCh)
}

// frameScheduler interleaves ML-mode frame feeds into the sensor tick
// stream: every `every` ticks it compiles the stored frame into input
// steps and hands them out one per tick until the verdict lands.
type frameScheduler struct {
	pixels []byte
	width  int
	every  uint64
	steps  []engine.Input
	pos    int
}

// next returns the pending frame step for this tick, if any.
func (f *frameScheduler) next(tick uint64) (engine.Input, bool) {
	if f == nil {
		return engine.Input{}, false
	}
	if f.pos < len(f.steps) {
		in := f.steps[f.pos]
		f.pos++
		return in, true
	}
	if f.every > 0 && tick%f.every == 0 {
		f.steps = replay.FrameSteps(f.pixels, f.width, frameRowGap)
		f.pos = 1
		return f.steps[0], true
	}
	return engine.Input{}, false
}

// loop owns the per-tick plumbing around the core.
type loop struct {
	core      *engine.Core
	lines     gpio.Lines
	publisher mqtt.Publisher
	mqttSt    mqtt.ConnectionStatus
	tracker   *status.Tracker
	db        *store.Store // nil disables history
	session   string
	heartbeat time.Duration
	auto      bool
	learn     bool
	frames    *frameScheduler
	now       func() time.Time
}

func (l *loop) run(readings <-chan serial.Reading, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := l.now()
	watcher := engine.NewWatcher(startTime)

	var last serial.Reading
	var haveReading bool
	var ticks uint64

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if l.mqttSt != nil {
				l.tracker.SetMQTTConnected(l.mqttSt.IsConnected())
			}
			snap := l.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  l.now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := l.now()
			ticks++

			// Drain queued readings, keeping the newest.
			consumed := false
		drain:
			for {
				select {
				case r := <-readings:
					last = r
					haveReading = true
					consumed = true
				default:
					break drain
				}
			}

			in, inFrame := l.frames.next(ticks)
			if !inFrame {
				in = engine.Input{
					Enable: true,
					Mode:   engine.ModeSensor,
					Sensor: last.Channel,
					Sample: last.Value,
					Auto:   l.auto,
					Learn:  l.learn,
				}
			}

			out := l.core.Tick(in)
			if err := l.lines.Apply(out.Pump, out.Valve, out.Fertilizer, out.Lights); err != nil {
				log.Printf("gpio apply error: %v", err)
			}

			snap := l.core.Snapshot()
			for _, event := range watcher.Observe(t, snap) {
				log.Printf("event: %s (alert=%d pump=%t fert=%t lights=%t)",
					event.Type, snap.AlertLevel, snap.Pump, snap.Fertilizer, snap.Lights)
				if err := l.publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
				}
				l.record(event, ticks, snap)
			}

			if l.db != nil && !inFrame && consumed && haveReading {
				ch := in.Sensor & 0x03
				if err := l.db.RecordReading(l.session, ticks, ch, in.Sample, snap.Channels[ch]); err != nil {
					log.Printf("record reading error: %v", err)
				}
			}

			if hbData := watcher.CheckHeartbeat(t, l.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v alerts=%d pumps=%d frames=%d",
					hbData.Uptime, hbData.Counts.AlertChanges, hbData.Counts.PumpOn, hbData.Counts.Frames)

				if l.mqttSt != nil {
					l.tracker.SetMQTTConnected(l.mqttSt.IsConnected())
				}
				l.updateTracker(snap, in.Mode, watcher, ticks)
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hbData.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", ""),
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			l.updateTracker(snap, in.Mode, watcher, ticks)
			if l.mqttSt != nil {
				l.tracker.SetMQTTConnected(l.mqttSt.IsConnected())
			}
		}
	}
}

func (l *loop) updateTracker(snap engine.Snapshot, mode engine.Mode, watcher *engine.Watcher, ticks uint64) {
	l.tracker.Update(snap, mode, watcher.IsBaselined(), watcher.Counts(), ticks)
}

// record mirrors one event into the history database.
func (l *loop) record(event engine.Event, tick uint64, snap engine.Snapshot) {
	if l.db == nil {
		return
	}

	var err error
	switch event.Type {
	case engine.EventAlertChanged:
		err = l.db.RecordAlert(l.session, tick, snap.AlertLevel)
	case engine.EventFrameVerdict:
		err = l.db.RecordVerdict(l.session, tick, snap.Frame)
	default:
		err = l.db.RecordActuation(l.session, tick, string(event.Type),
			snap.Pump, snap.Valve, snap.Fertilizer, snap.Lights)
	}
	if err != nil {
		log.Printf("record %s error: %v", event.Type, err)
	}
}

// runReplay compiles a stimulus script, drives a fresh core through it and
// prints the tick-by-tick trace.
func runReplay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	steps, err := replay.Compile(f)
	if err != nil {
		return fmt.Errorf("compile script: %w", err)
	}

	trace := replay.Run(engine.New(), steps)
	replay.FormatTrace(os.Stdout, trace)
	return nil
}

// runReport prints per-channel statistics for the most recent session in
// the history database.
func runReport(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("report needs a database path")
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	sessions, err := db.Sessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions recorded")
		return nil
	}

	session := sessions[0]
	var summaries []report.Summary
	for ch := uint8(0); ch < engine.NumChannels; ch++ {
		samples, err := db.ChannelSamples(session, ch)
		if err != nil {
			return fmt.Errorf("load channel %d: %w", ch, err)
		}
		summaries = append(summaries, report.Summarize(ch, samples))
	}

	fmt.Printf("session %s\n", session)
	report.Render(os.Stdout, summaries)
	return nil
}

// httpPort extracts the numeric port from an HTTP listen address.
func httpPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("parse http address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("parse http port %q: %w", portStr, err)
	}
	return port, nil
}
