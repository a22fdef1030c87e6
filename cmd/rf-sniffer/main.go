// Command rf-sniffer captures, decodes and replays sub-GHz remote control
// signals, publishing decoded codes to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/rf-sniffer/internal/capture"
	"github.com/sweeney/rf-sniffer/internal/config"
	"github.com/sweeney/rf-sniffer/internal/gpio"
	"github.com/sweeney/rf-sniffer/internal/logic"
	"github.com/sweeney/rf-sniffer/internal/metrics"
	"github.com/sweeney/rf-sniffer/internal/mqtt"
	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
	"github.com/sweeney/rf-sniffer/internal/radio"
	"github.com/sweeney/rf-sniffer/internal/replay"
	"github.com/sweeney/rf-sniffer/internal/status"
	"github.com/sweeney/rf-sniffer/internal/store"
	"github.com/sweeney/rf-sniffer/internal/web"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	app := newCLIApp(&env{
		openRig:   openHardware,
		openStore: store.Open,
		engine:    protocol.Default(),
	})
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// rig is the hardware a command drives.
type rig struct {
	radio  radio.Control
	source gpio.EdgeSource
	pin    gpio.OutputPin

	closers []func() error
}

// Close releases everything in reverse order of opening.
func (r *rig) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func openHardware(cfg *config.Config) (*rig, error) {
	rc := cfg.Radio
	r := &rig{}

	mod, err := radio.NewModule(rc.Chip, rc.RXEnable, rc.TXEnable, rc.BoardMHz)
	if err != nil {
		return nil, fmt.Errorf("init radio: %w", err)
	}
	r.radio = mod
	r.closers = append(r.closers, mod.Close)

	switch rc.Source {
	case config.SourceSerial:
		src := gpio.NewSerialEdgeSource(rc.SerialPort, rc.SerialBaud)
		r.source = src
		r.closers = append(r.closers, src.Close)
	default:
		src, err := gpio.NewRealEdgeSource(rc.Chip, rc.RXPin)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("init rx line: %w", err)
		}
		r.source = src
		r.closers = append(r.closers, src.Close)
	}

	pin, err := gpio.NewRealPin(rc.Chip, rc.TXPin)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("init tx line: %w", err)
	}
	r.pin = pin
	r.closers = append(r.closers, pin.Close)
	return r, nil
}

// captureStore persists captures for later replay.
type captureStore interface {
	Save(sig pulse.Signal, meta store.Metadata) (string, error)
	Get(id string) (*store.Capture, error)
	Latest() (*store.Capture, error)
}

// listen runs the capture daemon until SIGINT or SIGTERM.
func (e *env) listen(cfg *config.Config) error {
	hw, err := e.openRig(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	st, err := e.openStore(cfg.Store.Dir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	publisher := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	defer publisher.Close()

	m := metrics.New()

	// Tracker exists before STARTUP so the snapshot is available.
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:         cfg.Capture.Poll.Milliseconds(),
		QuietTimeoutMs: cfg.Capture.QuietTimeout.Milliseconds(),
		HeartbeatMs:    cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:         cfg.MQTT.Broker,
		HTTPAddr:       cfg.Web.Addr,
		Source:         cfg.Radio.Source,
		StoreDir:       cfg.Store.Dir,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	state := radio.NewState(cfg.Params())
	tracker.Update(state.Mode(), state.Params(), logic.EventCounts{})

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	var replays replayQueue
	if cfg.Web.Addr != "" {
		srv := web.New(cfg.Web.Addr, tracker, m.Handler(), st)
		if cfg.Web.Replay {
			replays = make(replayQueue)
			srv.EnableReplay(replays)
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.Web.Addr)
	}

	d := &daemon{
		session:      capture.NewSession(cfg.Session(), hw.source, state),
		radio:        hw.radio,
		state:        state,
		analyzer:     logic.NewAnalyzer(e.engine),
		recent:       pulse.NewStore(pulse.DefaultStoreCapacity),
		pin:          hw.pin,
		cpu:          cfg.Replay.CPU,
		replays:      replays,
		store:        st,
		publisher:    publisher,
		mqttStatus:   publisher,
		tracker:      tracker,
		metrics:      m,
		repeatWindow: cfg.Capture.RepeatWindow,
		heartbeat:    cfg.MQTT.Heartbeat,
	}

	log.Printf("started: %s source=%s poll=%v quiet=%v broker=%s",
		cfg.Params(), cfg.Radio.Source, cfg.Capture.Poll, cfg.Capture.QuietTimeout, cfg.MQTT.Broker)

	ticker := time.NewTicker(cfg.Capture.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, time.Now, ticker.C, sigCh)
}

// daemon is everything the capture loop drives.
type daemon struct {
	session  *capture.Session
	radio    radio.Control
	state    *radio.State
	analyzer *logic.Analyzer
	recent   *pulse.Store

	// Replay requests arrive on replays and key pin. A nil clock spins.
	pin     gpio.OutputPin
	cpu     int
	clock   replay.Clock
	replays replayQueue

	// recent, store, tracker and metrics may be nil.
	store      captureStore
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics

	repeatWindow time.Duration
	heartbeat    time.Duration
}

func runLoop(d *daemon, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	monitor := logic.NewMonitor(d.repeatWindow, startTime)

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

			if d.state.Mode() == radio.Receiving {
				if err := d.session.Stop(d.radio); err != nil {
					log.Printf("capture: %v", err)
				}
			}
			d.radio.Idle()

			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				d.refreshTracker(monitor)
				event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case req := <-d.replays:
			ev, err := d.replay(monitor, now(), req.id)
			req.done <- replayResult{ev: ev, err: err}
			if d.tracker != nil {
				d.refreshTracker(monitor)
			}

		case <-tick:
			t := now()

			switch d.state.Mode() {
			case radio.Idle, radio.Decoded, radio.Unrecognized:
				if err := d.session.Start(d.radio, t); err != nil {
					log.Printf("capture: %v", err)
				}
			case radio.Receiving:
				if d.session.IsComplete(t) {
					d.analyze(monitor, t)
				}
			}

			if hb := monitor.CheckHeartbeat(t, d.heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v captures=%d decoded=%d undecoded=%d transmitted=%d",
					hb.Uptime, hb.Counts.Captures, hb.Counts.Decoded, hb.Counts.Undecoded, hb.Counts.Transmitted)
				hbEvent := mqtt.SystemEvent{Timestamp: hb.Timestamp, Event: "HEARTBEAT"}
				if d.tracker != nil {
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
					d.refreshTracker(monitor)
					hbEvent.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			if d.tracker != nil {
				d.refreshTracker(monitor)
			}
		}
	}
}

// analyze ends the current capture, decodes it, and records, stores and
// publishes the outcome.
func (d *daemon) analyze(monitor *logic.Monitor, t time.Time) {
	overflow := d.session.Overflowed()
	raw := d.session.Finish()
	if d.recent != nil {
		d.recent.Add(raw)
	}

	res, err := d.analyzer.Analyze(context.Background(), raw)
	if err != nil {
		log.Printf("analyze: %v", err)
	}

	next := radio.Idle
	switch res.Outcome {
	case logic.OutcomeDecoded:
		next = radio.Decoded
	case logic.OutcomeUndecoded:
		next = radio.Unrecognized
	}
	if err := d.state.Transition(next); err != nil {
		log.Printf("capture: %v", err)
	}

	ev := monitor.Record(t, res)
	if d.metrics != nil {
		d.metrics.ObserveResult(res, ev == nil && res.Outcome == logic.OutcomeDecoded)
		if overflow {
			d.metrics.ObserveOverflow()
		}
	}
	if ev == nil {
		return
	}

	params := d.state.Params()
	ev.FrequencyMHz = params.FrequencyMHz
	log.Printf("capture: %s (%d pulses, %d trains)", res.Outcome.Message(res.Code), len(res.Signal), len(res.Trains))

	if d.store != nil {
		meta := store.Metadata{CreatedAt: t, Params: params}
		if res.Outcome == logic.OutcomeDecoded {
			code := res.Code
			meta.Code = &code
			log.Printf("capture: %s", code)
		}
		id, err := d.store.Save(raw, meta)
		if err != nil {
			log.Printf("store: %v", err)
		} else {
			ev.CaptureID = id
		}
	}

	if d.tracker != nil {
		last := status.Last{Outcome: res.Outcome, CaptureID: ev.CaptureID, At: t, Pulses: len(res.Signal)}
		if res.Outcome == logic.OutcomeDecoded {
			last.Code = &res.Code
		}
		d.tracker.SetLast(last)
	}

	if err := d.publisher.Publish(*ev); err != nil {
		log.Printf("publish error: %v", err)
	}
}

// replayRequest asks the capture loop to transmit a stored capture.
type replayRequest struct {
	id   string
	done chan replayResult
}

type replayResult struct {
	ev  logic.Event
	err error
}

// replayQueue hands replay requests to runLoop, which owns the radio.
type replayQueue chan replayRequest

// Replay queues a request and waits for the transmission to finish.
func (q replayQueue) Replay(ctx context.Context, id string) (logic.Event, error) {
	req := replayRequest{id: id, done: make(chan replayResult, 1)}
	select {
	case q <- req:
	case <-ctx.Done():
		return logic.Event{}, ctx.Err()
	}
	select {
	case res := <-req.done:
		return res.ev, res.err
	case <-ctx.Done():
		return logic.Event{}, ctx.Err()
	}
}

// replay releases the receiver, transmits a stored capture and accounts for
// the attempt. The next tick re-arms the capture.
func (d *daemon) replay(monitor *logic.Monitor, t time.Time, id string) (logic.Event, error) {
	if d.store == nil || d.pin == nil {
		return logic.Event{}, errors.New("replay unavailable")
	}
	var (
		capt *store.Capture
		err  error
	)
	if id == "" {
		capt, err = d.store.Latest()
	} else {
		capt, err = d.store.Get(id)
	}
	if err != nil {
		return logic.Event{}, err
	}
	plan, _, err := planFor(d.analyzer.Engine(), capt, false)
	if err != nil {
		return logic.Event{}, err
	}

	switch d.state.Mode() {
	case radio.Receiving:
		if err := d.session.Stop(d.radio); err != nil {
			log.Printf("capture: %v", err)
		}
	case radio.Decoded, radio.Unrecognized:
		if err := d.state.Transition(radio.Idle); err != nil {
			log.Printf("capture: %v", err)
		}
	}

	tx := &replay.Transmitter{Radio: d.radio, Pin: d.pin, State: d.state, Clock: d.clock, CPU: d.cpu}
	terr := tx.Transmit(context.Background(), plan)

	ev := monitor.RecordTransmit(t, plan.Len(), terr)
	ev.CaptureID = capt.ID
	ev.FrequencyMHz = d.state.Params().FrequencyMHz
	if capt.Code != nil {
		ev.Code = *capt.Code
	}
	if d.metrics != nil {
		d.metrics.ObserveTransmit(terr)
	}
	if terr != nil {
		log.Printf("replay: %s: %v", capt.ID, terr)
	} else {
		log.Printf("replay: %s: %d pulses", capt.ID, plan.Len())
	}
	if err := d.publisher.Publish(ev); err != nil {
		log.Printf("publish error: %v", err)
	}
	return ev, terr
}

// planFor builds the transmit plan for a stored capture and names its
// source. Decoded captures are re-synthesized unless raw is set: the raw
// capture loses its header gap to the replay pulse ceiling.
func planFor(e *protocol.Engine, capt *store.Capture, raw bool) (replay.Plan, string, error) {
	if capt.Code != nil && !raw {
		plan, err := replay.FromCode(e, *capt.Code)
		if err != nil {
			return replay.Plan{}, "", err
		}
		return plan, capt.Code.Protocol, nil
	}
	plan := replay.FromSignal(capt.Signal)
	if err := plan.Validate(); err != nil {
		return replay.Plan{}, "", fmt.Errorf("replay %s: %w", capt.ID, err)
	}
	return plan, "raw", nil
}

func (d *daemon) refreshTracker(monitor *logic.Monitor) {
	d.tracker.Update(d.state.Mode(), d.state.Params(), monitor.Counts())
	if d.recent != nil {
		d.tracker.SetRecent(d.recent.Len())
	}
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
