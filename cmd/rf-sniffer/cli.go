package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/rf-sniffer/internal/config"
	"github.com/sweeney/rf-sniffer/internal/logic"
	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
	"github.com/sweeney/rf-sniffer/internal/radio"
	"github.com/sweeney/rf-sniffer/internal/replay"
	"github.com/sweeney/rf-sniffer/internal/store"
)

// env holds the constructors commands use, so tests can swap in fakes.
type env struct {
	openRig   func(cfg *config.Config) (*rig, error)
	openStore func(dir string) (*store.Store, error)
	engine    *protocol.Engine
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "rf-sniffer",
		Usage:   "Capture, decode and replay sub-GHz remote control signals",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file (default " + config.DefaultPath + ")"},
			&cli.Float64Flag{Name: "frequency", Aliases: []string{"f"}, Usage: "Frequency in MHz"},
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: "Radio preset"},
			&cli.StringFlag{Name: "store", Usage: "Capture store directory"},
		},
		Commands: []*cli.Command{
			listenCmd(e),
			scanCmd(e),
			decodeCmd(e),
			replayCmd(e),
			sendCmd(e),
			capturesCmd(e),
			protocolsCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// loadConfig reads the config file and applies global flag overrides.
// Without --config a missing default file means defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultPath)
	}
	if err != nil {
		return nil, err
	}
	if c.IsSet("frequency") {
		cfg.Radio.FrequencyMHz = c.Float64("frequency")
	}
	if c.IsSet("preset") {
		cfg.Radio.Preset = c.String("preset")
	}
	if c.IsSet("store") {
		cfg.Store.Dir = c.String("store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// listenCmd creates the listen command.
func listenCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Run the capture daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker URL"},
			&cli.StringFlag{Name: "http", Usage: "Status page listen address (empty disables)"},
			&cli.DurationFlag{Name: "heartbeat", Usage: "Heartbeat interval"},
			&cli.BoolFlag{Name: "allow-replay", Usage: "Enable POST /replay on the status server"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}
			if c.IsSet("broker") {
				cfg.MQTT.Broker = c.String("broker")
			}
			if c.IsSet("http") {
				cfg.Web.Addr = c.String("http")
			}
			if c.IsSet("heartbeat") {
				cfg.MQTT.Heartbeat = c.Duration("heartbeat")
			}
			if c.IsSet("allow-replay") {
				cfg.Web.Replay = c.Bool("allow-replay")
			}
			if err := e.listen(cfg); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// scanCmd creates the scan command.
func scanCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Sweep the standard frequency list and report the strongest signal (needs a radio with an RSSI readout)",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "settle", Value: 50 * time.Millisecond, Usage: "Wait after each retune"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}
			hw, err := e.openRig(cfg)
			if err != nil {
				return outputError(err)
			}
			defer hw.Close()

			ctx, stop := signalContext(c.Context)
			defer stop()

			res, err := radio.Scan(ctx, hw.radio, cfg.Radio.Preset, radio.ScanFrequencies, c.Duration("settle"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, res)
		},
	}
}

// DecodeOutput is the decode command result.
type DecodeOutput struct {
	Outcome string           `json:"outcome"`
	Message string           `json:"message"`
	Pulses  int              `json:"pulses"`
	Trains  int              `json:"trains"`
	Stats   pulse.Statistics `json:"stats"`
	Code    *CodeJSON        `json:"code,omitempty"`
}

// CodeJSON is the printed form of a decoded code.
type CodeJSON struct {
	Protocol string            `json:"protocol"`
	Kind     string            `json:"kind"`
	Bits     int               `json:"bits"`
	Data     string            `json:"data"`
	Serial   *uint32           `json:"serial,omitempty"`
	Button   string            `json:"button,omitempty"`
	Counter  *uint32           `json:"counter,omitempty"`
	Checksum string            `json:"checksum,omitempty"`
	Extra    map[string]uint64 `json:"extra,omitempty"`
	Summary  string            `json:"summary"`
}

func codeJSON(c protocol.Code) *CodeJSON {
	out := &CodeJSON{
		Protocol: c.Protocol,
		Kind:     string(c.Kind),
		Bits:     c.BitCount,
		Data:     "0x" + c.Data.String(),
		Checksum: c.Checksum,
		Extra:    c.Extra,
		Summary:  c.String(),
	}
	if c.Kind == protocol.Rolling {
		serial, counter := c.Serial, c.Counter
		out.Serial = &serial
		out.Counter = &counter
		out.Button = protocol.ButtonName(c.Button)
	}
	return out
}

// decodeCmd creates the decode command.
func decodeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "decode",
		Usage: "Decode a stored capture or a pulse list",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Capture ID (default latest)"},
			&cli.StringFlag{Name: "pulses", Usage: `Signed pulse widths, e.g. "320 -640 ..."`},
		},
		Action: func(c *cli.Context) error {
			var sig pulse.Signal
			if text := c.String("pulses"); text != "" {
				parsed, err := pulse.Parse(text)
				if err != nil {
					return outputError(err)
				}
				sig = parsed
			} else {
				cfg, err := loadConfig(c)
				if err != nil {
					return outputError(err)
				}
				capt, err := e.loadCapture(cfg, c.String("id"))
				if err != nil {
					return outputError(err)
				}
				sig = capt.Signal
			}

			res, err := logic.NewAnalyzer(e.engine).Analyze(c.Context, sig)
			if err != nil {
				return outputError(err)
			}
			out := DecodeOutput{
				Outcome: string(res.Outcome),
				Message: res.Outcome.Message(res.Code),
				Pulses:  len(res.Signal),
				Trains:  len(res.Trains),
				Stats:   res.Stats,
			}
			if res.Outcome == logic.OutcomeDecoded {
				out.Code = codeJSON(res.Code)
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

func (e *env) loadCapture(cfg *config.Config, id string) (*store.Capture, error) {
	st, err := e.openStore(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if id == "" {
		return st.Latest()
	}
	return st.Get(id)
}

// TransmitOutput is the replay and send command result.
type TransmitOutput struct {
	Result     string `json:"result"`
	Source     string `json:"source"`
	Pulses     int    `json:"pulses"`
	DurationUS int64  `json:"duration_us"`
	RawData    string `json:"raw_data,omitempty"`
}

// replayCmd creates the replay command.
func replayCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Transmit a stored capture",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Capture ID (default latest)"},
			&cli.BoolFlag{Name: "raw", Usage: "Replay the captured pulses even when the capture decoded"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the plan without transmitting"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}
			capt, err := e.loadCapture(cfg, c.String("id"))
			if err != nil {
				return outputError(err)
			}

			plan, source, err := planFor(e.engine, capt, c.Bool("raw"))
			if err != nil {
				return outputError(err)
			}

			params := cfg.Params()
			if capt.Params.FrequencyMHz != 0 {
				params = capt.Params
			}
			return e.transmit(c, cfg, params, plan, source)
		},
	}
}

// sendCmd creates the send command.
func sendCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Synthesize a code and transmit it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "protocol", Required: true, Usage: "Protocol name"},
			&cli.StringFlag{Name: "data", Usage: "Raw data in hex; a whole frame for rolling protocols"},
			&cli.IntFlag{Name: "bits", Usage: "Data bit count (default the protocol maximum)"},
			&cli.Uint64Flag{Name: "serial", Usage: "Rolling code serial"},
			&cli.UintFlag{Name: "button", Usage: "Rolling code button"},
			&cli.Uint64Flag{Name: "counter", Usage: "Rolling code counter"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the plan without transmitting"},
		},
		Action: func(c *cli.Context) error {
			code, err := e.codeFromFlags(c)
			if err != nil {
				return outputError(err)
			}
			plan, err := replay.FromCode(e.engine, code)
			if err != nil {
				return outputError(err)
			}
			if err := plan.Validate(); err != nil {
				return outputError(err)
			}

			if c.Bool("dry-run") {
				return outputJSON(c.App.Writer, TransmitOutput{
					Result:     "dry run",
					Source:     code.Protocol,
					Pulses:     plan.Len(),
					DurationUS: plan.Duration().Microseconds(),
					RawData:    "RAW_Data: " + plan.Signal().String(),
				})
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}
			return e.transmit(c, cfg, cfg.Params(), plan, code.Protocol)
		},
	}
}

func (e *env) codeFromFlags(c *cli.Context) (protocol.Code, error) {
	d, ok := e.engine.Lookup(c.String("protocol"))
	if !ok {
		return protocol.Code{}, fmt.Errorf("unknown protocol %q", c.String("protocol"))
	}
	serial, button, counter := c.Uint64("serial"), c.Uint("button"), c.Uint64("counter")
	switch {
	case serial > math.MaxUint32:
		return protocol.Code{}, fmt.Errorf("--serial 0x%X does not fit in 32 bits", serial)
	case button > math.MaxUint8:
		return protocol.Code{}, fmt.Errorf("--button %d does not fit in 8 bits", button)
	case counter > math.MaxUint32:
		return protocol.Code{}, fmt.Errorf("--counter 0x%X does not fit in 32 bits", counter)
	}
	code := protocol.Code{
		Protocol: d.Name,
		Kind:     d.Kind,
		Serial:   uint32(serial),
		Button:   uint8(button),
		Counter:  uint32(counter),
	}

	data := c.String("data")
	if data == "" {
		if d.Kind == protocol.Fixed {
			return protocol.Code{}, errors.New("--data is required for fixed code protocols")
		}
		return code, nil
	}
	n := c.Int("bits")
	if n == 0 {
		n = d.MaxBits
	}
	bits, err := protocol.ParseBits(data, n)
	if err != nil {
		return protocol.Code{}, err
	}
	if d.Kind == protocol.Fixed {
		code.Data = bits
		code.BitCount = n
		return code, nil
	}

	// A rolling code given as data is a raw frame; its fields come from it.
	if c.IsSet("serial") || c.IsSet("button") || c.IsSet("counter") {
		return protocol.Code{}, errors.New("--data cannot be combined with --serial, --button or --counter")
	}
	frame, ok := d.Extract(bits)
	if !ok {
		return protocol.Code{}, fmt.Errorf("--data is not a valid %s frame", d.Name)
	}
	frame.Protocol, frame.Kind = d.Name, d.Kind
	frame.Data, frame.BitCount = bits, n
	return frame, nil
}

// transmit keys plan on the rig, honouring --dry-run.
func (e *env) transmit(c *cli.Context, cfg *config.Config, params radio.Params, plan replay.Plan, source string) error {
	out := TransmitOutput{
		Result:     "transmission complete",
		Source:     source,
		Pulses:     plan.Len(),
		DurationUS: plan.Duration().Microseconds(),
	}
	if c.Bool("dry-run") {
		out.Result = "dry run"
		out.RawData = "RAW_Data: " + plan.Signal().String()
		return outputJSON(c.App.Writer, out)
	}

	hw, err := e.openRig(cfg)
	if err != nil {
		return outputError(err)
	}
	defer hw.Close()

	ctx, stop := signalContext(c.Context)
	defer stop()

	tx := &replay.Transmitter{
		Radio: hw.radio,
		Pin:   hw.pin,
		State: radio.NewState(params),
		CPU:   cfg.Replay.CPU,
	}
	if err := tx.Transmit(ctx, plan); err != nil {
		return outputError(fmt.Errorf("transmit: %w", err))
	}
	return outputJSON(c.App.Writer, out)
}

// CaptureOutput is one row of the captures command.
type CaptureOutput struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	FrequencyMHz float64   `json:"frequency_mhz"`
	Preset       string    `json:"preset"`
	Pulses       int       `json:"pulses"`
	Code         *CodeJSON `json:"code,omitempty"`
}

// capturesCmd creates the captures command.
func capturesCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "captures",
		Usage: "List stored captures, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum captures (0 for all)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}
			st, err := e.openStore(cfg.Store.Dir)
			if err != nil {
				return outputError(fmt.Errorf("open store: %w", err))
			}
			defer st.Close()

			caps, err := st.List(c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			out := make([]CaptureOutput, 0, len(caps))
			for _, capt := range caps {
				row := CaptureOutput{
					ID:           capt.ID,
					CreatedAt:    capt.CreatedAt,
					FrequencyMHz: capt.Params.FrequencyMHz,
					Preset:       capt.Params.Preset,
					Pulses:       len(capt.Signal),
				}
				if capt.Code != nil {
					row.Code = codeJSON(*capt.Code)
				}
				out = append(out, row)
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

// ProtocolOutput describes one registered protocol.
type ProtocolOutput struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Encoding string `json:"encoding"`
	TeShort  uint32 `json:"te_short"`
	TeLong   uint32 `json:"te_long"`
	MinBits  int    `json:"min_bits"`
	MaxBits  int    `json:"max_bits"`
}

// protocolsCmd creates the protocols command.
func protocolsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "protocols",
		Usage: "List registered protocols in decode priority order",
		Action: func(c *cli.Context) error {
			ds := e.engine.Descriptors()
			out := make([]ProtocolOutput, 0, len(ds))
			for _, d := range ds {
				out = append(out, ProtocolOutput{
					Name:     d.Name,
					Kind:     string(d.Kind),
					Encoding: d.Encoding.String(),
					TeShort:  d.TeShort,
					TeLong:   d.TeLong,
					MinBits:  d.MinBits,
					MaxBits:  d.MaxBits,
				})
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// outputJSON outputs value as formatted JSON.
func outputJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}
