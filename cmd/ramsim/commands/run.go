package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanloveland/ramulator2-sub000/internal/config"
	"github.com/hanloveland/ramulator2-sub000/internal/logging"
	"github.com/hanloveland/ramulator2-sub000/internal/metrics"
	"github.com/hanloveland/ramulator2-sub000/pkg/dram"
	"github.com/hanloveland/ramulator2-sub000/pkg/memsystem"
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
	"github.com/hanloveland/ramulator2-sub000/pkg/trace"
)

var (
	tracePath string
	reportOut string
	maxCycles int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation and emit its statistics report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := logging.Configure(logging.Config(cfg.Logging)); err != nil {
			return err
		}
		return runSimulation(cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&tracePath, "trace", "", "trace file (overrides memsystem.trace_path)")
	runCmd.Flags().StringVar(&reportOut, "report", "", "statistics report output path (default: stdout)")
	runCmd.Flags().Int64Var(&maxCycles, "max-cycles", 100_000_000, "hard cycle bound for the run")
}

func runSimulation(cfg *config.Config) error {
	log := logging.Default()

	org, err := cfg.ResolveOrg()
	if err != nil {
		return err
	}
	t, err := cfg.ResolveTiming()
	if err != nil {
		return err
	}

	path := tracePath
	if path == "" {
		path = cfg.MemSystem.TracePath
	}
	if path == "" {
		return fmt.Errorf("run: no trace file (pass --trace or set memsystem.trace_path)")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("run: open trace: %w", err)
	}
	entries, err := trace.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	metrics.InitRegistry()
	sim := metrics.NewSimMetrics()

	readLatency := request.Clock(t.NCL + 4*t.NBL)
	sys := memsystem.New(org, t, readLatency)
	log.Info("simulation starting",
		"org", org.Name, "timing", t.Name,
		"trace", path, "entries", len(entries))

	if cfg.MemSystem.TraceCoreEnable {
		// The trace core rewinds forever by design; the run is bounded by
		// --max-cycles only.
		sys.EnableTraceCore(entries, cfg.MemSystem.TraceCoreMSHRSize)
		for clk := request.Clock(0); clk < request.Clock(maxCycles); clk++ {
			sim.RecordTick()
			if err := tick(sys, clk); err != nil {
				return err
			}
		}
		return emitReport(cfg, sys)
	}

	idx := 0
	for clk := request.Clock(0); clk < request.Clock(maxCycles); clk++ {
		for idx < len(entries) && entries[idx].Timestamp <= uint64(clk) {
			e := entries[idx]
			req := buildRequest(e, clk, sim)
			if !sys.Send(req) {
				break
			}
			sim.RecordSend(e.IsWrite, true)
			idx++
		}
		sim.RecordTick()
		if err := tick(sys, clk); err != nil {
			return err
		}
		if idx >= len(entries) && sys.IsFinished() {
			log.Info("simulation finished", "clk", clk)
			break
		}
	}
	return emitReport(cfg, sys)
}

// tick advances the system one cycle, aborting through the structured
// fatal path when an invariant violation surfaces at the tick boundary.
func tick(sys *memsystem.System, clk request.Clock) error {
	err := sys.Tick(clk)
	if err == nil {
		return nil
	}
	var fe *dram.FatalError
	if errors.As(err, &fe) {
		logging.Fatalf(int64(fe.Clk), fe.Channel, fe.PCh, "%s", fe.Msg)
	}
	return err
}

func buildRequest(e trace.Entry, clk request.Clock, sim *metrics.SimMetrics) *request.Request {
	kind := request.Read
	if e.IsWrite {
		kind = request.Write
	}
	req := request.New(kind, e.Addr, request.AddrVec{}, 0, nil)
	if e.HasPayload {
		req.HasPayload = true
		req.Payload = e.Payload
	}
	if kind == request.Read {
		issued := clk
		req.Callback = func(done *request.Request) {
			sim.RecordReadCompletion(int64(done.DepartClk - issued))
		}
	}
	return req
}

func emitReport(cfg *config.Config, sys *memsystem.System) error {
	power := sys.Device().PowerSnapshot()
	report, err := metrics.NewReport(map[string]any{
		"org":    cfg.Org.Preset,
		"timing": cfg.Timing.Preset,
	})
	if err != nil {
		return err
	}
	report.Stats["dram_power"] = map[string]any{
		"activate_count": power.ActivateCount,
		"read_count":     power.ReadCount,
		"write_count":    power.WriteCount,
		"refresh_count":  power.RefreshCount,
		"energy_proxy":   power.EnergyProxy,
	}
	if avg, err := sys.TraceCoreAverageReadLatency(); err == nil {
		report.Stats["trace_core_avg_read_latency"] = avg
	}

	out := os.Stdout
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			return fmt.Errorf("run: create report: %w", err)
		}
		defer f.Close()
		out = f
	}
	return report.Write(out)
}
