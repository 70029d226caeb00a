package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maemo32/tomasulo/engine"
	"github.com/maemo32/tomasulo/internal/asm"
	"github.com/maemo32/tomasulo/internal/config"
	"github.com/maemo32/tomasulo/internal/logging"
)

type configFlags struct {
	configPath string

	addSubStations int
	mulDivStations int
	memStations    int
	branchStations int

	addSubLatency int
	mulLatency    int
	divLatency    int
	loadLatency   int
	storeLatency  int
	branchLatency int

	robSize int
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to a TOML config file (defaults apply if omitted)")

	cmd.Flags().IntVar(&f.addSubStations, "add-sub-stations", 0, "override ADD/SUB reservation station count")
	cmd.Flags().IntVar(&f.mulDivStations, "mul-div-stations", 0, "override MUL/DIV reservation station count")
	cmd.Flags().IntVar(&f.memStations, "mem-stations", 0, "override LOAD/STORE reservation station count")
	cmd.Flags().IntVar(&f.branchStations, "branch-stations", 0, "override branch reservation station count")

	cmd.Flags().IntVar(&f.addSubLatency, "add-sub-latency", 0, "override ADD/SUB latency in cycles")
	cmd.Flags().IntVar(&f.mulLatency, "mul-latency", 0, "override MUL latency in cycles")
	cmd.Flags().IntVar(&f.divLatency, "div-latency", 0, "override DIV latency in cycles")
	cmd.Flags().IntVar(&f.loadLatency, "load-latency", 0, "override LOAD latency in cycles")
	cmd.Flags().IntVar(&f.storeLatency, "store-latency", 0, "override STORE latency in cycles")
	cmd.Flags().IntVar(&f.branchLatency, "branch-latency", 0, "override branch latency in cycles")

	cmd.Flags().IntVar(&f.robSize, "rob-size", 0, "override reorder buffer capacity")
}

// resolve loads the base config (file or defaults) and applies any
// non-zero flag overrides on top of it.
func (f *configFlags) resolve() (engine.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return engine.Config{}, err
	}
	if f.addSubStations > 0 {
		cfg.AddSubStations = f.addSubStations
	}
	if f.mulDivStations > 0 {
		cfg.MulDivStations = f.mulDivStations
	}
	if f.memStations > 0 {
		cfg.MemStations = f.memStations
	}
	if f.branchStations > 0 {
		cfg.BranchStations = f.branchStations
	}
	if f.addSubLatency > 0 {
		cfg.AddSubLatency = f.addSubLatency
	}
	if f.mulLatency > 0 {
		cfg.MulLatency = f.mulLatency
	}
	if f.divLatency > 0 {
		cfg.DivLatency = f.divLatency
	}
	if f.loadLatency > 0 {
		cfg.LoadLatency = f.loadLatency
	}
	if f.storeLatency > 0 {
		cfg.StoreLatency = f.storeLatency
	}
	if f.branchLatency > 0 {
		cfg.BranchLatency = f.branchLatency
	}
	if f.robSize > 0 {
		cfg.ROBSize = f.robSize
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func loadProgram(path string) ([]engine.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return asm.Parse(f)
}

const defaultMaxCycles = 100000

func newRunCmd() *cobra.Command {
	flags := &configFlags{}
	var maxCycles int

	cmd := &cobra.Command{
		Use:   "run <program.asm>",
		Short: "Run a program to completion and print the final metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}
			specs, err := loadProgram(args[0])
			if err != nil {
				return err
			}

			eng, err := engine.NewEngine(cfg)
			if err != nil {
				return err
			}
			eng.LoadProgram(specs)

			if runErr := eng.RunToEnd(maxCycles); runErr != nil {
				logging.Warn("run halted before completion", "error", runErr.Error())
			}

			printMetrics(cmd, eng.Metrics())
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&maxCycles, "max-cycles", defaultMaxCycles, "safety cap on cycles before giving up")
	return cmd
}

func printMetrics(cmd *cobra.Command, m engine.Metrics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cycles:                %d\n", m.Clock)
	fmt.Fprintf(out, "committed instructions: %d\n", m.Committed)
	fmt.Fprintf(out, "stall cycles:          %d\n", m.StallCycles)
	fmt.Fprintf(out, "squashed total:        %d\n", m.SquashedTotal)
	fmt.Fprintf(out, "peak speculative:      %d\n", m.SpeculativePeak)
	fmt.Fprintf(out, "IPC:                   %.3f\n", m.IPC)
}
