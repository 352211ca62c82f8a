package main

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/lockstep/bsp"
	"github.com/sarchlab/lockstep/membus"
	"github.com/sarchlab/lockstep/monitor"
	"github.com/sarchlab/lockstep/trace"
)

var (
	numPeers      int
	enableTrace   bool
	traceDB       string
	enableMonitor bool
	monitorPort   int
	openDashboard bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "bsprun",
	Short: "bsprun executes built-in BSP demo programs over an " +
		"in-process bus.",
	Long: `bsprun executes built-in BSP demo programs. Every peer runs ` +
		`as a goroutine connected to the others through an in-process ` +
		`bus, exchanging blobs and arrays in lockstep supersteps.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// A .env file is optional; flags override its values.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().IntVarP(&numPeers,
		"nprocs", "n", envInt("BSPRUN_NPROCS", 4),
		"number of peers to run")
	rootCmd.PersistentFlags().BoolVar(&enableTrace,
		"trace", false,
		"record message traffic into a SQLite database")
	rootCmd.PersistentFlags().StringVar(&traceDB,
		"trace-db", os.Getenv("BSPRUN_TRACE_DB"),
		"trace database name, auto-generated if empty")
	rootCmd.PersistentFlags().BoolVar(&enableMonitor,
		"monitor", false,
		"serve live session state over HTTP")
	rootCmd.PersistentFlags().IntVar(&monitorPort,
		"monitor-port", envInt("BSPRUN_MONITOR_PORT", 0),
		"monitor port, random if 0")
	rootCmd.PersistentFlags().BoolVar(&openDashboard,
		"open", false,
		"open the monitor page in the default browser")

	rootCmd.AddCommand(pingCmd, innerProductCmd)
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}

// runPeers spins up one session per peer over a shared bus, runs body on
// each peer's own goroutine, and waits for all of them.
func runPeers(body func(s *bsp.Session)) {
	bus := membus.MakeBuilder().
		WithNumPeers(numPeers).
		Build()

	var recorder trace.Recorder
	if enableTrace {
		r := trace.NewSQLiteRecorder(traceDB)
		r.Init()
		recorder = r
	}

	var mon *monitor.Monitor
	if enableMonitor {
		mon = monitor.NewMonitor()
		if monitorPort != 0 {
			mon = mon.WithPortNumber(monitorPort)
		}
	}

	sessions := make([]*bsp.Session, numPeers)
	for pid := range sessions {
		s := bsp.MakeSessionBuilder().
			WithTransport(bus.Endpoint(pid)).
			Build()

		if recorder != nil {
			trace.CollectTraffic(s, recorder)
		}
		if mon != nil {
			mon.RegisterSession(s)
		}

		sessions[pid] = s
	}

	if mon != nil {
		mon.StartServer()
		if openDashboard {
			mon.OpenDashboard()
		}
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *bsp.Session) {
			defer wg.Done()
			body(s)
		}(s)
	}
	wg.Wait()

	if recorder != nil {
		recorder.Flush()
	}
}
