package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	logging "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	cmdcommon "boscoin.io/benor/cmd/benor/common"
	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/node/runner"
	"boscoin.io/benor/lib/storage"
)

var (
	simulateCmd *cobra.Command

	flagSimulateNodes          string = "4"
	flagSimulateFaultTolerance string = "1"
	flagSimulateFaulty         string
	flagSimulateInitial        cmdcommon.ListFlags
	flagSimulateSeed           string
	flagSimulateMaxDelay       string = "0s"
	flagSimulateTimeout        string = "1m"
	flagSimulateStorage        string
	flagSimulateFormat         string = "prettyjson"
	flagSimulateLogLevel       string = logging.LvlCrit.String()
)

func init() {
	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run every node of an agreement in this process",
		Run: func(c *cobra.Command, args []string) {
			config, timeout, encode := parseFlagsSimulate()
			runSimulate(config, timeout, encode)
		},
	}

	simulateCmd.Flags().StringVar(&flagSimulateNodes, "nodes", flagSimulateNodes, "number of nodes")
	simulateCmd.Flags().StringVar(&flagSimulateFaultTolerance, "fault-tolerance", flagSimulateFaultTolerance, "number of faulty nodes tolerated")
	simulateCmd.Flags().StringVar(&flagSimulateFaulty, "faulty", flagSimulateFaulty, "ids of faulty nodes, like '0,3'")
	simulateCmd.Flags().Var(&flagSimulateInitial, "initial", "initial value of node, '<id>=<0|1>'; the others are random")
	simulateCmd.Flags().StringVar(&flagSimulateSeed, "seed", flagSimulateSeed, "seed of the initial values and the coins; empty is the current time")
	simulateCmd.Flags().StringVar(&flagSimulateMaxDelay, "max-delay", flagSimulateMaxDelay, "max random delay of each message delivery")
	simulateCmd.Flags().StringVar(&flagSimulateTimeout, "timeout", flagSimulateTimeout, "give up after this")
	simulateCmd.Flags().StringVar(&flagSimulateStorage, "storage", flagSimulateStorage, "journal storage uri; empty keeps no journal")
	simulateCmd.Flags().StringVar(&flagSimulateFormat, "format", flagSimulateFormat, "output format, {json, prettyjson, yaml}")
	simulateCmd.Flags().StringVar(&flagSimulateLogLevel, "log-level", flagSimulateLogLevel, "log level, {crit, error, warn, info, debug}")

	rootCmd.AddCommand(simulateCmd)
}

func parseSimulateInitial(flags []string) (map[uint64]consensus.Value, error) {
	initial := map[uint64]consensus.Value{}
	for _, f := range flags {
		splitted := strings.SplitN(f, "=", 2)
		if len(splitted) != 2 {
			return nil, fmt.Errorf("'<id>=<0|1>' expected, %q", f)
		}

		id, err := strconv.ParseUint(strings.TrimSpace(splitted[0]), 10, 64)
		if err != nil {
			return nil, err
		}

		v, err := cmdcommon.ParseInitialValue(splitted[1])
		if err != nil {
			return nil, err
		}
		if v == consensus.ValueAbsent {
			continue
		}
		initial[id] = v
	}

	return initial, nil
}

func parseFlagsSimulate() (config runner.SimulationConfig, timeout time.Duration, encode cmdcommon.Encode) {
	var err error

	if config.Nodes, err = strconv.Atoi(flagSimulateNodes); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--nodes", err)
	}
	if config.FaultTolerance, err = strconv.Atoi(flagSimulateFaultTolerance); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--fault-tolerance", err)
	}
	if config.Faulty, err = cmdcommon.ParseIDList(flagSimulateFaulty); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--faulty", err)
	}
	if config.Initial, err = parseSimulateInitial(flagSimulateInitial); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--initial", err)
	}

	config.Seed = time.Now().UnixNano()
	if len(flagSimulateSeed) > 0 {
		if config.Seed, err = strconv.ParseInt(flagSimulateSeed, 10, 64); err != nil {
			cmdcommon.PrintFlagsError(simulateCmd, "--seed", err)
		}
	}

	if config.MaxDelay, err = time.ParseDuration(flagSimulateMaxDelay); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--max-delay", err)
	}
	if timeout, err = time.ParseDuration(flagSimulateTimeout); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--timeout", err)
	}

	if len(flagSimulateStorage) > 0 {
		var sc *storage.Config
		if sc, err = storage.NewConfigFromString(flagSimulateStorage); err != nil {
			cmdcommon.PrintFlagsError(simulateCmd, "--storage", err)
		}

		var st *storage.LevelDBBackend
		if st, err = storage.NewLevelDBBackend(sc); err != nil {
			cmdcommon.PrintFlagsError(simulateCmd, "--storage", err)
		}
		config.Journal = storage.NewJournal(st)
	}

	if encode, err = cmdcommon.GetEncode(flagSimulateFormat); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--format", err)
	}

	var level logging.Lvl
	if level, err = logging.LvlFromString(flagSimulateLogLevel); err != nil {
		cmdcommon.PrintFlagsError(simulateCmd, "--log-level", err)
	}
	cmdcommon.SetLogging(level, common.DefaultLogHandler)

	return
}

func runSimulate(config runner.SimulationConfig, timeout time.Duration, encode cmdcommon.Encode) {
	if config.Journal != nil {
		defer config.Journal.Close()
	}

	s, err := runner.NewSimulation(config)
	if err != nil {
		cmdcommon.PrintError(simulateCmd, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	runErr := s.Run(ctx)

	if err := encode(s.Result(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: simulation did not finish; %v\n", runErr)
		os.Exit(1)
	}
}
