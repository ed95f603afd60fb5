package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	logging "github.com/inconshreveable/log15"
	"github.com/oklog/run"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	cmdcommon "boscoin.io/benor/cmd/benor/common"
	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/metrics"
	"boscoin.io/benor/lib/network"
	"boscoin.io/benor/lib/node"
	"boscoin.io/benor/lib/node/runner"
	"boscoin.io/benor/lib/storage"
)

const defaultNetwork string = "http"
const defaultPort int = 12345
const defaultHost string = "0.0.0.0"
const defaultLogLevel logging.Lvl = logging.LvlInfo

var (
	flagID             string = common.GetENVValue("BENOR_ID", "0")
	flagLogLevel       string = common.GetENVValue("BENOR_LOG_LEVEL", defaultLogLevel.String())
	flagLogOutput      string = common.GetENVValue("BENOR_LOG_OUTPUT", "")
	flagVerbose        bool   = common.GetENVValue("BENOR_VERBOSE", "0") == "1"
	flagEndpointString string = common.GetENVValue(
		"BENOR_ENDPOINT",
		fmt.Sprintf("%s://%s:%d", defaultNetwork, defaultHost, defaultPort),
	)
	flagStorageConfigString string
	flagTLSCertFile         string = common.GetENVValue("BENOR_TLS_CERT", "benor.crt")
	flagTLSKeyFile          string = common.GetENVValue("BENOR_TLS_KEY", "benor.key")
	flagValidators          string = common.GetENVValue("BENOR_VALIDATORS", "")
	flagFaultTolerance      string = common.GetENVValue("BENOR_FAULT_TOLERANCE", "0")
	flagFaulty              string = common.GetENVValue("BENOR_FAULTY", "false")
	flagInitial             string = common.GetENVValue("BENOR_INITIAL", "random")
	flagAutostart           string = common.GetENVValue("BENOR_AUTOSTART", "true")
	flagRetry               string = common.GetENVValue("BENOR_RETRY", "0")
	flagReadinessInterval   string = common.GetENVValue("BENOR_READINESS_INTERVAL", "100ms")
	flagSeed                string = common.GetENVValue("BENOR_SEED", "")
)

var (
	nodeCmd *cobra.Command

	localNode     *node.LocalNode
	nodeEndpoint  *common.Endpoint
	storageConfig *storage.Config
	validators    []*node.Validator
	initialValue  consensus.Value
	autostart     bool
	nodeConfig    common.Config
	logLevel      logging.Lvl
	log           logging.Logger = logging.New("module", "main")
)

func init() {
	var err error

	nodeCmd = &cobra.Command{
		Use:   "node",
		Short: "Run benor node",
		Run: func(c *cobra.Command, args []string) {
			parseFlagsNode()

			runNode()
		},
	}

	var currentDirectory string
	if currentDirectory, err = os.Getwd(); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--storage", err)
	}
	if currentDirectory, err = filepath.Abs(currentDirectory); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--storage", err)
	}
	flagStorageConfigString = common.GetENVValue("BENOR_STORAGE", fmt.Sprintf("file://%s/db", currentDirectory))

	nodeCmd.Flags().StringVar(&flagID, "id", flagID, "id of this node")
	nodeCmd.Flags().StringVar(&flagLogLevel, "log-level", flagLogLevel, "log level, {crit, error, warn, info, debug}")
	nodeCmd.Flags().StringVar(&flagLogOutput, "log-output", flagLogOutput, "set log output file")
	nodeCmd.Flags().BoolVar(&flagVerbose, "verbose", flagVerbose, "verbose")
	nodeCmd.Flags().StringVar(&flagEndpointString, "endpoint", flagEndpointString, "endpoint uri to listen on")
	nodeCmd.Flags().StringVar(&flagStorageConfigString, "storage", flagStorageConfigString, "journal storage uri, {memory://, file:///path}")
	nodeCmd.Flags().StringVar(&flagTLSCertFile, "tls-cert", flagTLSCertFile, "tls certificate file, only for https endpoint")
	nodeCmd.Flags().StringVar(&flagTLSKeyFile, "tls-key", flagTLSKeyFile, "tls key file, only for https endpoint")
	nodeCmd.Flags().StringVar(&flagValidators, "validators", flagValidators, "set validator: <endpoint url>?id=<node id>[&alias=<alias>] [ <validator>...]")
	nodeCmd.Flags().StringVar(&flagFaultTolerance, "fault-tolerance", flagFaultTolerance, "number of faulty nodes tolerated")
	nodeCmd.Flags().StringVar(&flagFaulty, "faulty", flagFaulty, "this node is faulty and never participates")
	nodeCmd.Flags().StringVar(&flagInitial, "initial", flagInitial, "initial value, {0, 1, random}")
	nodeCmd.Flags().StringVar(&flagAutostart, "autostart", flagAutostart, "start consensus when every validator is reachable")
	nodeCmd.Flags().StringVar(&flagRetry, "retry", flagRetry, "max retries of sending packet; 0 is no retry")
	nodeCmd.Flags().StringVar(&flagReadinessInterval, "readiness-interval", flagReadinessInterval, "interval to check the validators are reachable")
	nodeCmd.Flags().StringVar(&flagSeed, "seed", flagSeed, "seed of the random coin; empty is the current time")

	rootCmd.AddCommand(nodeCmd)
}

func parseFlagValidators(v string) (vs []*node.Validator, err error) {
	splitted := strings.Fields(v)
	if len(splitted) < 1 {
		return
	}

	for _, v := range splitted {
		var validator *node.Validator
		if validator, err = node.NewValidatorFromURI(v); err != nil {
			return
		}
		vs = append(vs, validator)
	}

	return
}

func parseFlagsNode() {
	var err error

	var id uint64
	if id, err = strconv.ParseUint(flagID, 10, 64); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--id", err)
	}

	if p, err := common.ParseEndpoint(flagEndpointString); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--endpoint", err)
	} else {
		nodeEndpoint = p
		flagEndpointString = nodeEndpoint.String()
	}

	queries := nodeEndpoint.Query()
	if nodeEndpoint.Scheme == "https" {
		if _, err = os.Stat(flagTLSCertFile); os.IsNotExist(err) {
			cmdcommon.PrintFlagsError(nodeCmd, "--tls-cert", err)
		}
		if _, err = os.Stat(flagTLSKeyFile); os.IsNotExist(err) {
			cmdcommon.PrintFlagsError(nodeCmd, "--tls-key", err)
		}
		queries.Add("TLSCertFile", flagTLSCertFile)
		queries.Add("TLSKeyFile", flagTLSKeyFile)
	}
	queries.Add("IdleTimeout", "3s")
	queries.Add("NodeName", node.MakeAlias(id))
	nodeEndpoint.RawQuery = queries.Encode()

	var faulty bool
	if faulty, err = common.ParseBoolQueryString(flagFaulty); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--faulty", err)
	}
	if autostart, err = common.ParseBoolQueryString(flagAutostart); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--autostart", err)
	}

	localNode = node.NewLocalNode(id, nodeEndpoint, "", faulty)

	if validators, err = parseFlagValidators(flagValidators); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--validators", err)
	}
	for _, v := range validators {
		if v.ID() == id {
			cmdcommon.PrintFlagsError(nodeCmd, "--validators", fmt.Errorf("duplicated node id found, %d", id))
		}
	}
	if err = localNode.AddValidators(validators...); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--validators", err)
	}

	if storageConfig, err = storage.NewConfigFromString(flagStorageConfigString); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--storage", err)
	}

	var faultTolerance int
	if faultTolerance, err = strconv.Atoi(flagFaultTolerance); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--fault-tolerance", err)
	}
	nodeConfig = common.NewConfig(faultTolerance)
	if err = nodeConfig.Validate(localNode.CountValidators()); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--fault-tolerance", err)
	}

	if nodeConfig.ReadinessInterval, err = time.ParseDuration(flagReadinessInterval); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--readiness-interval", err)
	}

	var retry int
	if retry, err = strconv.Atoi(flagRetry); err != nil || retry < 0 {
		cmdcommon.PrintFlagsError(nodeCmd, "--retry", errors.New("must be 0 or positive integer"))
	}
	if retry > 0 {
		nodeConfig.Retry = common.NewRetrySetting(retry)
	}

	if len(flagSeed) > 0 {
		if nodeConfig.Seed, err = strconv.ParseInt(flagSeed, 10, 64); err != nil {
			cmdcommon.PrintFlagsError(nodeCmd, "--seed", err)
		}
	}

	if initialValue, err = cmdcommon.ParseInitialValue(flagInitial); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--initial", err)
	}
	if initialValue == consensus.ValueAbsent {
		initialValue = consensus.NewRandomCoin(nodeConfig.Seed + int64(id) + 1).Flip()
	}

	if logLevel, err = logging.LvlFromString(flagLogLevel); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--log-level", err)
	}

	var logHandler logging.Handler
	if logHandler, err = common.NewLogHandler(flagLogOutput); err != nil {
		cmdcommon.PrintFlagsError(nodeCmd, "--log-output", err)
	}
	if len(flagLogOutput) < 1 {
		flagLogOutput = "<stdout>"
	}

	log.SetHandler(logging.LvlFilterHandler(logLevel, logHandler))
	cmdcommon.SetLogging(logLevel, logHandler)

	log.Info("Starting benor")

	// print flags
	parsedFlags := []interface{}{}
	parsedFlags = append(parsedFlags, "\n\tid", id)
	parsedFlags = append(parsedFlags, "\n\tendpoint", flagEndpointString)
	parsedFlags = append(parsedFlags, "\n\tstorage", flagStorageConfigString)
	parsedFlags = append(parsedFlags, "\n\tfault-tolerance", faultTolerance)
	parsedFlags = append(parsedFlags, "\n\tfaulty", faulty)
	parsedFlags = append(parsedFlags, "\n\tinitial", initialValue)
	parsedFlags = append(parsedFlags, "\n\tautostart", autostart)
	parsedFlags = append(parsedFlags, "\n\tretry", retry)
	parsedFlags = append(parsedFlags, "\n\tlog-level", flagLogLevel)
	parsedFlags = append(parsedFlags, "\n\tlog-output", flagLogOutput)

	var vl []interface{}
	for i, v := range validators {
		vl = append(vl, fmt.Sprintf("\n\tvalidator#%d", i))
		vl = append(
			vl,
			fmt.Sprintf("alias=%s id=%d endpoint=%s", v.Alias(), v.ID(), v.Endpoint()),
		)
	}
	parsedFlags = append(parsedFlags, vl...)

	log.Debug("parsed flags:", parsedFlags...)

	if flagVerbose {
		http2.VerboseLogs = true
	}
}

func runNode() {
	metrics.InitPrometheusMetrics()
	metrics.SetVersion()

	st, err := storage.NewLevelDBBackend(storageConfig)
	if err != nil {
		log.Crit("failed to initialize storage", "error", err)

		os.Exit(1)
	}
	journal := storage.NewJournal(st)
	defer journal.Close()

	networkConfig, err := network.NewHTTP2NetworkConfigFromEndpoint(localNode.Alias(), nodeEndpoint)
	if err != nil {
		log.Crit("failed to create network", "error", err)

		os.Exit(1)
	}

	var httpLogOutput io.Writer
	if flagVerbose {
		httpLogOutput = os.Stdout
	}
	nt := network.NewHTTP2Network(networkConfig, httpLogOutput)
	nt.SetClientConfig(network.HTTP2NetworkClientConfig{
		Timeout:     nodeConfig.BroadcastTimeout,
		IdleTimeout: nodeConfig.IdleTimeout,
		Retry:       nodeConfig.Retry,
	})

	nr, err := runner.NewNodeRunner(localNode, nt, initialValue, nil, journal, nodeConfig)
	if err != nil {
		log.Crit("failed to launch node", "error", err)

		os.Exit(1)
	}

	// Execution group.
	var g run.Group
	{
		g.Add(func() error {
			if err := nr.Start(); err != nil {
				log.Crit("failed to start node", "error", err)
				return err
			}
			return nil
		}, func(error) {
			nr.Stop()
		})
	}
	if autostart {
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			if err := nr.StartConsensusWhenReady(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			select {
			case <-nr.Done():
				log.Info("consensus finished", "state", nr.State())
			case <-ctx.Done():
				return nil
			}

			<-ctx.Done()
			return nil
		}, func(error) {
			cancel()
		})
	}
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return cmdcommon.Interrupt(ctx)
		}, func(error) {
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		log.Info("node stopped", "reason", err)
	}
}
