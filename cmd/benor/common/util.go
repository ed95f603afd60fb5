package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	logging "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/network"
	"boscoin.io/benor/lib/node/runner"
)

/**
 * Issue a message on Stderr then exit with an error code
 */
func PrintFlagsError(cmd *cobra.Command, flagName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid '%s'; %s\n\n", flagName, errorString(err))
	}

	cmd.Help()

	os.Exit(1)
}

func PrintError(cmd *cobra.Command, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n\n", errorString(err))
	}

	cmd.Help()

	os.Exit(1)
}

func errorString(err error) string {
	if e, ok := err.(*errors.Error); ok {
		if len(e.Data) > 0 {
			return fmt.Sprintf("%s; %v", e.Message, e.Data)
		}
		return e.Message
	}

	return err.Error()
}

// SetLogging sets the level and handler of every package which logs.
func SetLogging(level logging.Lvl, handler logging.Handler) {
	common.SetLogging(level, handler)
	consensus.SetLogging(level, handler)
	network.SetLogging(level, handler)
	runner.SetLogging(level, handler)
}

// ParseInitialValue accepts "0", "1" and "random"; "random" gives
// `consensus.ValueAbsent`, which the caller draws.
func ParseInitialValue(s string) (consensus.Value, error) {
	s = strings.TrimSpace(s)
	if s == "random" {
		return consensus.ValueAbsent, nil
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		return consensus.ValueAbsent, errors.InvalidInitialValue.Clone().SetData("value", s)
	}

	return consensus.ValueFromInt(i)
}

// ParseIDList parses comma separated node ids, like "0,3,5".
func ParseIDList(s string) (ids []uint64, err error) {
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if len(f) < 1 {
			continue
		}

		var id uint64
		if id, err = strconv.ParseUint(f, 10, 64); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return
}

type ListFlags []string

func (i *ListFlags) Type() string {
	return "list"
}

func (i *ListFlags) String() string {
	return strings.Join([]string(*i), " ")
}

func (i *ListFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}
