package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	cmdcommon "boscoin.io/benor/cmd/benor/common"
	"boscoin.io/benor/lib/storage"
)

var (
	auditCmd *cobra.Command

	flagAuditStorage string
	flagAuditNode    string
	flagAuditFormat  string = "prettyjson"
)

func init() {
	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Print the journal of the recorded packets and decisions",
		Run: func(c *cobra.Command, args []string) {
			if err := runAudit(); err != nil {
				cmdcommon.PrintError(c, err)
			}
		},
	}

	auditCmd.Flags().StringVar(&flagAuditStorage, "storage", flagAuditStorage, "journal storage uri, 'file:///path'")
	auditCmd.Flags().StringVar(&flagAuditNode, "node", flagAuditNode, "print the packets recorded by this node id; empty prints the decisions")
	auditCmd.Flags().StringVar(&flagAuditFormat, "format", flagAuditFormat, "output format, {json, prettyjson, yaml}")

	auditCmd.MarkFlagRequired("storage")

	rootCmd.AddCommand(auditCmd)
}

func runAudit() (err error) {
	var encode cmdcommon.Encode
	if encode, err = cmdcommon.GetEncode(flagAuditFormat); err != nil {
		return
	}

	var config *storage.Config
	if config, err = storage.NewConfigFromString(flagAuditStorage); err != nil {
		return
	}

	var st *storage.LevelDBBackend
	if st, err = storage.NewLevelDBBackend(config); err != nil {
		return
	}
	journal := storage.NewJournal(st)
	defer journal.Close()

	return auditJournal(journal, flagAuditNode, encode, os.Stdout)
}

func auditJournal(journal *storage.Journal, nodeID string, encode cmdcommon.Encode, w io.Writer) error {
	if len(nodeID) < 1 {
		decisions, err := journal.Decisions()
		if err != nil {
			return err
		}
		return encode(decisions, w)
	}

	id, err := strconv.ParseUint(nodeID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid node id, %q", nodeID)
	}

	packets, err := journal.Packets(id)
	if err != nil {
		return err
	}

	return encode(packets, w)
}
