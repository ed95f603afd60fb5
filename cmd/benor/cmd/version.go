package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boscoin.io/benor/cmd/benor/common"
	"boscoin.io/benor/lib/version"
)

func init() {
	var flagFormat string

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(c *cobra.Command, args []string) {
			if len(flagFormat) < 1 {
				fmt.Printf("%s\n", version.ToDetailVersion())
				return
			}

			encode, err := common.GetEncode(flagFormat)
			if err != nil {
				common.PrintFlagsError(c, "--format", err)
			}
			encode(version.Get(), os.Stdout)
		},
	}
	versionCmd.Flags().StringVar(&flagFormat, "format", flagFormat, "output format, {json, prettyjson, yaml}")

	rootCmd.AddCommand(versionCmd)
}
