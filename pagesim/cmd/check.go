package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sarchlab/pagesim/process"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [program files...]",
	Short: "Validate the configuration and program files.",
	Long: "`check` parses every program without running it and verifies " +
		"that the configuration describes a memory that can be simulated.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err = cfg.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config: %d frames of %d bytes, %d swap devices\n",
			cfg.RAMSize/cfg.PageSize, cfg.PageSize, len(cfg.SwapSizes))

		failed := 0
		for _, path := range args {
			if err := checkProgram(path); err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				failed++

				continue
			}

			fmt.Fprintf(out, "%s: ok\n", path)
		}

		if failed > 0 {
			return errors.Errorf("%d of %d programs are invalid",
				failed, len(args))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkProgram(path string) error {
	_, err := process.ReadProgram(path)

	return err
}
