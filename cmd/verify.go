package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tanq16/mcscs/internal/output"
	"github.com/tanq16/mcscs/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [FILE] [SHA1]",
		Short: "Check a local file against an expected SHA-1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := verify.Verify(args[0], args[1])
			var mismatch *verify.ChecksumMismatchError
			if errors.As(err, &mismatch) {
				output.PrintError(fmt.Sprintf("%s %s", output.StyleSymbols["fail"], mismatch.Path))
				fmt.Printf("  expected %s\n  actual   %s\n", output.FDetail(mismatch.Expected), output.FWarning(mismatch.Actual))
				return errors.New("checksum mismatch")
			}
			if err != nil {
				return err
			}
			output.PrintSuccess(fmt.Sprintf("%s %s matches %s", output.StyleSymbols["pass"], args[0], args[1]))
			return nil
		},
	}
	return cmd
}
