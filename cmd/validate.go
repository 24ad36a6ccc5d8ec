package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/validate"
)

var (
	validateURL  string
	validateFile string
	validateDeep bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a contact bundle or check a single profile URL",
	Long:  "With --url, checks whether one profile or website exists. Otherwise reads a contact bundle as JSON from --file or stdin and prints the validated bundle.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}

		if validateURL != "" {
			return printJSON(cmd.OutOrStdout(), tl.prober.CheckURL(ctx, validateURL))
		}

		var r io.Reader = cmd.InOrStdin()
		if validateFile != "" {
			f, err := os.Open(validateFile)
			if err != nil {
				return eris.Wrap(err, "open input")
			}
			defer f.Close() //nolint:errcheck
			r = f
		}

		var b model.ContactBundle
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return eris.Wrap(err, "decode contact bundle")
		}
		return printJSON(cmd.OutOrStdout(), validateBundle(ctx, tl, b, validateDeep))
	},
}

func validateBundle(ctx context.Context, tl *tooling, b model.ContactBundle, deep bool) validate.Result {
	if deep {
		return tl.deep.Validate(ctx, b)
	}
	return tl.format.Format(b)
}

func init() {
	validateCmd.Flags().StringVar(&validateURL, "url", "", "check a single profile or website URL")
	validateCmd.Flags().StringVar(&validateFile, "file", "", "read the contact bundle from file")
	validateCmd.Flags().BoolVar(&validateDeep, "deep", false, "verify handles and websites over the network")
	rootCmd.AddCommand(validateCmd)
}
