package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-scout/internal/extract"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/scrape"
	"github.com/sells-group/lead-scout/internal/validate"
)

var (
	extractFile    string
	extractURL     string
	extractSource  string
	extractTargets []string
	extractDeep    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract contacts from text, a file or a web page",
	Long:  "Reads text from --file, --url or stdin and prints the contact bundle as JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		targets, err := parseTargets(extractTargets)
		if err != nil {
			return err
		}
		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}

		text, source := "", extractSource
		switch {
		case extractURL != "":
			f := scrape.NewFetcher(cfg.Fetch.Timeout(),
				scrape.WithUserAgent(cfg.Fetch.UserAgent),
				scrape.WithMaxBytes(cfg.Fetch.MaxBytes),
			)
			html := f.Fetch(ctx, extractURL)
			if html == "" {
				return eris.Errorf("fetch %s: no usable html", extractURL)
			}
			text = scrape.Text(html)
			if source == "" {
				source = extractURL
			}
		case extractFile != "":
			data, err := os.ReadFile(extractFile)
			if err != nil {
				return eris.Wrap(err, "read input")
			}
			text = string(data)
		default:
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return eris.Wrap(err, "read stdin")
			}
			text = string(data)
		}

		var deep *validate.Deep
		if extractDeep {
			deep = tl.deep
		}
		res := runExtract(ctx, extract.New(tl.lists), deep, text, source, targets)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// runExtract extracts contacts from text, deep-validating them when deep
// is set.
func runExtract(ctx context.Context, ex *extract.Extractor, deep *validate.Deep, text, source string, targets []model.Kind) validate.Result {
	b := ex.Extract(text, source, targets)
	if deep == nil {
		return validate.Result{ContactBundle: b}
	}
	return deep.Validate(ctx, b)
}

// parseTargets maps kind names to kinds. No names selects every kind.
func parseTargets(names []string) ([]model.Kind, error) {
	var cleaned []string
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if !model.Kind(n).Valid() {
			return nil, eris.Errorf("unknown contact kind %q", n)
		}
		cleaned = append(cleaned, n)
	}
	if len(cleaned) == 0 {
		return model.AllKinds(), nil
	}
	return model.ParseKinds(cleaned), nil
}

func init() {
	extractCmd.Flags().StringVar(&extractFile, "file", "", "read text from file")
	extractCmd.Flags().StringVar(&extractURL, "url", "", "fetch and extract from a web page")
	extractCmd.Flags().StringVar(&extractSource, "source-url", "", "URL the text came from, excluded from websites")
	extractCmd.Flags().StringSliceVar(&extractTargets, "targets", nil, "contact kinds to extract (default all)")
	extractCmd.Flags().BoolVar(&extractDeep, "deep", false, "verify handles and websites over the network")
	extractCmd.MarkFlagsMutuallyExclusive("file", "url")
	rootCmd.AddCommand(extractCmd)
}
