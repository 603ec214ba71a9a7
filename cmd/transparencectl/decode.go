package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/ledger"
	"github.com/totegamma/transparence/internal/recordstore"
)

// readDump accepts a raw account_tx response, its result object, or a plain
// array of transactions.
func readDump(r io.Reader) ([]transparence.RawTx, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var txs []transparence.RawTx
	if err := json.Unmarshal(b, &txs); err == nil {
		return txs, nil
	}

	var wrapped struct {
		Result *transparence.AccountTxResult `json:"result"`
		transparence.AccountTxResult
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing dump: %w", err)
	}
	result := wrapped.AccountTxResult
	if wrapped.Result != nil {
		result = *wrapped.Result
	}

	for _, entry := range result.Transactions {
		tx, ok := entry.Normalize()
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func newDecodeCmd() *cobra.Command {
	var report bool

	cmd := &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode evidence records from an account_tx JSON dump",
		Long:  "Decode evidence records from an account_tx JSON dump. Use - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}

			in := io.Reader(os.Stdin)
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			txs, err := readDump(in)
			if err != nil {
				return err
			}

			records, rep := ledger.Decoder{Now: time.Now}.DecodeWithReport(txs)
			if report {
				reasons := make([]string, 0, len(rep.Skipped))
				for reason := range rep.Skipped {
					reasons = append(reasons, string(reason))
				}
				sort.Strings(reasons)
				fmt.Fprintf(os.Stderr, "decoded: %d\n", rep.Decoded)
				for _, reason := range reasons {
					fmt.Fprintf(os.Stderr, "skipped %s: %d\n", reason, rep.Skipped[ledger.SkipReason(reason)])
				}
			}

			return printRecords(os.Stdout, format, recordstore.SortNewestFirst(records))
		},
	}

	cmd.Flags().BoolVar(&report, "report", false, "Print decode statistics to stderr")

	return cmd
}
