package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"auction-analytics/internal/analysis"
	"auction-analytics/internal/data"
	"auction-analytics/internal/model"
)

var (
	eqLimitPrices string
	eqAsks        []float64
	eqBids        []float64
)

// equilibriumCmd solves schedules without any trade data
var equilibriumCmd = &cobra.Command{
	Use:   "equilibrium",
	Short: "Solve the competitive equilibrium of limit price schedules",
	Long: `Solves every schedule in a limit price file, or one schedule given on the
command line.

Examples:
  cli equilibrium --limit-prices results/runs__0/LIMITPRICES_1.csv
  cli equilibrium --asks 9,10,11 --bids 12,11,10`,
	RunE: runEquilibrium,
}

func init() {
	equilibriumCmd.Flags().StringVar(&eqLimitPrices, "limit-prices", "", "Limit price CSV file")
	equilibriumCmd.Flags().Float64SliceVar(&eqAsks, "asks", nil, "Seller limit prices")
	equilibriumCmd.Flags().Float64SliceVar(&eqBids, "bids", nil, "Buyer limit prices")
	equilibriumCmd.MarkFlagsMutuallyExclusive("limit-prices", "asks")
	equilibriumCmd.MarkFlagsMutuallyExclusive("limit-prices", "bids")
}

func runEquilibrium(cmd *cobra.Command, args []string) error {
	var sets map[string]model.LimitPriceSet
	if eqLimitPrices != "" {
		var err error
		if sets, err = data.LoadLimitPricesFile(eqLimitPrices); err != nil {
			return err
		}
	} else {
		if len(eqAsks) == 0 && len(eqBids) == 0 {
			return fmt.Errorf("either --limit-prices or --asks/--bids is required")
		}
		s, err := model.NewLimitPriceSet("cli", eqAsks, eqBids)
		if err != nil {
			return err
		}
		sets = map[string]model.LimitPriceSet{s.ScheduleID: s}
	}

	ids := make([]string, 0, len(sets))
	for id := range sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "schedule\tasks\tbids\tprice\tquantity\tseller_max\tbuyer_max\tmax_surplus")
	for _, id := range ids {
		s := sets[id]
		eq := analysis.SolveSchedule(s)
		if !eq.Found {
			fmt.Fprintf(w, "%s\t%d\t%d\tnone\t\t\t\t\n", id, len(s.Asks), len(s.Bids))
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%d\t%.3f\t%.3f\t%.3f\n",
			id, len(s.Asks), len(s.Bids), eq.Price, eq.Quantity,
			eq.SellerMaxSurplus, eq.BuyerMaxSurplus, eq.MaxSurplus())
	}
	return w.Flush()
}
