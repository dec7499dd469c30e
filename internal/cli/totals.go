package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"greendrake/po/internal/ponumber"
	"greendrake/po/internal/totals"
)

// PrintOrderTotals prints the header and totals of the saved order poNumber.
func PrintOrderTotals(out io.Writer, rt *Runtime, poNumber string) error {
	if _, _, err := ponumber.Parse(poNumber); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	po, ok := rt.Store.Find(poNumber)
	if !ok {
		return cli.Exit(fmt.Sprintf("Purchase Order %s not found.", poNumber), 1)
	}
	settings := totals.Settings{
		PricesIncludeTax:   po.PricesIncludeTax,
		ApplyCommercialTax: po.ApplyCommercialTax,
	}
	fmt.Fprintf(out, "%s  %s  (%d items)\n", po.PoNumber, po.Supplier, len(po.Items))
	PrintSummary(out, totals.Compute(po.Items, settings), settings)
	return nil
}
