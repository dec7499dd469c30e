package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"greendrake/po/internal/models"
	"greendrake/po/internal/notify"
	"greendrake/po/internal/services"
	"greendrake/po/internal/totals"
)

const shellHelp = `Commands:
  new                          start a new purchase order
  supplier <name>              set the supplier
  payment <terms>              set the payment terms
  delivery <terms>             set the delivery terms
  add                          append a blank line item
  set <row> <field> <value>    field is code, description, qty, price or unit
  rm <row>                     remove a line item
  inclusive on|off             prices already include VAT
  ctax on|off                  deduct commercial tax
  show                         print the working order
  save                         save the working order
  list                         list saved orders, newest first
  load <po number>             load a saved order
  delete <po number>           delete a saved order
  quit                         leave the shell`

var errQuit = errors.New("quit")

// Shell is a line oriented editor over a session. Rows are numbered from 1.
type Shell struct {
	session services.ISessionService
	in      *bufio.Reader
	out     io.Writer
	confirm notify.Confirmer
}

// NewShell reads commands from in. Delete confirmations are read from the same stream.
func NewShell(session services.ISessionService, in io.Reader, out io.Writer) *Shell {
	br := bufio.NewReader(in)
	return &Shell{
		session: session,
		in:      br,
		out:     out,
		confirm: notify.NewPromptConfirmer(br, out),
	}
}

// Run processes commands until quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Purchase order shell. Type help for commands.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "po> ")
		line, err := s.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if cmdErr := s.Exec(ctx, line); cmdErr != nil {
				if errors.Is(cmdErr, errQuit) {
					return nil
				}
				fmt.Fprintf(s.out, "error: %v\n", cmdErr)
			}
		}
		if err == io.EOF {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return errQuit
	case "new":
		s.session.NewOrder(ctx)
		fmt.Fprintln(s.out, services.NewOrderMessage)
	case "supplier":
		s.session.SetSupplier(rest)
	case "payment":
		s.session.SetPaymentTerms(rest)
	case "delivery":
		s.session.SetDeliveryTerms(rest)
	case "add":
		s.session.AddItem()
		fmt.Fprintf(s.out, "Added row %d.\n", len(s.session.Snapshot().Items))
	case "set":
		return s.setField(rest)
	case "rm":
		row, err := parseRow(rest)
		if err != nil {
			return err
		}
		if !s.session.RemoveItem(row - 1) {
			return fmt.Errorf("no row %d", row)
		}
	case "inclusive":
		on, err := parseSwitch(rest)
		if err != nil {
			return err
		}
		s.session.SetPricesIncludeTax(on)
	case "ctax":
		on, err := parseSwitch(rest)
		if err != nil {
			return err
		}
		s.session.SetApplyCommercialTax(on)
	case "show":
		PrintWorkingState(s.out, s.session.Snapshot())
	case "save":
		fmt.Fprintln(s.out, s.session.Save(ctx).Message)
	case "list":
		PrintOrderList(s.out, s.session.SavedOrders())
	case "load":
		if rest == "" {
			return errors.New("usage: load <po number>")
		}
		fmt.Fprintln(s.out, s.session.Load(ctx, rest).Message)
	case "delete":
		if rest == "" {
			return errors.New("usage: delete <po number>")
		}
		outcome := s.session.Delete(ctx, rest, s.confirm)
		if outcome.Status == services.DeleteDeclined {
			fmt.Fprintln(s.out, "Delete cancelled.")
			return nil
		}
		fmt.Fprintln(s.out, outcome.Message)
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

func (s *Shell) setField(args string) error {
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 2 {
		return errors.New("usage: set <row> <field> <value>")
	}
	row, err := parseRow(fields[0])
	if err != nil {
		return err
	}
	value := ""
	if len(fields) == 3 {
		value = strings.TrimSpace(fields[2])
	}

	items := s.session.Snapshot().Items
	if row > len(items) {
		return fmt.Errorf("no row %d", row)
	}
	item := items[row-1]
	switch strings.ToLower(fields[1]) {
	case "code":
		item.Code = value
	case "description", "desc":
		item.Description = value
	case "unit":
		item.Unit = value
	case "qty", "quantity":
		item.Quantity = models.ParseAmount(value)
	case "price":
		item.Price = models.ParseAmount(value)
	default:
		return fmt.Errorf("unknown field %q", fields[1])
	}
	if !s.session.UpdateItem(row-1, item) {
		return fmt.Errorf("no row %d", row)
	}
	return nil
}

func parseRow(v string) (int, error) {
	row, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || row < 1 {
		return 0, fmt.Errorf("invalid row %q", v)
	}
	return row, nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes", "true":
		return true, nil
	case "off", "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}

// PrintWorkingState renders the order header, item table and totals.
func PrintWorkingState(out io.Writer, st services.WorkingState) {
	fmt.Fprintf(out, "%s    Date: %s\n", st.PoNumber, st.Date)
	fmt.Fprintf(out, "Supplier: %s\nPayment terms: %s\nDelivery terms: %s\n", st.Supplier, st.PaymentTerms, st.DeliveryTerms)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if st.ShowCodeColumn {
		fmt.Fprintln(tw, "#\tCode\tDescription\tQty\tUnit\tPrice\tTotal")
	} else {
		fmt.Fprintln(tw, "#\tDescription\tQty\tUnit\tPrice\tTotal")
	}
	for i, item := range st.Items {
		row := fmt.Sprintf("%d\t", i+1)
		if st.ShowCodeColumn {
			row += item.Code + "\t"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\n", row, item.Description,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64), item.Unit,
			totals.FormatAmount(item.Price), totals.FormatAmount(totals.LineTotal(item)))
	}
	tw.Flush()

	PrintSummary(out, st.Totals, totals.Settings{
		PricesIncludeTax:   st.PricesIncludeTax,
		ApplyCommercialTax: st.ApplyCommercialTax,
	})
}

// PrintSummary renders the totals block; the tax lines follow the switches.
func PrintSummary(out io.Writer, sum totals.Summary, s totals.Settings) {
	fmt.Fprintf(out, "Subtotal: %s\n", totals.FormatAmount(sum.Subtotal))
	if s.PricesIncludeTax {
		fmt.Fprintln(out, "VAT: included")
	} else {
		fmt.Fprintf(out, "VAT (14%%): %s\n", totals.FormatAmount(sum.Tax))
	}
	if s.ApplyCommercialTax {
		fmt.Fprintf(out, "Commercial tax (1%%): -%s\n", totals.FormatAmount(sum.CommercialTaxAmount))
	}
	fmt.Fprintf(out, "Total: %s\n", totals.FormatAmount(sum.Total))
}

// PrintOrderList renders saved orders in store order.
func PrintOrderList(out io.Writer, orders []models.PurchaseOrderData) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No saved purchase orders.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PO Number\tSupplier\tItems\tSaved At")
	for _, po := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", po.PoNumber, po.Supplier, len(po.Items), po.SavedAt)
	}
	tw.Flush()
}
