package dashboard

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"
)

// Render writes the summary counters and the visible cards as a table.
func (d *Dashboard) Render(w io.Writer, now time.Time) error {
	s := d.Summary(now)
	if _, err := fmt.Fprintf(w, "Medicines: %d   Low stock: %d   Expiring in %d days: %d\n\n",
		s.Total, s.LowStock, ExpiringSoonDays, s.ExpiringSoon); err != nil {
		return err
	}

	visible := d.Visible()
	if len(visible) == 0 {
		msg := "No medicines registered."
		if d.search != "" {
			msg = "No medicines found."
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tDOSAGE\tQTY\tLOT\tEXPIRES\tFLAGS")
	for _, c := range visible {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			c.ID, c.Name, dash(c.Brand), dash(c.Dosage), c.Quantity, dash(c.Lot), dash(c.Expiry()), flags(c, now))
	}
	return tw.Flush()
}

func flags(c Card, now time.Time) string {
	var f string
	if c.IsLowStock() {
		f = "low-stock"
	}
	if c.ExpiresSoon(now) {
		if f != "" {
			f += ","
		}
		f += "expiring"
	}
	return dash(f)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// String renders the mode for status lines, e.g. "edit #3".
func (d *Dashboard) String() string {
	if d.mode == ModeEdit && d.editing != nil {
		return d.mode.String() + " #" + strconv.FormatInt(d.editing.ID, 10)
	}
	return d.mode.String()
}
