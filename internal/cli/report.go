package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/storefront/backend/internal/domain/cart"
)

// Cart scopes.
const (
	ScopeGuest = "guest"
	ScopeUser  = "user"
)

// CartReport is a cart as printed by cartctl.
type CartReport struct {
	Scope     string       `json:"scope" yaml:"scope"`
	Owner     string       `json:"owner" yaml:"owner"`
	Lines     []LineReport `json:"lines" yaml:"lines"`
	ItemCount int          `json:"item_count" yaml:"item_count"`
	Total     string       `json:"total" yaml:"total"`
}

// LineReport is one cart line.
type LineReport struct {
	LineID    string `json:"line_id" yaml:"line_id"`
	ProductID string `json:"product_id" yaml:"product_id"`
	Name      string `json:"name" yaml:"name"`
	Quantity  int    `json:"quantity" yaml:"quantity"`
	UnitPrice string `json:"unit_price" yaml:"unit_price"`
	Subtotal  string `json:"subtotal" yaml:"subtotal"`
}

func newCartReport(scope, owner string, s cart.Snapshot) CartReport {
	lines := make([]LineReport, 0, s.Len())
	for _, l := range s.Lines() {
		lines = append(lines, LineReport{
			LineID:    l.LineID,
			ProductID: l.ProductRef,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal().StringFixed(2),
		})
	}
	return CartReport{
		Scope:     scope,
		Owner:     owner,
		Lines:     lines,
		ItemCount: s.ItemCount(),
		Total:     s.Total().StringFixed(2),
	}
}

// RenderText prints the cart as a table.
func (r CartReport) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "%s cart %s\n", r.Scope, r.Owner)
	if len(r.Lines) == 0 {
		_, err := fmt.Fprintln(w, "(empty)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tPRODUCT\tNAME\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range r.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			l.LineID, l.ProductID, l.Name, l.Quantity, l.UnitPrice, l.Subtotal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "items: %d  total: %s\n", r.ItemCount, r.Total)
	return err
}

// MergeReport is the outcome of cartctl merge.
type MergeReport struct {
	SessionID string     `json:"session_id" yaml:"session_id"`
	UserID    string     `json:"user_id" yaml:"user_id"`
	Merged    int        `json:"merged" yaml:"merged"`
	Dropped   int        `json:"dropped" yaml:"dropped"`
	DryRun    bool       `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Result    CartReport `json:"result" yaml:"result"`
}

func (r MergeReport) RenderText(w io.Writer) error {
	verb := "merged"
	if r.DryRun {
		verb = "would merge"
	}
	fmt.Fprintf(w, "%s %d line(s) from session %s into user %s", verb, r.Merged, r.SessionID, r.UserID)
	if r.Dropped > 0 {
		fmt.Fprintf(w, ", %d dropped", r.Dropped)
	}
	fmt.Fprintln(w)
	return r.Result.RenderText(w)
}

// ClearReport is the outcome of cartctl clear.
type ClearReport struct {
	Scope   string `json:"scope" yaml:"scope"`
	Owner   string `json:"owner" yaml:"owner"`
	Removed int    `json:"removed" yaml:"removed"`
}

func (r ClearReport) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "cleared %s cart %s (%d line(s) removed)\n", r.Scope, r.Owner, r.Removed)
	return err
}

// TokenReport is a minted access token.
type TokenReport struct {
	UserID    string `json:"user_id" yaml:"user_id"`
	Token     string `json:"token" yaml:"token"`
	ExpiresAt string `json:"expires_at" yaml:"expires_at"`
}

func (r TokenReport) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, r.Token)
	return err
}
