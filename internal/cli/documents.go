package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/noah-isme/livvitt-quotes/internal/app"
	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/quote"
	"github.com/noah-isme/livvitt-quotes/internal/render"
)

type totalsCmd struct {
	rt      *Runtime
	asJSON  bool
	builtin bool
}

func (*totalsCmd) Name() string     { return "totals" }
func (*totalsCmd) Synopsis() string { return "price a saved document file" }
func (*totalsCmd) Usage() string {
	return `livvittctl totals [-json] [-default-book] <file>

  Prices the document in <file> against the active price book and prints
  every line subtotal followed by the document totals.
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the priced document as JSON")
	f.BoolVar(&c.builtin, "default-book", false, "price against the built-in price book instead of the saved one")
}

func (c *totalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.rt.usage(c.Usage())
	}
	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		c.rt.fail(err)
		return subcommands.ExitFailure
	}
	return c.rt.with(ctx, func(deps *app.Dependencies) error {
		doc, err := document.Decode(data)
		if err != nil {
			return err
		}
		book, err := deps.Store.PriceBook(ctx)
		if err != nil {
			return err
		}
		if c.builtin {
			book = pricebook.Default()
		}
		priced := quote.Price(doc, book)
		if c.asJSON {
			enc := json.NewEncoder(c.rt.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(priced)
		}

		money := render.NewFormatter(deps.Config.CurrencyCode)
		w := tabwriter.NewWriter(c.rt.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(w, "%s\t%s\t\n", displayNumber(doc), doc.Customer.Name)
		for i, line := range priced.Lines {
			fmt.Fprintf(w, "%s\t%s\t\n", render.Describe(doc.Items[i]), money.Format(line.Subtotal))
		}
		t := priced.Totals
		fmt.Fprintf(w, "Items\t%s\t\n", money.Format(t.ItemsSubtotal))
		fmt.Fprintf(w, "Install\t%s\t\n", money.Format(t.InstallTotal))
		fmt.Fprintf(w, "Discount\t-%s\t\n", money.Format(t.Discount))
		fmt.Fprintf(w, "Tax\t%s\t\n", money.Format(t.Tax))
		fmt.Fprintf(w, "Total\t%s\t\n", money.Format(t.Total))
		return w.Flush()
	})
}

func displayNumber(doc document.Document) string {
	if doc.Number != "" {
		return doc.Number
	}
	return string(doc.Kind)
}

type nextCmd struct {
	rt *Runtime
}

func (*nextCmd) Name() string     { return "next" }
func (*nextCmd) Synopsis() string { return "issue the next quote or invoice number" }
func (*nextCmd) Usage() string {
	return `livvittctl next <quote|invoice>

  Consumes and prints the next number for the kind. The counter is
  persisted, so the number is never handed out again.
`
}

func (*nextCmd) SetFlags(*flag.FlagSet) {}

func (c *nextCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.rt.usage(c.Usage())
	}
	kind, ok := parseKind(f.Arg(0))
	if !ok {
		return c.rt.usage(fmt.Sprintf("unknown kind %q\n\n%s", f.Arg(0), c.Usage()))
	}
	return c.rt.with(ctx, func(deps *app.Dependencies) error {
		number, err := deps.Numbers.Next(ctx, kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.rt.Stdout, number)
		return nil
	})
}

type countersCmd struct {
	rt     *Runtime
	asJSON bool
}

func (*countersCmd) Name() string     { return "counters" }
func (*countersCmd) Synopsis() string { return "show the last number issued per kind and year" }
func (*countersCmd) Usage() string {
	return `livvittctl counters [-json]

  Prints every numbering counter without consuming a number.
`
}

func (c *countersCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the counters object as JSON")
}

func (c *countersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.rt.with(ctx, func(deps *app.Dependencies) error {
		counters, err := deps.Store.Counters(ctx)
		if err != nil {
			return err
		}
		if c.asJSON {
			return json.NewEncoder(c.rt.Stdout).Encode(counters)
		}
		w := tabwriter.NewWriter(c.rt.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COUNTER\tLAST")
		for _, key := range slices.Sorted(maps.Keys(counters)) {
			fmt.Fprintf(w, "%s\t%d\n", key, counters[key])
		}
		return w.Flush()
	})
}

func parseKind(v string) (document.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "quote", "lvq":
		return document.KindQuote, true
	case "invoice", "lvi":
		return document.KindInvoice, true
	default:
		return "", false
	}
}

type importCmd struct {
	rt *Runtime
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a document JSON file" }
func (*importCmd) Usage() string {
	return `livvittctl import <file>

  Adds the document in <file> to the store. A saved document with the same
  id is replaced.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.rt.usage(c.Usage())
	}
	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		c.rt.fail(err)
		return subcommands.ExitFailure
	}
	return c.rt.with(ctx, func(deps *app.Dependencies) error {
		priced, err := deps.Quotes.Import(ctx, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.rt.Stdout, "imported %s (%s)\n", displayNumber(priced.Document), priced.Document.ID)
		return nil
	})
}
