package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/noah-isme/livvitt-quotes/internal/app"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/render"
)

type pipelineCmd struct {
	rt *Runtime
}

func (*pipelineCmd) Name() string     { return "pipeline" }
func (*pipelineCmd) Synopsis() string { return "show document counts and value by status" }
func (*pipelineCmd) Usage() string {
	return `livvittctl pipeline

  Prints one row per status with the number of documents, their summed
  total and the share of the largest status.
`
}

func (*pipelineCmd) SetFlags(*flag.FlagSet) {}

func (c *pipelineCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.rt.with(ctx, func(deps *app.Dependencies) error {
		report, err := deps.Pipeline.Report(ctx)
		if err != nil {
			return err
		}
		money := render.NewFormatter(deps.Config.CurrencyCode)
		w := tabwriter.NewWriter(c.rt.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATUS\tCOUNT\tVALUE\tSHARE")
		for _, sv := range report.Stats.ByStatus {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d%%\n", sv.Status, sv.Count, money.Format(sv.Value), sv.Percent)
		}
		return w.Flush()
	})
}

type exportCmd struct {
	rt  *Runtime
	out string
	id  string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export saved documents as JSON" }
func (*exportCmd) Usage() string {
	return `livvittctl export [-id <document id>] [-o <file>]

  Writes every saved document as one JSON array, or a single document when
  -id is given. Output goes to stdout unless -o names a file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "write to this file instead of stdout")
	f.StringVar(&c.id, "id", "", "export only the document with this id")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.rt.with(ctx, func(deps *app.Dependencies) error {
		var (
			data []byte
			err  error
		)
		if c.id != "" {
			data, _, err = deps.Quotes.Export(ctx, c.id)
		} else {
			data, err = deps.Pipeline.Export(ctx)
		}
		if err != nil {
			return err
		}
		if c.out == "" {
			_, err = fmt.Fprintln(c.rt.Stdout, string(data))
			return err
		}
		if err := os.WriteFile(c.out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(c.rt.Stderr, "wrote %s\n", c.out)
		return nil
	})
}

// rates collects repeated -sqft/-unit type=rate flags.
type rates map[string]float64

func (r rates) String() string { return fmt.Sprint(map[string]float64(r)) }

func (r rates) Set(v string) error {
	name, raw, ok := strings.Cut(v, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("want type=rate, got %q", v)
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("rate for %s: %w", name, err)
	}
	r[name] = rate
	return nil
}

type priceBookCmd struct {
	rt    *Runtime
	reset bool
	sqft  rates
	unit  rates
}

func (*priceBookCmd) Name() string     { return "pricebook" }
func (*priceBookCmd) Synopsis() string { return "show or edit the active price book" }
func (*priceBookCmd) Usage() string {
	return `livvittctl pricebook [-reset] [-sqft <type>=<rate>]... [-unit <type>=<rate>]...

  Prints the active price book as JSON. -reset restores the defaults; -sqft
  and -unit replace single rates. Edits are validated before they are saved.
`
}

func (c *priceBookCmd) SetFlags(f *flag.FlagSet) {
	c.sqft, c.unit = rates{}, rates{}
	f.BoolVar(&c.reset, "reset", false, "restore the default price book")
	f.Var(c.sqft, "sqft", "set an area rate, as type=rate (repeatable)")
	f.Var(c.unit, "unit", "set a flat rate, as type=rate (repeatable)")
}

func (c *priceBookCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.rt.with(ctx, func(deps *app.Dependencies) error {
		edit := func(book pricebook.PriceBook) (pricebook.PriceBook, error) {
			if c.reset {
				book = pricebook.Default()
			}
			for name, rate := range c.sqft {
				book = book.WithSqftRate(name, rate)
			}
			for name, rate := range c.unit {
				book = book.WithUnitRate(name, rate)
			}
			return book, nil
		}
		var (
			book pricebook.PriceBook
			err  error
		)
		if c.reset || len(c.sqft) > 0 || len(c.unit) > 0 {
			book, err = deps.Store.UpdatePriceBook(ctx, edit)
		} else {
			book, err = deps.Store.PriceBook(ctx)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(c.rt.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(book)
	})
}
