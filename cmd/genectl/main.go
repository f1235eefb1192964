// Command genectl inspects, migrates and seeds stored items carrying genetic
// data. Storage and the genome write format come from GENECORE_*
// environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"genecore/internal/config"
	"genecore/internal/savehandler"
	"genecore/pkg/genetics"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
)

const usage = `usage: genectl <command> [flags]

commands:
  inspect -id ID                 print the genome format and chromosomes of an item
  migrate [-dry-run] [-v]        rewrite every stored genome in the configured write format
  seed -count N -root UID -type T create items carrying the default genome
`

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, rest := args[0], args[1:]
	var run func(context.Context, *app, []string, io.Writer) error
	switch cmd {
	case "inspect":
		run = runInspect
	case "migrate":
		run = runMigrate
	case "seed":
		run = runSeed
	case "help", "-h", "-help", "--help":
		_, _ = fmt.Fprint(stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}
	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "genectl: %v\n", err)
		return 1
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "genectl: %v\n", err)
		return 1
	}
	defer func() { _ = a.close() }()
	if err := run(ctx, a, rest, stdout); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		_, _ = fmt.Fprintf(stderr, "genectl %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

// errUsage reports bad flags; the flag package has already printed why.
var errUsage = errors.New("usage")

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func runInspect(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := newFlagSet("inspect", a.stderr)
	id := fs.String("id", "", "item id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == "" {
		_, _ = fmt.Fprintln(a.stderr, "inspect: -id is required")
		return errUsage
	}
	item, err := a.items.Load(ctx, *id)
	if err != nil {
		return err
	}
	root, err := a.root(item.Root)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "item %s root=%s type=%s\n", item.ID, item.Root, item.Type)
	data, ok := a.handler.GetIndividualDataDirectly(item, item.Type, root)
	genome := data.GetCompound(savehandler.GenomeKey)
	if !ok || genome.IsEmpty() {
		_, _ = fmt.Fprintln(stdout, "no genetic data")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "format %s\n", a.handler.Dispatcher().DetectFormat(genome))
	chromosomes := a.handler.ReadTag(root.Karyotype, genome)
	for i, slot := range root.Karyotype.Slots() {
		c := chromosomes[i]
		if c == nil {
			_, _ = fmt.Fprintf(stdout, "  %-14s missing\n", slot.Name())
			continue
		}
		_, _ = fmt.Fprintf(stdout, "  %-14s %s | %s\n", slot.Name(), c.Active.Name(), c.Inactive.Name())
	}
	return nil
}

func runMigrate(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := newFlagSet("migrate", a.stderr)
	dryRun := fs.Bool("dry-run", false, "report items that would change without writing")
	verbose := fs.Bool("v", false, "print save counters after the run")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	ids, err := a.items.List(ctx)
	if err != nil {
		return err
	}
	target := a.handler.WriteFormat()
	changed := 0
	for _, id := range ids {
		item, err := a.items.Load(ctx, id)
		if err != nil {
			return err
		}
		root, err := a.root(item.Root)
		if err != nil {
			a.logger.Warn("item_skipped", "item", id, "error", err.Error())
			continue
		}
		if *dryRun {
			data, ok := a.handler.GetIndividualDataDirectly(item, item.Type, root)
			genome := data.GetCompound(savehandler.GenomeKey)
			if ok && !genome.IsEmpty() {
				if from := a.handler.Dispatcher().DetectFormat(genome); from != target {
					_, _ = fmt.Fprintf(stdout, "%s %s -> %s\n", id, from, target)
					changed++
				}
			}
			continue
		}
		ok, err := a.handler.Migrate(item, item.Type, root)
		if err != nil {
			return fmt.Errorf("item %s: %w", id, err)
		}
		if !ok {
			continue
		}
		if err := a.items.Save(ctx, item); err != nil {
			return err
		}
		changed++
	}
	verb := "migrated"
	if *dryRun {
		verb = "would migrate"
	}
	_, _ = fmt.Fprintf(stdout, "%s %d of %d items to %s\n", verb, changed, len(ids), target)
	if *verbose {
		return a.writeCounters(stdout)
	}
	return nil
}

func runSeed(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := newFlagSet("seed", a.stderr)
	count := fs.Int("count", 1, "number of items to create")
	rootUID := fs.String("root", "frog", "organism family")
	typ := fs.String("type", "adult", "organism type")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *count < 1 || strings.TrimSpace(*typ) == "" {
		_, _ = fmt.Fprintln(a.stderr, "seed: -count must be positive and -type non-empty")
		return errUsage
	}
	root, err := a.root(*rootUID)
	if err != nil {
		return err
	}
	genome, err := root.Karyotype.DefaultGenome()
	if err != nil {
		return err
	}
	for range *count {
		item := genetics.NewItem(uuid.NewString(), root.UID, genetics.OrganismType(*typ))
		if err := a.handler.WriteGenome(item, item.Type, root, genome); err != nil {
			return err
		}
		if err := a.items.Save(ctx, item); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, item.ID)
	}
	return nil
}
