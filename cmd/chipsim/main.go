// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command chipsim evaluates NAND based chip definitions.
//
//	chipsim [flags] serve [-listen addr]
//	chipsim [flags] table NAME
//	chipsim [flags] list
//	chipsim [flags] import FILE...
//	chipsim [flags] export [NAME...]
//
// Configuration is read from the environment (see internal/config) and
// overridden by flags.
//
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/db47h/chipsim"
	"github.com/db47h/chipsim/catalog"
	"github.com/db47h/chipsim/catalog/bolt"
	"github.com/db47h/chipsim/chiplib"
	"github.com/db47h/chipsim/internal/config"
	"github.com/db47h/chipsim/internal/wsapi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maximum input count for truth tables
const maxTableInputs = 12

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] command [args]

Commands:
  serve [-listen addr]  serve WebSocket sessions
  table NAME            print the truth table of a chip
  list                  list definitions
  import FILE...        add definitions from YAML files
  export [NAME...]      write definitions as YAML

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	flag.Usage = usage
	flag.StringVar(&cfg.DB, "db", cfg.DB, "definition database `file`; empty for an in-memory store")
	flag.StringVar(&cfg.Defs, "defs", cfg.Defs, "`directory` of additional read-only YAML definitions")
	flag.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log `level`")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := cfg.Level()
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(lvl)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cat, closer, err := openCatalog(ctx, cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	defer closer()

	args := flag.Args()[1:]
	switch cmd := flag.Arg(0); cmd {
	case "serve":
		err = serve(ctx, cat, cfg, log, args)
	case "table":
		err = table(cat, args)
	case "list":
		err = list(cat)
	case "import":
		err = importFiles(ctx, cat, args)
	case "export":
		err = export(cat, args)
	default:
		err = errors.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		closer()
		log.Fatalf("%+v", err)
	}
}

func openCatalog(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*catalog.Catalog, func(), error) {
	builtins := chiplib.Builtins()
	if cfg.Defs != "" {
		ds, err := catalog.LoadYAMLDir(cfg.Defs)
		if err != nil {
			return nil, nil, err
		}
		builtins = append(builtins, ds...)
		log.WithFields(logrus.Fields{"dir": cfg.Defs, "count": len(ds)}).Info("definitions loaded")
	}

	opts := []catalog.Option{catalog.WithLogger(log)}
	closer := func() {}
	if cfg.DB != "" {
		s := bolt.NewStorage(cfg.DB)
		s.Log = log
		if err := s.Open(ctx); err != nil {
			return nil, nil, err
		}
		closer = func() {
			if err := s.Close(); err != nil {
				log.WithError(err).Error("close database")
			}
		}
		opts = append(opts, catalog.WithPersister(s))
	}
	cat := catalog.New(builtins, opts...)
	if err := cat.Open(ctx); err != nil {
		closer()
		return nil, nil, err
	}
	return cat, closer, nil
}

func serve(ctx context.Context, cat *catalog.Catalog, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "listen `address`")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return wsapi.New(cat, log).ListenAndServe(ctx, cfg.Listen)
}

func table(cat *catalog.Catalog, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: table NAME")
	}
	c, err := chipsim.BuildNamed(cat.Snapshot(), args[0])
	if err != nil {
		return err
	}
	ins, outs := c.Inputs(), c.Outputs()
	if len(ins) > maxTableInputs {
		return errors.Errorf("%s: too many inputs (%d)", args[0], len(ins))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 1, ' ', 0)
	fmt.Fprintf(w, "%s\t|\t%s\n", strings.Join(ins, "\t"), strings.Join(outs, "\t"))
	in := make(map[string]bool, len(ins))
	for n := 0; n < 1<<uint(len(ins)); n++ {
		row := make([]string, 0, len(ins))
		for i, id := range ins {
			v := n&(1<<uint(len(ins)-i-1)) != 0
			in[id] = v
			row = append(row, bit(v))
		}
		out, err := c.Eval(in)
		if err != nil {
			return err
		}
		orow := make([]string, 0, len(outs))
		for _, id := range outs {
			orow = append(orow, bit(out[id]))
		}
		fmt.Fprintf(w, "%s\t|\t%s\n", strings.Join(row, "\t"), strings.Join(orow, "\t"))
	}
	return w.Flush()
}

func bit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func list(cat *catalog.Catalog) error {
	snap := cat.Snapshot()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tINPUTS\tOUTPUTS\tNANDS\tSTORE")
	for _, d := range cat.List() {
		nands := "-"
		if c, err := chipsim.Build(d, snap); err == nil {
			nands = fmt.Sprint(c.Stats().Nands)
		}
		store := "saved"
		if cat.Builtin(d.ID) {
			store = "builtin"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", d.Name, d.ID,
			strings.Join(ids(d.Inputs()), ","), strings.Join(ids(d.Outputs()), ","), nands, store)
	}
	return w.Flush()
}

func ids(ps []chipsim.Port) []string {
	s := make([]string, len(ps))
	for i := range ps {
		s[i] = ps[i].ID
	}
	return s
}

func importFiles(ctx context.Context, cat *catalog.Catalog, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: import FILE...")
	}
	for _, name := range args {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		ds, err := catalog.LoadYAML(f)
		f.Close()
		if err != nil {
			return errors.Wrap(err, name)
		}
		for _, d := range ds {
			// ids in YAML files default to the name; let the catalog assign one.
			if d.ID == d.Name {
				d.ID = ""
			}
			nd, err := cat.Add(ctx, d)
			if err != nil {
				return errors.Wrap(err, name)
			}
			fmt.Printf("%s\t%s\n", nd.Name, nd.ID)
		}
	}
	return nil
}

func export(cat *catalog.Catalog, args []string) error {
	var ds []*chipsim.Definition
	if len(args) == 0 {
		ds = cat.List()
	}
	for _, name := range args {
		d, err := cat.GetByName(name)
		if err != nil {
			return err
		}
		ds = append(ds, d)
	}
	return catalog.WriteYAML(os.Stdout, ds...)
}
