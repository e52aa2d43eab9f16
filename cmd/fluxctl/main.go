// Command fluxctl manages stored metabolic models and runs flux studies
// against them: import/export of model documents, validation, parsimonious
// flux optimization, and gene or reaction knockout studies.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/blob"
	"github.com/biosustain/consortia-synthetic-anaerobe/internal/core"
	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

const usage = `usage: fluxctl <command> [flags]

commands:
  import [-key <key>] [file]   validate and store a model document (JSON),
                               read from a file or from the blob store
  export [-o <file> | -key <key>] <model>
                               write the stored document to stdout, a file,
                               or the blob store
  list                 list stored models
  validate <model>     run validation rules against a stored model
  solve <model>        run parsimonious FBA, optionally with knockouts
  solutions <model>    list archived solutions for a model
`

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	logger := slogLogger{slog.New(slog.NewTextHandler(stderr, nil))}
	store, err := core.OpenPersistentStore()
	if err != nil {
		fmt.Fprintf(stderr, "fluxctl: open store: %v\n", err)
		return 1
	}
	svc := core.NewService(store, core.WithLogger(logger))
	ctx := context.Background()

	var runErr error
	switch args[0] {
	case "import":
		runErr = runImport(ctx, svc, args[1:], stdout, stderr)
	case "export":
		runErr = runExport(ctx, svc, args[1:], stdout, stderr)
	case "list":
		runErr = runList(ctx, svc, stdout)
	case "validate":
		runErr = runValidate(ctx, svc, args[1:], stdout, stderr)
	case "solve":
		runErr = runSolve(ctx, svc, args[1:], stdout, stderr)
	case "solutions":
		runErr = runSolutions(ctx, svc, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "fluxctl: unknown command %q\n%s", args[0], usage)
		return 2
	}
	if runErr != nil {
		if runErr == flag.ErrHelp {
			return 2
		}
		fmt.Fprintf(stderr, "fluxctl: %v\n", runErr)
		return 1
	}
	return 0
}

func runImport(ctx context.Context, svc *core.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	key := fs.String("key", "", "read the document from the blob store under this key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var doc metabolic.Document
	switch {
	case *key != "":
		if fs.NArg() != 0 {
			return fmt.Errorf("import takes a document file or -key, not both")
		}
		store, err := blob.Open(ctx)
		if err != nil {
			return err
		}
		doc, err = blob.GetDocument(ctx, store, *key)
		if err != nil {
			return err
		}
	case fs.NArg() == 1:
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		doc, err = metabolic.DecodeDocument(f)
		if err != nil {
			return fmt.Errorf("decode %s: %w", fs.Arg(0), err)
		}
	default:
		return fmt.Errorf("import expects a document file or -key")
	}
	record, err := svc.ImportModel(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported model %s (%d reactions, %d metabolites)\n",
		record.ID, len(record.Document.Reactions), len(record.Document.Metabolites))
	return nil
}

func runExport(ctx context.Context, svc *core.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "", "write the document to a file instead of stdout")
	key := fs.String("key", "", "store the document in the blob store under this key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("export expects exactly one model id")
	}
	doc, err := svc.ExportModel(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *key != "" {
		if *out != "" {
			return fmt.Errorf("choose either -o or -key, not both")
		}
		store, err := blob.Open(ctx)
		if err != nil {
			return err
		}
		info, err := blob.PutDocument(ctx, store, *key, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "stored %s (%d bytes)\n", info.Key, info.Size)
		return nil
	}
	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return metabolic.EncodeDocument(w, doc)
}

func runList(ctx context.Context, svc *core.Service, stdout io.Writer) error {
	for _, record := range svc.Store().ListModels(ctx) {
		fmt.Fprintf(stdout, "%s\t%s\t%d reactions\tupdated %s\n",
			record.ID, record.Name, len(record.Document.Reactions), record.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runValidate(ctx context.Context, svc *core.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("validate expects exactly one model id")
	}
	result, err := svc.Validate(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	for _, v := range result.Violations {
		fmt.Fprintf(stdout, "%s\t%s\t%s %s: %s\n", v.Severity, v.Rule, v.Kind, v.EntityID, v.Message)
	}
	if result.HasBlocking() {
		return fmt.Errorf("model has blocking violations")
	}
	fmt.Fprintf(stdout, "ok: %d advisory violation(s)\n", len(result.Violations))
	return nil
}

func runSolve(ctx context.Context, svc *core.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	genes := fs.String("genes", "", "comma-separated gene ids to knock out")
	reactions := fs.String("reactions", "", "comma-separated reaction ids to knock out")
	all := fs.Bool("all", false, "print every flux, not only nonzero ones")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("solve expects exactly one model id")
	}
	modelID := fs.Arg(0)
	geneIDs := splitList(*genes)
	reactionIDs := splitList(*reactions)

	var record metabolic.SolutionRecord
	var err error
	switch {
	case len(geneIDs) > 0 && len(reactionIDs) > 0:
		return fmt.Errorf("choose either -genes or -reactions, not both")
	case len(geneIDs) > 0:
		record, err = svc.GeneKnockout(ctx, modelID, geneIDs)
	case len(reactionIDs) > 0:
		record, err = svc.ReactionKnockout(ctx, modelID, reactionIDs)
	default:
		record, err = svc.Optimize(ctx, modelID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "solution %s\tstatus=%s\tobjective=%g\n", record.ID, record.Status, record.Objective)
	if record.Status != metabolic.StatusOptimal {
		return nil
	}
	for _, id := range fluxIDs(record.Fluxes, *all, svc.ZeroTolerance()) {
		fmt.Fprintf(stdout, "%s\t%g\n", id, record.Fluxes[id])
	}
	return nil
}

// fluxIDs selects which fluxes to print. Solver residuals below eps count as
// zero; the values themselves are printed unrounded.
func fluxIDs(fluxes map[string]float64, all bool, eps float64) []string {
	if all {
		ids := make([]string, 0, len(fluxes))
		for id := range fluxes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return ids
	}
	return metabolic.Solution{Fluxes: fluxes}.Nonzero(eps)
}

func runSolutions(ctx context.Context, svc *core.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("solutions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("solutions expects exactly one model id")
	}
	for _, record := range svc.ListSolutions(ctx, fs.Arg(0)) {
		perturbation := "none"
		switch {
		case len(record.KnockedGenes) > 0:
			perturbation = "genes " + strings.Join(record.KnockedGenes, ",")
		case len(record.KnockedReactions) > 0:
			perturbation = "reactions " + strings.Join(record.KnockedReactions, ",")
		}
		fmt.Fprintf(stdout, "%s\t%s\tstatus=%s\tobjective=%g\t%s\n",
			record.CreatedAt.Format("2006-01-02 15:04:05"), record.ID, record.Status, record.Objective, perturbation)
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// slogLogger adapts slog to the service logging surface.
type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
