package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/CageChen/fileexplorer/internal/explorer"
	"github.com/CageChen/fileexplorer/internal/filter"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewLsCommand creates and returns the ls subcommand
func NewLsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a directory through the visitor",
		Long: `List one directory, relative to the root, the way the web UI does:
directories first, dot-files hidden unless --show-hidden, exclude patterns
applied. With --events every visitor notification is printed as it happens.

Examples:
  fileexplorer ls
  fileexplorer ls docs --ext md
  fileexplorer ls --name test --hide-dirs --depth 3
  fileexplorer ls --recent 7 --min-size 1000 --events`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLs,
	}

	cmd.Flags().String("name", "", "Only show entries whose name contains this text")
	cmd.Flags().String("ext", "", "Only show files with this extension")
	cmd.Flags().Bool("hide-dirs", false, "Hide directories")
	cmd.Flags().Bool("hide-files", false, "Hide files")
	cmd.Flags().Int("depth", 1, "List subdirectories up to this many levels")
	cmd.Flags().Bool("events", false, "Print visitor notifications")

	return cmd
}

func runLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fsys, err := openFS(cfg)
	if err != nil {
		return err
	}
	custom, err := customOptions(cfg, fsys)
	if err != nil {
		return err
	}

	var criteria filter.Criteria
	criteria.Name, _ = cmd.Flags().GetString("name")
	criteria.Extension, _ = cmd.Flags().GetString("ext")
	criteria.HideDirectories, _ = cmd.Flags().GetBool("hide-dirs")
	criteria.HideFiles, _ = cmd.Flags().GetBool("hide-files")
	depth, _ := cmd.Flags().GetInt("depth")
	events, _ := cmd.Flags().GetBool("events")

	p := newPrinter(cmd.OutOrStdout())
	x := explorer.New(fsys, explorer.Options{
		Custom:     custom.Build(time.Now()),
		ShowHidden: cfg.ShowHidden,
		Exclude:    cfg.ExcludePatterns(),
		MaxItems:   cfg.MaxItems,
	})
	if events {
		x.Subscribe(p.event)
	}

	var dir string
	if len(args) == 1 {
		dir = args[0]
	}
	if err := x.SetPath(dir); err != nil {
		return fmt.Errorf("cannot list %q: %w", dir, err)
	}
	x.SetCriteria(criteria)

	if depth > 1 {
		nodes, errs := x.Tree(depth)
		p.nodes(nodes)
		if len(errs) > 0 {
			return fmt.Errorf("%d directory listing(s) failed: %s", len(errs), strings.Join(errs, "; "))
		}
		return nil
	}

	listing := x.Load()
	p.listing(listing)
	if listing.Error != "" {
		return errors.New(listing.Error)
	}
	return nil
}

// printer writes listings and events, colored when the output is a terminal.
type printer struct {
	out      io.Writer
	dir      *color.Color
	found    *color.Color
	filtered *color.Color
	info     *color.Color
	fail     *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		out:      w,
		dir:      color.New(color.FgBlue, color.Bold),
		found:    color.New(color.FgGreen),
		filtered: color.New(color.FgYellow),
		info:     color.New(color.FgCyan),
		fail:     color.New(color.FgRed),
	}
	if !colorEnabled(w) {
		for _, c := range []*color.Color{p.dir, p.found, p.filtered, p.info, p.fail} {
			c.DisableColor()
		}
	}
	return p
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) event(ev explorer.Event) {
	var c *color.Color
	switch ev.Type {
	case explorer.EventFileFound, explorer.EventDirectoryFound:
		c = p.found
	case explorer.EventFilteredFileFound, explorer.EventFilteredDirectoryFound:
		c = p.filtered
	case explorer.EventError:
		c = p.fail
	default:
		c = p.info
	}
	_, _ = c.Fprintf(p.out, "%s %s\n", ev.Time.Format("15:04:05"), ev.Message())
}

func (p *printer) listing(l explorer.Listing) {
	for _, it := range l.Items {
		if it.IsDirectory {
			_, _ = p.dir.Fprintln(p.out, it.Name+"/")
			continue
		}
		fmt.Fprintf(p.out, "%s  %s\n", it.Name, formatSize(it.Size))
	}

	summary := fmt.Sprintf("%d item(s) in /%s", len(l.Items), l.Path)
	switch {
	case l.Error != "":
		_, _ = p.fail.Fprintln(p.out, summary+", listing failed")
	case l.Cancelled:
		_, _ = p.info.Fprintln(p.out, summary+", stopped at limit")
	default:
		_, _ = p.info.Fprintln(p.out, summary)
	}
}

func (p *printer) nodes(nodes []*explorer.Node) {
	for _, n := range nodes {
		indent := strings.Repeat("  ", n.Depth-1)
		if n.Entry.IsDir() {
			_, _ = p.dir.Fprintln(p.out, indent+n.Entry.Name+"/")
			p.nodes(n.Children)
			continue
		}
		fmt.Fprintf(p.out, "%s%s  %s\n", indent, n.Entry.Name, formatSize(n.Entry.Size))
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
