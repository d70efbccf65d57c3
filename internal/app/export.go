package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/archive"
	"github.com/tyforge/client/internal/views"
)

const exportTimeout = 2 * time.Minute

func (c *cli) export(ctx context.Context, args []string) error {
	verb, rest := sub(args, "")
	if verb != "projects" {
		return fmt.Errorf("export: expected \"projects\", got %q", verb)
	}

	fs := c.flags("export projects")
	users := fs.String("users", "", "comma separated student ids; default every student with an uploaded archive")
	timeout := fs.Duration("timeout", exportTimeout, "limit per archive")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenStudents(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	ids := splitIDs(*users)
	if len(ids) == 0 {
		ids = withArchive(p.Students)
	}
	if len(ids) == 0 {
		d.Reporter.Info("No project archives to export")
		return nil
	}

	sink, err := archiveStorage(ctx, c.cfg.Export)
	if err != nil {
		return err
	}

	exporter := archive.NewExporter(d.API, sink, archive.Config{
		QueueSize: c.cfg.Export.QueueSize,
		Workers:   c.cfg.Export.Workers,
		Timeout:   *timeout,
	}, c.logger)

	results, err := archive.ExportAll(ctx, exporter, ids)
	if renderErr := c.renderExports(results); renderErr != nil {
		return renderErr
	}
	if err != nil {
		return err
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d exports failed", failed, len(results))
	}
	d.Reporter.Success(fmt.Sprintf("Exported %d project archives", len(results)))
	return nil
}

func (c *cli) renderExports(results []archive.Result) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tFILE\tSIZE\tLOCATION")
	for _, r := range results {
		location := r.Location
		if r.Err != nil {
			location = "error: " + exportError(r.Err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.UserID, r.Filename, humanize.Bytes(uint64(r.Size)), location)
	}
	return tw.Flush()
}

// exportError prefers the backend's own explanation.
func exportError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}

// withArchive returns the students that have an uploaded project file.
func withArchive(students []views.Student) []string {
	var ids []string
	for _, s := range students {
		if s.User.IsAdmin {
			continue
		}
		for _, p := range s.Projects {
			if p.ProjectFilePath != "" {
				ids = append(ids, s.User.ID)
				break
			}
		}
	}
	return ids
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
