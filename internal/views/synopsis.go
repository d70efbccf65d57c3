package views

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/refresh"
)

// ErrNotPDF is returned when a synopsis upload is not a PDF file.
var ErrNotPDF = errors.New("please select a PDF file")

// SynopsisPage lists the student's synopses and uploads new ones.
type SynopsisPage struct {
	page
	Synopses []models.Synopsis
}

// OpenSynopsis guards and loads the synopsis view.
func (e *Env) OpenSynopsis(ctx context.Context) *SynopsisPage {
	p := &SynopsisPage{page: e.newPage(ctx, "synopsis", auth.ScopeUser)}
	p.open("Failed to load synopsis", p.load)
	return p
}

func (p *SynopsisPage) load(ctx context.Context) error {
	items, err := p.env.API.MySynopses(ctx)
	if err != nil {
		return err
	}
	p.view.Apply(func() { p.Synopses = items })
	return nil
}

// Upload sends a PDF synopsis and reloads the list.
func (p *SynopsisPage) Upload(filename string, content io.Reader) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name: "upload synopsis",
		Do: func(ctx context.Context) error {
			if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
				return ErrNotPDF
			}
			_, err := p.env.API.UploadSynopsis(ctx, filepath.Base(filename), content)
			return err
		},
		Success: "Synopsis uploaded successfully!",
		Failure: "Failed to upload synopsis",
		Refresh: []refresh.Refresher{{Name: "synopsis", Fetch: p.load}},
	})
}
