package views

import (
	"context"
	"fmt"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/blob"
	"github.com/tyforge/client/internal/models"
)

// MyProjects is the student's project list with the plan that covers it.
type MyProjects struct {
	User     models.User
	Projects []models.Project
	Orders   []models.Order
}

// PaidPlan returns the first order whose payment is on record ("paid" or
// "completed").
func (m MyProjects) PaidPlan() (models.Order, bool) {
	return models.FirstPaidOrder(m.Orders)
}

// CanDownload reports whether the archive of project is offered for download.
func (m MyProjects) CanDownload(project models.Project) bool {
	_, paid := m.PaidPlan()
	return paid && project.URLApproved
}

// ProjectsPage is the guarded "my projects" view.
type ProjectsPage struct {
	page
	Data MyProjects
}

// OpenProjects guards and loads the student's projects.
func (e *Env) OpenProjects(ctx context.Context) *ProjectsPage {
	p := &ProjectsPage{page: e.newPage(ctx, "my-projects", auth.ScopeUser)}
	p.open("Failed to load projects", p.reload)
	return p
}

func (p *ProjectsPage) reload(ctx context.Context) error {
	user, err := p.env.API.Me(ctx, auth.ScopeUser)
	if err != nil {
		return err
	}
	projects, err := p.env.API.MyProjects(ctx)
	if err != nil {
		return err
	}
	orders, err := orEmpty(ctx, "orders", p.env.API.MyOrders)
	if err != nil {
		return err
	}
	p.view.Apply(func() {
		p.Data = MyProjects{User: user, Projects: projects, Orders: orders}
	})
	return nil
}

// DownloadArchive fetches the student's project archive and saves it into dir
// under the server-supplied filename. The temp blob is released before return.
func (p *ProjectsPage) DownloadArchive(dir string) (string, error) {
	archive, err := p.env.API.DownloadProjectArchive(p.ctx(), auth.ScopeUser, p.Data.User.ID)
	if err != nil {
		return "", p.fail(err, "Failed to download project")
	}
	path, err := saveBlob(p.view.Blobs(), archive, dir)
	if err != nil {
		return "", p.fail(err, "Failed to save project")
	}
	p.env.Reporter.Success(fmt.Sprintf("Project downloaded to %s", path))
	return path, nil
}

// DownloadBlackbook fetches the final report into dir.
func (p *ProjectsPage) DownloadBlackbook(dir string) (string, error) {
	report, err := p.env.API.DownloadBlackbook(p.ctx())
	if err != nil {
		return "", p.fail(err, "Failed to download blackbook")
	}
	path, err := saveBlob(p.view.Blobs(), report, dir)
	if err != nil {
		return "", p.fail(err, "Failed to save blackbook")
	}
	return path, nil
}

func saveBlob(scope *blob.Scope, b api.Blob, dir string) (string, error) {
	h, err := scope.Acquire(b)
	if err != nil {
		return "", err
	}
	defer h.Release()
	return h.SaveAs(dir)
}
