package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/atspi"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/walker"
)

// SnapshotResult is the top-level output of the `snapshot` command and
// MCP tool: every element of an application's subtree that the
// accessibility layer reports as showing, with its current geometry.
type SnapshotResult struct {
	App      string          `yaml:"app"      json:"app"`
	TS       int64           `yaml:"ts"       json:"ts"`
	Count    int             `yaml:"count"    json:"count"`
	Elements []model.Element `yaml:"elements" json:"elements"`
}

// findApplication matches a running application by name: exact
// (case-insensitive) first, then unique substring.
func findApplication(apps []atspi.Application, query string) (atspi.Application, error) {
	for _, app := range apps {
		if strings.EqualFold(app.Name, query) {
			return app, nil
		}
	}

	var matches []atspi.Application
	q := strings.ToLower(query)
	for _, app := range apps {
		if strings.Contains(strings.ToLower(app.Name), q) {
			matches = append(matches, app)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		var names []string
		for _, m := range matches {
			names = append(names, m.Name)
		}
		return atspi.Application{}, fmt.Errorf("ambiguous app %q: matches %s", query, strings.Join(names, ", "))
	}

	var names []string
	for _, app := range apps {
		if app.Name != "" {
			names = append(names, app.Name)
		}
	}
	return atspi.Application{}, fmt.Errorf("no application matches %q (running: %s)", query, strings.Join(names, ", "))
}

// buildSnapshot walks one application's subtree and resolves role, name,
// and geometry for every visible element. Per-element query failures
// skip that element only.
func buildSnapshot(ctx context.Context, sess *atspi.Session, log *slog.Logger, appQuery string) (SnapshotResult, error) {
	apps, err := sess.Applications(ctx)
	if err != nil {
		return SnapshotResult{}, err
	}
	app, err := findApplication(apps, appQuery)
	if err != nil {
		return SnapshotResult{}, err
	}

	set, err := walker.New(sess, log).Walk(ctx, app.Ref)
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("walk %s: %w", app.Name, err)
	}

	elements := make([]model.Element, 0, len(set))
	for _, ref := range set {
		box, err := sess.Extents(ctx, ref)
		if err != nil {
			log.Debug("skipping element: no geometry", "ref", ref.String(), "error", err)
			continue
		}
		el := model.Element{
			Bounds: [4]int{int(box.X), int(box.Y), int(box.Width), int(box.Height)},
		}
		if role, err := sess.RoleName(ctx, ref); err == nil {
			el.Role = role
		}
		if name, err := sess.Name(ref); err == nil {
			el.Name = name
		}
		elements = append(elements, el)
	}

	return SnapshotResult{
		App:      app.Name,
		TS:       time.Now().Unix(),
		Count:    len(elements),
		Elements: elements,
	}, nil
}
