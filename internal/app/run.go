package app

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/recipegrid/internal/ctxlog"
	"github.com/vk/recipegrid/internal/lint"
	"github.com/vk/recipegrid/internal/markdown"
	"github.com/vk/recipegrid/internal/number"
)

// LintFailure is returned by Run when lint mode finds problems.
type LintFailure struct {
	Count int
}

func (e *LintFailure) Error() string {
	return fmt.Sprintf("%d lint finding(s)", e.Count)
}

// Run executes the main application logic: compile the markdown document,
// then either report lint findings or write the rendered HTML page.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	source, err := os.ReadFile(a.config.InputPath)
	if err != nil {
		return fmt.Errorf("failed to read recipe: %w", err)
	}

	doc, err := markdown.Compile(ctx, string(source), a.registry)
	if err != nil {
		return fmt.Errorf("%s: %w", a.config.InputPath, err)
	}
	a.logger.Debug("Recipe document compiled.", "title", doc.Title, "servings", doc.Servings)

	if a.config.Lint {
		return a.runLint(doc)
	}

	scale, err := a.scaleFor(doc)
	if err != nil {
		return err
	}
	a.logger.Debug("Scaling factor determined.", "scale", scale.String())

	body, err := doc.Render(scale)
	if err != nil {
		return fmt.Errorf("failed to render recipe: %w", err)
	}

	page := standalonePage(doc.Title, body)
	return a.writeOutput(page)
}

// runLint checks every compiled recipe and prints the findings. Any finding
// makes the run fail so the exit status is useful in scripts.
func (a *App) runLint(doc *markdown.Document) error {
	count := 0
	for _, group := range doc.Recipes() {
		for _, finding := range lint.Check(group, a.registry) {
			count++
			fmt.Fprintf(a.outW, "%s: Warning: %s [%s]\n",
				a.config.InputPath, finding.Description, finding.Kind)
		}
	}
	a.logger.Debug("Lint checks complete.", "findings", count)
	if count > 0 {
		return &LintFailure{Count: count}
	}
	return nil
}

// scaleFor resolves the -servings flag against the serving count declared in
// the document title, falling back to the explicit scaling factor.
func (a *App) scaleFor(doc *markdown.Document) (number.Number, error) {
	if a.config.Servings == 0 {
		return a.config.Scale, nil
	}
	if doc.Servings == 0 {
		return number.Number{}, fmt.Errorf(
			"%s: cannot scale to %d servings: the recipe title does not declare a serving count",
			a.config.InputPath, a.config.Servings)
	}
	return number.FromFraction(int64(a.config.Servings), int64(doc.Servings)), nil
}

func (a *App) writeOutput(page string) error {
	if a.config.OutputPath == "-" {
		_, err := fmt.Fprint(a.outW, page)
		return err
	}

	path := a.config.OutputPath
	if path == "" {
		ext := filepath.Ext(a.config.InputPath)
		path = strings.TrimSuffix(a.config.InputPath, ext) + ".html"
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.logger.Debug("Output written.", "path", path)
	return nil
}

// standalonePage wraps a rendered recipe in a minimal self-contained HTML
// page with just enough styling to make the table layout readable.
func standalonePage(title, body string) string {
	if title == "" {
		title = "Recipe"
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	b.WriteString("<style>\n" + pageStyle + "</style>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

const pageStyle = `.rg-table { border-collapse: collapse; }
.rg-table td { border: 1px solid #888; padding: 0.3em 0.5em; }
.rg-table td.rg-border-left-none { border-left: none; }
.rg-table td.rg-border-right-none { border-right: none; }
.rg-table td.rg-border-top-none { border-top: none; }
.rg-table td.rg-border-bottom-none { border-bottom: none; }
.rg-table td.rg-border-left-sub-recipe { border-left: 2px solid #000; }
.rg-table td.rg-border-right-sub-recipe { border-right: 2px solid #000; }
.rg-table td.rg-border-top-sub-recipe { border-top: 2px solid #000; }
.rg-table td.rg-border-bottom-sub-recipe { border-bottom: 2px solid #000; }
.rg-sub-recipe-output-list { list-style: none; margin: 0; padding: 0; }
.rg-quantity-conversions { display: none; }
.rg-quantity-with-conversions:hover .rg-quantity-conversions,
.rg-quantity-with-conversions:focus .rg-quantity-conversions {
  display: block; position: absolute; background: #fff;
  border: 1px solid #888; padding: 0.2em 0.5em; list-style: none;
}
.rg-quantity-with-conversions { position: relative; text-decoration: underline dotted; }
`
