package report

import (
	"context"
	"strings"
)

// RenderReportHTML renders the report page for the loaded runs.
func RenderReportHTML(ctx context.Context, runs []Run) (string, error) {
	var builder strings.Builder
	if err := ReportPage(runs).Render(ctx, &builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}
