// Package report renders the markdown index of emitted ValueSets.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"

	"github.com/gofhir/valuesets/pkg/emitter"
)

const header = "# Generated ValueSets\n\n" +
	"| Resource | Path | System | URL |\n" +
	"|----------|------|--------|-----|\n"

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// Render returns the markdown table listing infos in order.
func Render(infos []emitter.Info) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, info := range infos {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			cell(info.Resource), cell(info.Path), cell(info.System), cell(info.URL))
	}
	return sb.String()
}

func cell(s string) string {
	return cellEscaper.Replace(s)
}

// Write renders infos and stores the result at location, replacing any
// existing file. A nil fs uses afs.New().
func Write(ctx context.Context, fs afs.Service, location string, infos []emitter.Info) error {
	if fs == nil {
		fs = afs.New()
	}
	if err := fs.Upload(ctx, location, 0o644, strings.NewReader(Render(infos))); err != nil {
		return fmt.Errorf("failed to write report %s: %w", location, err)
	}
	return nil
}
