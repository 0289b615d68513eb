package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/taxcert/pkg/models"
)

// Formats lists the file extensions Save understands.
var Formats = []string{".json", ".csv", ".html", ".md"}

// Save writes recs to path in the format named by its extension. HTML and
// Markdown hold exactly one record.
func Save(path string, recs ...models.ParcelTaxRecord) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".csv":
	case ".html", ".htm", ".md":
		if len(recs) != 1 {
			return fmt.Errorf("%s output holds a single record, got %d", ext, len(recs))
		}
	default:
		return fmt.Errorf("unsupported output format %q (use one of %s)", ext, strings.Join(Formats, ", "))
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext {
	case ".json":
		err = WriteJSON(file, recs...)
	case ".csv":
		err = WriteCSV(file, recs...)
	case ".html", ".htm":
		err = RenderHTML(file, recs[0])
	case ".md":
		err = RenderMarkdown(file, recs[0])
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
