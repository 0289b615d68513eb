package output

import (
	"bytes"
	"io"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/taxcert/pkg/models"
)

// RenderMarkdown converts the HTML certificate of rec to GitHub-flavored
// Markdown.
func RenderMarkdown(w io.Writer, rec models.ParcelTaxRecord) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, rec); err != nil {
		return err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	// Flag delinquent parcels in bold; the class is lost in Markdown
	converter.AddRules(md.Rule{
		Filter: []string{"td"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			if !selec.HasClass("delinquent") {
				return nil
			}
			str := " **" + content + "** |"
			return &str
		},
	})
	converter.Remove("style", "title")

	mdStr, err := converter.ConvertString(buf.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, mdStr+"\n")
	return err
}
