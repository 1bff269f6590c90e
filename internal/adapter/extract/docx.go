package extract

import (
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxBreak        = regexp.MustCompile(`<w:(br|cr)\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	docxTag          = regexp.MustCompile(`<[^>]*>`)
)

// Docx returns the body text of a Word document, one line per paragraph.
func Docx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return docxText(r.Editable().GetContent()), nil
}

func docxText(xml string) string {
	s := docxParagraphEnd.ReplaceAllString(xml, "\n")
	s = docxBreak.ReplaceAllString(s, "\n")
	s = docxTab.ReplaceAllString(s, "\t")
	s = docxTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
