package sources

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"banketl/internal/etl"
)

// ── HTML Table Source ───────────────────────────────────────
// Extracts (name, market cap) rows from the first table body of a web page
// or a saved HTML snapshot.

// rowCells is the number of data cells an accepted row carries:
// rank, name, market cap.
const rowCells = 3

type htmlTableSource struct{}

func init() { etl.RegisterSource(&htmlTableSource{}) }

func (s *htmlTableSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "html_table",
		Label: "HTML Table",
		ConfigFields: []etl.ConfigField{
			{Key: "url", Label: "URL", Help: "Page to fetch; ignored when path is set"},
			{Key: "path", Label: "File Path", Help: "Local HTML snapshot to read instead of fetching"},
			{Key: "timeout", Label: "Timeout", Default: DefaultTimeout.String(), Help: "Fetch timeout (e.g. 10s)"},
		},
	}
}

func (s *htmlTableSource) Read(ctx context.Context, cfg etl.SourceConfig, columns []string) (*etl.Table, error) {
	doc, err := loadHTML(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ExtractHTMLTable(doc, columns)
}

func loadHTML(ctx context.Context, cfg etl.SourceConfig) ([]byte, error) {
	if path, _ := cfg["path"].(string); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read html snapshot: %v", etl.ErrIO, err)
		}
		return data, nil
	}

	url, _ := cfg["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("html_table: url or path is required")
	}
	timeout, err := timeoutFrom(cfg)
	if err != nil {
		return nil, fmt.Errorf("html_table: %w", err)
	}
	return fetcher.Fetch(ctx, url, timeout)
}

// ExtractHTMLTable parses the rows of the first <tbody> in doc into a
// two-column (Name, MC_USD_Billion) table. Rows with
// exactly three <td> cells become records (cell 2 is the name, cell 3 the
// market cap); every other row is skipped without error. A market cap that
// does not parse as a non-negative number fails the whole extraction.
func ExtractHTMLTable(doc []byte, columns []string) (*etl.Table, error) {
	if len(columns) != 2 || columns[0] != etl.ColumnName || columns[1] != etl.ColumnUSD {
		return nil, fmt.Errorf("%w: html table yields exactly %s, %s; got %v", etl.ErrMissingColumn, etl.ColumnName, etl.ColumnUSD, columns)
	}

	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", etl.ErrParse, err)
	}
	tbody := findFirst(root, atom.Tbody)
	if tbody == nil {
		return nil, fmt.Errorf("%w: no table body found", etl.ErrParse)
	}

	table := etl.NewTable(columns)
	for i, tr := range findAll(tbody, atom.Tr) {
		cells := dataCells(tr)
		if len(cells) != rowCells {
			continue
		}

		name := strings.TrimSpace(textContent(cells[1]))
		if name == "" {
			return nil, fmt.Errorf("%w: row %d: empty name", etl.ErrParse, i+1)
		}
		raw := strings.TrimSpace(textContent(cells[2]))
		mc, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(mc) || math.IsInf(mc, 0) {
			return nil, fmt.Errorf("%w: row %d: market cap %q is not a number", etl.ErrParse, i+1, raw)
		}
		if mc < 0 {
			return nil, fmt.Errorf("%w: row %d: negative market cap %v", etl.ErrParse, i+1, mc)
		}
		table.Append(name, mc)
	}
	return table, nil
}

// findFirst returns the first element with the given tag in document order.
func findFirst(n *html.Node, tag atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant element with the given tag, in order.
func findAll(n *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			out = append(out, c)
		}
		out = append(out, findAll(c, tag)...)
	}
	return out
}

// dataCells returns the <td> children of a row; <th> cells are not counted.
func dataCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			cells = append(cells, c)
		}
	}
	return cells
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
