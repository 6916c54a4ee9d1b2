package coverage

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mgomes/quill/quill"
)

type xmlAggregate struct {
	Total    int    `xml:"total-statements,attr"`
	Covered  int    `xml:"covered-statements,attr"`
	Coverage string `xml:"coverage,attr"`
}

type xmlReport struct {
	XMLName xml.Name `xml:"coverage"`
	xmlAggregate
	Classes []xmlClass `xml:"class"`
}

type xmlClass struct {
	Name   string `xml:"name,attr"`
	Source string `xml:"source,attr,omitempty"`
	Line   int    `xml:"line,attr"`
	Column int    `xml:"column,attr"`
	xmlAggregate
	Methods []xmlMethod `xml:"method"`
}

type xmlMethod struct {
	Name   string `xml:"name,attr"`
	Arity  int    `xml:"arity,attr"`
	Line   int    `xml:"line,attr"`
	Column int    `xml:"column,attr"`
	xmlAggregate
	Statements []xmlStatement `xml:"statement"`
}

type xmlStatement struct {
	Line   int `xml:"line,attr"`
	Column int `xml:"column,attr"`
	Visits int `xml:"visits,attr"`
}

func aggregate(total, covered int) xmlAggregate {
	return xmlAggregate{
		Total:    total,
		Covered:  covered,
		Coverage: FormatPercentage(Percentage(covered, total)),
	}
}

// FormatPercentage renders the coverage attribute, e.g. "33%".
func FormatPercentage(pct int) string {
	return strconv.Itoa(pct) + "%"
}

// WriteXML serializes the report as an indented XML document.
func (r *Report) WriteXML(w io.Writer) error {
	doc := xmlReport{xmlAggregate: aggregate(r.Totals())}
	for _, class := range r.Classes {
		xc := xmlClass{
			Name:         class.Name,
			Source:       class.Source,
			Line:         class.Pos.Line,
			Column:       class.Pos.Column,
			xmlAggregate: aggregate(class.Totals()),
		}
		for _, method := range class.Methods {
			xm := xmlMethod{
				Name:         method.Name,
				Arity:        method.Arity,
				Line:         method.Pos.Line,
				Column:       method.Pos.Column,
				xmlAggregate: aggregate(method.Totals()),
			}
			for _, stmt := range method.Statements {
				xm.Statements = append(xm.Statements, xmlStatement{Line: stmt.Pos.Line, Column: stmt.Pos.Column, Visits: stmt.Visits})
			}
			xc.Methods = append(xc.Methods, xm)
		}
		doc.Classes = append(doc.Classes, xc)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode coverage: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Decode reads a document produced by WriteXML. Aggregate attributes are
// recomputed from statement visits rather than trusted.
func Decode(r io.Reader) (*Report, error) {
	var doc xmlReport
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode coverage: %w", err)
	}
	if !strings.HasSuffix(doc.Coverage, "%") {
		return nil, fmt.Errorf("decode coverage: malformed coverage attribute %q", doc.Coverage)
	}

	report := &Report{}
	for _, xc := range doc.Classes {
		class := &Class{Name: xc.Name, Source: xc.Source, Pos: quill.Position{Line: xc.Line, Column: xc.Column}}
		for _, xm := range xc.Methods {
			method := &Method{Name: xm.Name, Arity: xm.Arity, Pos: quill.Position{Line: xm.Line, Column: xm.Column}}
			for _, xs := range xm.Statements {
				method.Statements = append(method.Statements, &Statement{
					Pos:    quill.Position{Line: xs.Line, Column: xs.Column},
					Visits: xs.Visits,
				})
			}
			class.Methods = append(class.Methods, method)
		}
		report.Classes = append(report.Classes, class)
	}
	if err := report.reindex(); err != nil {
		return nil, fmt.Errorf("decode coverage: %w", err)
	}
	return report, nil
}
