package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// WriteJUnit writes the report as JUnit XML:
//
//	<testsuites tests failures>
//	  <testsuite name tests failures>
//	    <testcase name classname>
//	      <failure message>text</failure>
//
// Output is indented by two spaces and ends with a newline.
func WriteJUnit(w io.Writer, r *Report) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	cases, failures := r.Totals()
	root := doc.CreateElement("testsuites")
	root.CreateAttr("tests", strconv.Itoa(cases))
	root.CreateAttr("failures", strconv.Itoa(failures))

	for _, s := range r.Suites {
		ts := root.CreateElement("testsuite")
		ts.CreateAttr("name", s.Name)
		ts.CreateAttr("tests", strconv.Itoa(len(s.Cases)))
		ts.CreateAttr("failures", strconv.Itoa(s.Failures()))
		for _, c := range s.Cases {
			tc := ts.CreateElement("testcase")
			tc.CreateAttr("name", c.Name)
			tc.CreateAttr("classname", s.Name)
			if c.Failure != nil {
				f := tc.CreateElement("failure")
				f.CreateAttr("message", c.Failure.Message)
				f.SetText(c.Failure.Message)
			}
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return fmt.Errorf("write junit: %w", err)
	}
	if _, err := io.WriteString(w, strings.TrimRight(out, "\n")+"\n"); err != nil {
		return fmt.Errorf("write junit: %w", err)
	}
	return nil
}

// ParseJUnit reads a report written by WriteJUnit. Run ids are not part of
// the XML and come back empty.
func ParseJUnit(rd io.Reader) (*Report, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(rd); err != nil {
		return nil, fmt.Errorf("parse junit: %w", err)
	}
	root := doc.SelectElement("testsuites")
	if root == nil {
		return nil, fmt.Errorf("parse junit: missing <testsuites> element")
	}

	r := &Report{}
	for _, ts := range root.SelectElements("testsuite") {
		s := NewSuite(ts.SelectAttrValue("name", ""), "")
		for _, tc := range ts.SelectElements("testcase") {
			name := tc.SelectAttrValue("name", "")
			if f := tc.SelectElement("failure"); f != nil {
				msg := f.Text()
				if msg == "" {
					msg = f.SelectAttrValue("message", "")
				}
				s.Fail(name, msg)
				continue
			}
			s.Pass(name)
		}
		r.Add(s)
	}
	return r, nil
}
