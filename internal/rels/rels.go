// Package rels reads and writes OPC relationship parts (.rels) and resolves
// relationship targets to part names.
//
// Part names are absolute, slash-separated and case-preserving, as in the
// content-type manifest: "/xl/workbook.xml".  The package root is "/".
package rels

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Namespace is the XML namespace of relationship parts.
const Namespace = "http://schemas.openxmlformats.org/package/2006/relationships"

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

// External is the TargetMode of a relationship pointing outside the package.
const External = "External"

// Relationship is one entry in a .rels part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// IsExternal reports whether the target is outside the package.
func (r Relationship) IsExternal() bool { return r.TargetMode == External }

type document struct {
	XMLName       xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Relationships []Relationship `xml:"Relationship"`
}

// List is the relationship table of one source part, in document order.
type List []Relationship

// Parse decodes a .rels part.  Duplicate or empty IDs are an error, since
// r:id lookups must resolve to exactly one entry.
func Parse(data []byte) (List, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rels XML: %w", err)
	}
	seen := make(map[string]bool, len(doc.Relationships))
	for _, r := range doc.Relationships {
		if r.ID == "" {
			return nil, fmt.Errorf("parse rels XML: relationship without Id (target %q)", r.Target)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("parse rels XML: duplicate relationship Id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return List(doc.Relationships), nil
}

// Marshal encodes the list as a .rels part.
func (l List) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	b, err := xml.Marshal(document{Relationships: l})
	if err != nil {
		return nil, fmt.Errorf("marshal rels XML: %w", err)
	}
	buf.Write(b)
	return buf.Bytes(), nil
}

// Contains reports whether id names an entry.
func (l List) Contains(id string) bool {
	_, ok := l.ByID(id)
	return ok
}

// ByID returns the entry with the given ID.
func (l List) ByID(id string) (Relationship, bool) {
	for _, r := range l {
		if r.ID == id {
			return r, true
		}
	}
	return Relationship{}, false
}

// ByType returns the entries of the given relationship type.
func (l List) ByType(typ string) List {
	var out List
	for _, r := range l {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

// NextID returns the first "rIdN" not used in the list.
func (l List) NextID() string {
	for n := len(l) + 1; ; n++ {
		id := "rId" + strconv.Itoa(n)
		if !l.Contains(id) {
			return id
		}
	}
}

// Without returns the list minus the entries whose internal target resolves
// to part.
func (l List) Without(source, part string) List {
	var out List
	for _, r := range l {
		if !r.IsExternal() && Resolve(source, r.Target) == part {
			continue
		}
		out = append(out, r)
	}
	return out
}

// PartName returns the name of the .rels part for source:
// "/xl/workbook.xml" → "/xl/_rels/workbook.xml.rels", "/" → "/_rels/.rels".
func PartName(source string) string {
	if source == "/" || source == "" {
		return "/_rels/.rels"
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// SourceOf is the inverse of PartName.  It reports false for names that are
// not relationship parts.
func SourceOf(relsPart string) (string, bool) {
	dir, file := path.Split(relsPart)
	if !strings.HasSuffix(dir, "/_rels/") || !strings.HasSuffix(file, ".rels") {
		return "", false
	}
	base := strings.TrimSuffix(file, ".rels")
	parent := strings.TrimSuffix(dir, "_rels/")
	if base == "" {
		if parent == "/" {
			return "/", true
		}
		return "", false
	}
	return parent + base, true
}

// Resolve returns the part name an internal target of source refers to.
// Targets are relative to the source's folder unless they start with "/".
func Resolve(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(target)
	}
	dir := "/"
	if source != "/" {
		dir = path.Dir(source)
	}
	return path.Clean(path.Join(dir, target))
}

// Relative returns the target text that makes source refer to part.
func Relative(source, part string) string {
	from := "/"
	if source != "/" {
		from = path.Dir(source)
	}
	if from == "/" {
		return strings.TrimPrefix(part, "/")
	}
	fromParts := strings.Split(strings.Trim(from, "/"), "/")
	toParts := strings.Split(strings.TrimPrefix(part, "/"), "/")
	i := 0
	for i < len(fromParts) && i < len(toParts)-1 && fromParts[i] == toParts[i] {
		i++
	}
	ups := strings.Repeat("../", len(fromParts)-i)
	return ups + strings.Join(toParts[i:], "/")
}
