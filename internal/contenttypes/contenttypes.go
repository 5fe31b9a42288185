// Package contenttypes reads and writes the package content-type manifest,
// "[Content_Types].xml".
package contenttypes

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// PartName is the manifest's location inside the archive.
const PartName = "[Content_Types].xml"

// Namespace is the XML namespace of the manifest.
const Namespace = "http://schemas.openxmlformats.org/package/2006/content-types"

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

// Default maps a file extension to a content type.
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override assigns a content type to one part.
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Types is a decoded manifest.  Entries keep their document order.
type Types struct {
	XMLName   xml.Name   `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// Parse decodes a manifest.
func Parse(data []byte) (*Types, error) {
	var t Types
	if err := xml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse content types: %w", err)
	}
	for _, d := range t.Defaults {
		if d.Extension == "" || d.ContentType == "" {
			return nil, fmt.Errorf("parse content types: incomplete Default entry %+v", d)
		}
	}
	for _, o := range t.Overrides {
		if !strings.HasPrefix(o.PartName, "/") || o.ContentType == "" {
			return nil, fmt.Errorf("parse content types: invalid Override entry %+v", o)
		}
	}
	return &t, nil
}

// Marshal encodes the manifest, defaults first.
func (t *Types) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	b, err := xml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal content types: %w", err)
	}
	buf.Write(b)
	return buf.Bytes(), nil
}

// Lookup returns the content type of a part.  An override wins over the
// default for the part's extension; both comparisons ignore ASCII case.
func (t *Types) Lookup(partName string) (string, bool) {
	for _, o := range t.Overrides {
		if strings.EqualFold(o.PartName, partName) {
			return o.ContentType, true
		}
	}
	ext := strings.TrimPrefix(path.Ext(partName), ".")
	if ext == "" {
		return "", false
	}
	for _, d := range t.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType, true
		}
	}
	return "", false
}

// DefaultFor returns the default content type registered for ext.
func (t *Types) DefaultFor(ext string) (string, bool) {
	for _, d := range t.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType, true
		}
	}
	return "", false
}

// SetDefault registers contentType for ext unless ext already has one.
func (t *Types) SetDefault(ext, contentType string) {
	if _, ok := t.DefaultFor(ext); ok {
		return
	}
	t.Defaults = append(t.Defaults, Default{Extension: ext, ContentType: contentType})
}

// Set records contentType for partName.  No override is written when the
// extension default already yields the same type.
func (t *Types) Set(partName, contentType string) {
	for i, o := range t.Overrides {
		if strings.EqualFold(o.PartName, partName) {
			t.Overrides[i].ContentType = contentType
			return
		}
	}
	if ct, ok := t.DefaultFor(strings.TrimPrefix(path.Ext(partName), ".")); ok && ct == contentType {
		return
	}
	t.Overrides = append(t.Overrides, Override{PartName: partName, ContentType: contentType})
}

// Remove drops the override for partName, if any.
func (t *Types) Remove(partName string) {
	for i, o := range t.Overrides {
		if strings.EqualFold(o.PartName, partName) {
			t.Overrides = append(t.Overrides[:i], t.Overrides[i+1:]...)
			return
		}
	}
}
