// Package opc owns the zip container of an OOXML package: the part table,
// the content-type manifest and the relationship graph linking parts.
//
// Open reads the whole archive into memory and releases the file before
// returning.  Every part whose content type has a descriptor in the registry
// is parsed into an [element.Node] tree; a fixed set of binary and
// presentation parts (images, themes, drawings, document properties, ...)
// is kept as bytes.  Any other content type fails Open with
// UnsupportedContentType, since dropping a part would lose data.
//
// A Package is owned by one goroutine at a time.  Nothing in it is locked.
//
// Quick start:
//
//	pkg, err := opc.Open("Book1.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pkg.Close()
//
//	wb, _ := pkg.RelatedPart("/", opc.RelOfficeDocument)
//	for _, ws := range pkg.RelatedParts(wb.Name, opc.RelWorksheet) {
//	    fmt.Println(ws.Name, ws.ContentType)
//	}
//	if err := pkg.SaveAs("Book1-copy.xlsx"); err != nil {
//	    log.Fatal(err)
//	}
package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/tidwall/btree"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/internal/contenttypes"
	"github.com/TsubasaBE/go-xlsx/internal/rels"
	"github.com/TsubasaBE/go-xlsx/part"
)

// ErrClosed is returned by every operation on a closed Package.
var ErrClosed = errors.New("opc: package is closed")

// ErrEncrypted is wrapped by the MalformedArchive error Open returns for a
// password-protected workbook, which is stored as an OLE compound file
// rather than a zip archive.
var ErrEncrypted = errors.New("opc: package is encrypted")

// State is the lifecycle state of a Package.
type State int

const (
	// StateClosed: Close was called; the package holds nothing.
	StateClosed State = iota
	// StateOpen: loaded or created and not changed since.
	StateOpen
	// StateModified: changed since it was loaded or last saved.
	StateModified
	// StateSaved: written out and not changed since.
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateModified:
		return "modified"
	case StateSaved:
		return "saved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Relationship is a typed edge from a source part to a target part or an
// external resource.
type Relationship = rels.Relationship

// Part is one entry of the package.
type Part struct {
	// Name is the absolute part name, e.g. "/xl/workbook.xml".
	Name        string
	ContentType string
	// Root is the parsed tree, or nil for a raw part.
	Root *element.Node
	// Data is the payload of a raw part.  For a parsed part it holds the
	// bytes the part was last loaded from or saved as, and is nil for parts
	// created in memory.
	Data []byte

	// orig is a snapshot of Root as of Data, used to detect edits.
	orig *element.Node
}

// IsRaw reports whether the part is kept as bytes.
func (p *Part) IsRaw() bool { return p.Root == nil }

// unchanged reports whether Data still represents Root.
func (p *Part) unchanged() bool {
	return p.Data != nil && p.orig != nil && element.Equal(p.orig, p.Root)
}

// Package is an open OOXML package.
type Package struct {
	opts  options
	state State

	parts btree.Map[string, *Part] // keyed by lower-cased part name
	rels  map[string]rels.List     // keyed by source part name, "/" for the package
	// relsData holds the loaded bytes of relationship parts not changed since.
	relsData map[string][]byte

	types     *contenttypes.Types
	typesData []byte
}

func key(name string) string { return strings.ToLower(name) }

// New returns an empty package in StateOpen.
func New(opts ...Option) *Package {
	p := newPackage(buildOptions(opts))
	p.types = &contenttypes.Types{}
	p.types.SetDefault("rels", CTRelationships)
	p.types.SetDefault("xml", CTXML)
	p.state = StateOpen
	return p
}

func newPackage(o options) *Package {
	return &Package{
		opts:     o,
		rels:     make(map[string]rels.List),
		relsData: make(map[string][]byte),
	}
}

// Open reads the package at name.  The file is closed before Open returns,
// on success and failure alike.
func Open(name string, opts ...Option) (*Package, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opc: open %q: %w", name, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("opc: stat %q: %w", name, err)
	}
	return OpenReader(f, fi.Size(), opts...)
}

// OpenBytes reads a package held in memory.
func OpenBytes(data []byte, opts ...Option) (*Package, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)), opts...)
}

// cfbSignature starts every OLE compound file.
var cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// OpenReader reads a package of the given size from r.  r is not used after
// OpenReader returns.
func OpenReader(r io.ReaderAt, size int64, opts ...Option) (*Package, error) {
	o := buildOptions(opts)

	head := make([]byte, len(cfbSignature))
	if n, _ := r.ReadAt(head, 0); n == len(head) && bytes.Equal(head, cfbSignature) {
		return nil, compoundFileError(r)
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, xlsxerrors.Wrap(xlsxerrors.MalformedArchive, err, "not a zip archive")
	}

	p := newPackage(o)
	if err := p.load(zr); err != nil {
		return nil, err
	}
	p.state = StateOpen
	o.logger.Info("package opened", zap.Int("parts", p.parts.Len()), zap.Int("relationshipParts", len(p.rels)))
	return p, nil
}

// compoundFileError explains why an OLE compound file is not a package.
func compoundFileError(r io.ReaderAt) error {
	doc, err := mscfb.New(r)
	if err != nil {
		return xlsxerrors.Wrap(xlsxerrors.MalformedArchive, err, "corrupt compound file")
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "EncryptedPackage" {
			return xlsxerrors.Wrap(xlsxerrors.MalformedArchive, ErrEncrypted, "encrypted package")
		}
	}
	return xlsxerrors.New(xlsxerrors.MalformedArchive, "compound file (legacy binary workbook), not a zip package")
}

// readZipEntry reads the full content of a single zip entry.
func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *Package) load(zr *zip.Reader) error {
	log := p.opts.logger

	entries := make(map[string][]byte, len(zr.File))
	var names []string
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		name := "/" + strings.TrimPrefix(f.Name, "/")
		if _, dup := entries[key(name)]; dup {
			return xlsxerrors.New(xlsxerrors.MalformedArchive, "duplicate entry").In(name)
		}
		data, err := readZipEntry(f)
		if err != nil {
			return xlsxerrors.Wrap(xlsxerrors.MalformedArchive, err, "unreadable entry").In(name)
		}
		entries[key(name)] = data
		names = append(names, name)
	}

	manifest, ok := entries[key("/"+contenttypes.PartName)]
	if !ok {
		return xlsxerrors.New(xlsxerrors.MalformedArchive, "missing %s", contenttypes.PartName)
	}
	types, err := contenttypes.Parse(manifest)
	if err != nil {
		return xlsxerrors.Wrap(xlsxerrors.MalformedArchive, err, "unreadable content-type manifest").In("/" + contenttypes.PartName)
	}
	p.types, p.typesData = types, manifest

	rootRels := rels.PartName("/")
	if _, ok := entries[key(rootRels)]; !ok {
		return xlsxerrors.New(xlsxerrors.MalformedArchive, "missing %s", strings.TrimPrefix(rootRels, "/"))
	}

	// Relationship tables first: part parsing checks r:id against them.
	var partNames []string
	for _, name := range names {
		if name == "/"+contenttypes.PartName {
			continue
		}
		source, isRels := rels.SourceOf(name)
		if !isRels {
			partNames = append(partNames, name)
			continue
		}
		list, err := rels.Parse(entries[key(name)])
		if err != nil {
			code := xlsxerrors.MalformedXML
			if name == rootRels {
				code = xlsxerrors.MalformedArchive
			}
			return xlsxerrors.Wrap(code, err, "unreadable relationships").In(name)
		}
		p.rels[source] = list
		p.relsData[source] = entries[key(name)]
	}

	for _, name := range partNames {
		ct, ok := types.Lookup(name)
		if !ok {
			return xlsxerrors.New(xlsxerrors.UnsupportedContentType, "no content type in the manifest").In(name)
		}
		pt, err := p.readPart(name, ct, entries[key(name)])
		if err != nil {
			return err
		}
		p.parts.Set(key(name), pt)
		log.Debug("part loaded", zap.String("part", name), zap.String("contentType", ct), zap.Bool("raw", pt.IsRaw()))
	}

	return p.checkTargets()
}

// readPart builds a Part from its bytes.
func (p *Package) readPart(name, ct string, data []byte) (*Part, error) {
	if _, ok := p.opts.registry.ForContentType(ct); ok {
		root, err := part.Parse(data, p.rels[name],
			part.WithRegistry(p.opts.registry),
			part.WithPartName(name),
			part.WithLogger(p.opts.logger),
		)
		if err != nil {
			return nil, err
		}
		return &Part{Name: name, ContentType: ct, Root: root, Data: data, orig: root.Clone()}, nil
	}
	if p.opts.isRaw(ct) {
		return &Part{Name: name, ContentType: ct, Data: data}, nil
	}
	return nil, xlsxerrors.New(xlsxerrors.UnsupportedContentType, "no reader for content type %q", ct).In(name)
}

// checkTargets verifies that every internal relationship points at a part
// of the package.
func (p *Package) checkTargets() error {
	for source, list := range p.rels {
		for _, r := range list {
			if r.IsExternal() {
				continue
			}
			target := rels.Resolve(source, r.Target)
			if _, ok := p.parts.Get(key(target)); ok {
				continue
			}
			if p.opts.strict {
				e := xlsxerrors.New(xlsxerrors.DanglingRelationship, "relationship %s targets missing part %s", r.ID, target).In(rels.PartName(source))
				e.Text = r.Target
				return e
			}
			p.opts.logger.Warn("relationship targets a missing part",
				zap.String("source", source), zap.String("id", r.ID), zap.String("target", target))
		}
	}
	return nil
}

func (p *Package) live() error {
	if p == nil || p.state == StateClosed {
		return ErrClosed
	}
	return nil
}

func (p *Package) touch() { p.state = StateModified }

// State returns the lifecycle state.
func (p *Package) State() State { return p.state }

// MarkModified records that a part tree was edited in place.  Trees edited
// through Part.Root are detected on save regardless; MarkModified only
// updates State.
func (p *Package) MarkModified() {
	if p.state != StateClosed {
		p.touch()
	}
}

// Close releases the package.  Later calls return ErrClosed.
func (p *Package) Close() error {
	if err := p.live(); err != nil {
		return err
	}
	p.parts = btree.Map[string, *Part]{}
	p.rels, p.relsData, p.types, p.typesData = nil, nil, nil, nil
	p.state = StateClosed
	return nil
}

// ── parts ────────────────────────────────────────────────────────────────────

// Parts returns every part ordered by name.
func (p *Package) Parts() []*Part {
	if p.live() != nil {
		return nil
	}
	out := make([]*Part, 0, p.parts.Len())
	p.parts.Scan(func(_ string, pt *Part) bool {
		out = append(out, pt)
		return true
	})
	return out
}

// Part returns the part called name.  Part names compare case-insensitively.
func (p *Package) Part(name string) (*Part, bool) {
	if p.live() != nil {
		return nil, false
	}
	return p.parts.Get(key(name))
}

// PartsIn returns the parts under folder, e.g. "/xl/worksheets", ordered by
// name.
func (p *Package) PartsIn(folder string) []*Part {
	if p.live() != nil {
		return nil
	}
	prefix := key(strings.TrimSuffix(folder, "/") + "/")
	var out []*Part
	p.parts.Ascend(prefix, func(k string, pt *Part) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		out = append(out, pt)
		return true
	})
	return out
}

// PartsOfType returns the parts with the given content type.
func (p *Package) PartsOfType(contentType string) []*Part {
	var out []*Part
	for _, pt := range p.Parts() {
		if pt.ContentType == contentType {
			out = append(out, pt)
		}
	}
	return out
}

func validPartName(name string) error {
	if !strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || path.Clean(name) != name {
		return fmt.Errorf("opc: invalid part name %q", name)
	}
	if _, isRels := rels.SourceOf(name); isRels || strings.EqualFold(name, "/"+contenttypes.PartName) {
		return fmt.Errorf("opc: part name %q is reserved", name)
	}
	return nil
}

func (p *Package) addPart(pt *Part) error {
	if err := validPartName(pt.Name); err != nil {
		return err
	}
	if _, exists := p.parts.Get(key(pt.Name)); exists {
		return fmt.Errorf("opc: part %s already exists", pt.Name)
	}
	p.parts.Set(key(pt.Name), pt)
	p.types.Set(pt.Name, pt.ContentType)
	p.typesData = nil
	p.touch()
	return nil
}

// AddPart adds a parsed part.  root must be the registry's root element for
// contentType.
func (p *Package) AddPart(name, contentType string, root *element.Node) (*Part, error) {
	if err := p.live(); err != nil {
		return nil, err
	}
	want, ok := p.opts.registry.ForContentType(contentType)
	if !ok {
		return nil, xlsxerrors.New(xlsxerrors.UnsupportedContentType, "no descriptor for content type %q", contentType).In(name)
	}
	if root == nil || root.Type() != want {
		return nil, xlsxerrors.New(xlsxerrors.SchemaViolation, "root element must be %s", want.Name).In(name)
	}
	pt := &Part{Name: name, ContentType: contentType, Root: root}
	if err := p.addPart(pt); err != nil {
		return nil, err
	}
	return pt, nil
}

// AddRawPart adds a part kept as bytes.
func (p *Package) AddRawPart(name, contentType string, data []byte) (*Part, error) {
	if err := p.live(); err != nil {
		return nil, err
	}
	if !p.opts.isRaw(contentType) {
		return nil, xlsxerrors.New(xlsxerrors.UnsupportedContentType, "content type %q is not a raw type", contentType).In(name)
	}
	pt := &Part{Name: name, ContentType: contentType, Data: bytes.Clone(data)}
	if err := p.addPart(pt); err != nil {
		return nil, err
	}
	return pt, nil
}

// RemovePart deletes a part together with its relationship part, its
// manifest override and every relationship that targets it.
func (p *Package) RemovePart(name string) error {
	if err := p.live(); err != nil {
		return err
	}
	pt, ok := p.parts.Delete(key(name))
	if !ok {
		return fmt.Errorf("opc: no part %s", name)
	}
	p.types.Remove(pt.Name)
	p.typesData = nil
	delete(p.rels, pt.Name)
	delete(p.relsData, pt.Name)
	for source, list := range p.rels {
		if rest := list.Without(source, pt.Name); len(rest) != len(list) {
			p.rels[source] = rest
			delete(p.relsData, source)
		}
	}
	p.opts.logger.Debug("part removed", zap.String("part", pt.Name))
	p.touch()
	return nil
}

// SetPartData replaces the content of a part.  A parsed part is reparsed
// from data; on failure the part is left as it was.
func (p *Package) SetPartData(name string, data []byte) error {
	if err := p.live(); err != nil {
		return err
	}
	pt, ok := p.parts.Get(key(name))
	if !ok {
		return fmt.Errorf("opc: no part %s", name)
	}
	next, err := p.readPart(pt.Name, pt.ContentType, bytes.Clone(data))
	if err != nil {
		return err
	}
	*pt = *next
	p.touch()
	return nil
}
