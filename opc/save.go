package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xlsx/codec"
	"github.com/TsubasaBE/go-xlsx/element"
	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/internal/contenttypes"
	"github.com/TsubasaBE/go-xlsx/internal/rels"
	"github.com/TsubasaBE/go-xlsx/part"
)

type entry struct {
	name string // absolute part name
	data []byte
}

// rendering is a fully serialized package waiting to be written.  Nothing in
// the Package changes until commit.
type rendering struct {
	entries  []entry
	written  []*Part // parsed parts that were re-serialized
	fresh    [][]byte
	rels     map[string][]byte
	manifest contenttypes.Types
	types    []byte
	reused   int
}

// Save writes the package as a zip archive to w.  Every part is serialized
// before the first byte is written, so a serialization failure leaves w
// untouched.
func (p *Package) Save(w io.Writer) error {
	if err := p.live(); err != nil {
		return err
	}
	r, err := p.render()
	if err != nil {
		return err
	}
	if err := r.writeZip(w); err != nil {
		return err
	}
	p.commit(r)
	return nil
}

// Bytes returns the package as a zip archive.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveAs writes the package to the file name.  The archive is written to a
// temporary file in the same directory and renamed over name, so name is
// either fully replaced or left as it was.
func (p *Package) SaveAs(name string) (err error) {
	if err := p.live(); err != nil {
		return err
	}
	r, err := p.render()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("opc: save %q: %w", name, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = r.writeZip(tmp); err != nil {
		return fmt.Errorf("opc: save %q: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("opc: save %q: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("opc: save %q: %w", name, err)
	}
	if err = os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("opc: save %q: %w", name, err)
	}
	p.commit(r)
	p.opts.logger.Info("package saved", zap.String("file", name), zap.Int("entries", len(r.entries)))
	return nil
}

func (p *Package) render() (*rendering, error) {
	r := &rendering{rels: make(map[string][]byte)}

	types := *p.types
	types.Defaults = slices.Clone(p.types.Defaults)
	types.Overrides = slices.Clone(p.types.Overrides)
	if _, ok := types.DefaultFor("rels"); !ok {
		types.SetDefault("rels", CTRelationships)
	}

	body := make([]entry, 0, p.parts.Len()+len(p.rels))
	emitted := make(map[string]bool, len(p.rels))

	relsEntry := func(source string) error {
		emitted[source] = true
		list := p.rels[source]
		if data, ok := p.relsData[source]; ok {
			body = append(body, entry{rels.PartName(source), data})
			return nil
		}
		if len(list) == 0 && source != "/" {
			return nil
		}
		data, err := list.Marshal()
		if err != nil {
			return xlsxerrors.Wrap(xlsxerrors.MalformedXML, err, "cannot serialize relationships").In(rels.PartName(source))
		}
		r.rels[source] = data
		body = append(body, entry{rels.PartName(source), data})
		return nil
	}

	if err := relsEntry("/"); err != nil {
		return nil, err
	}

	var err error
	p.parts.Scan(func(_ string, pt *Part) bool {
		if _, ok := types.Lookup(pt.Name); !ok {
			types.Set(pt.Name, pt.ContentType)
		}
		var data []byte
		if data, err = p.renderPart(pt, r); err != nil {
			return false
		}
		body = append(body, entry{pt.Name, data})
		if _, has := p.rels[pt.Name]; has {
			err = relsEntry(pt.Name)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	// Relationship parts whose source is not a part of the package.
	var orphans []string
	for source := range p.rels {
		if !emitted[source] {
			orphans = append(orphans, source)
		}
	}
	slices.Sort(orphans)
	for _, source := range orphans {
		if err := relsEntry(source); err != nil {
			return nil, err
		}
	}

	if p.typesData != nil && slices.Equal(types.Defaults, p.types.Defaults) && slices.Equal(types.Overrides, p.types.Overrides) {
		r.types = p.typesData
	} else if r.types, err = types.Marshal(); err != nil {
		return nil, xlsxerrors.Wrap(xlsxerrors.MalformedXML, err, "cannot serialize content types").In("/" + contenttypes.PartName)
	}
	r.manifest = types

	r.entries = append([]entry{{"/" + contenttypes.PartName, r.types}}, body...)
	return r, nil
}

func (p *Package) renderPart(pt *Part, r *rendering) ([]byte, error) {
	if pt.IsRaw() {
		return pt.Data, nil
	}
	// An untouched tree can still name a relationship removed since load.
	if err := checkRelIDs(pt.Root, p.rels[pt.Name], "/"+pt.Root.Name().Local); err != nil {
		return nil, err.In(pt.Name)
	}
	if p.opts.passthrough && pt.unchanged() {
		r.reused++
		return pt.Data, nil
	}
	data, err := part.Write(pt.Root)
	if err != nil {
		if e, ok := xlsxerrors.As(err); ok {
			return nil, e.In(pt.Name)
		}
		return nil, fmt.Errorf("opc: write %s: %w", pt.Name, err)
	}
	r.written = append(r.written, pt)
	r.fresh = append(r.fresh, data)
	return data, nil
}

// checkRelIDs verifies that every relationship attribute in the tree names a
// relationship of the part.
func checkRelIDs(n *element.Node, list rels.List, path string) *xlsxerrors.Error {
	if n.IsOpaque() {
		return nil
	}
	for a, v := range n.Attrs() {
		if a.Type.Kind == codec.KindRelID && !list.Contains(v.Str()) {
			e := xlsxerrors.New(xlsxerrors.DanglingRelationship, "relationship %q not found", v.Str()).At(path)
			e.Attr = a.QName()
			e.Text = v.Str()
			return e
		}
	}
	seen := make(map[string]int)
	for _, c := range n.All() {
		local := c.Name().Local
		seen[local]++
		sub := path + "/" + local
		if _, slot := n.Type().Slot(c.Name().Space, local); slot == nil || slot.Max != 1 {
			sub += "[" + strconv.Itoa(seen[local]) + "]"
		}
		if err := checkRelIDs(c, list, sub); err != nil {
			return err
		}
	}
	return nil
}

func (r *rendering) writeZip(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, e := range r.entries {
		f, err := zw.Create(strings.TrimPrefix(e.name, "/"))
		if err != nil {
			return fmt.Errorf("opc: zip create %s: %w", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return fmt.Errorf("opc: zip write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("opc: zip close: %w", err)
	}
	return nil
}

// commit records a successful save: re-serialized parts now pass through
// on the next save.
func (p *Package) commit(r *rendering) {
	for i, pt := range r.written {
		pt.Data = r.fresh[i]
		pt.orig = pt.Root.Clone()
	}
	for source, data := range r.rels {
		p.relsData[source] = data
	}
	*p.types = r.manifest
	p.typesData = r.types
	p.state = StateSaved
	p.opts.logger.Debug("package serialized",
		zap.Int("entries", len(r.entries)),
		zap.Int("rewritten", len(r.written)),
		zap.Int("passthrough", r.reused),
	)
}
