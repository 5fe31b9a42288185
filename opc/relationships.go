package opc

import (
	"fmt"

	"go.uber.org/zap"

	xlsxerrors "github.com/TsubasaBE/go-xlsx/errors"
	"github.com/TsubasaBE/go-xlsx/internal/rels"
)

// Relationships returns the relationships owned by source, "/" for the
// package itself.  The slice is a copy.
func (p *Package) Relationships(source string) []Relationship {
	if p.live() != nil {
		return nil
	}
	return append([]Relationship(nil), p.rels[source]...)
}

// Relationship returns the relationship id owned by source.
func (p *Package) Relationship(source, id string) (Relationship, bool) {
	if p.live() != nil {
		return Relationship{}, false
	}
	return p.rels[source].ByID(id)
}

// Resolve returns the part that relationship id of source points at.  It
// fails with DanglingRelationship when id is unknown, external, or targets
// a missing part.
func (p *Package) Resolve(source, id string) (*Part, error) {
	if err := p.live(); err != nil {
		return nil, err
	}
	r, ok := p.rels[source].ByID(id)
	if !ok {
		e := xlsxerrors.New(xlsxerrors.DanglingRelationship, "relationship %q not found", id).In(source)
		e.Text = id
		return nil, e
	}
	if r.IsExternal() {
		e := xlsxerrors.New(xlsxerrors.DanglingRelationship, "relationship %q is external", id).In(source)
		e.Text = r.Target
		return nil, e
	}
	target := rels.Resolve(source, r.Target)
	pt, ok := p.parts.Get(key(target))
	if !ok {
		e := xlsxerrors.New(xlsxerrors.DanglingRelationship, "relationship %q targets missing part %s", id, target).In(source)
		e.Text = r.Target
		return nil, e
	}
	return pt, nil
}

// RelatedParts returns the parts source points at with relationships of
// type typ, in relationship order.  Targets that are external or missing
// are skipped.
func (p *Package) RelatedParts(source, typ string) []*Part {
	if p.live() != nil {
		return nil
	}
	var out []*Part
	for _, r := range p.rels[source].ByType(typ) {
		if r.IsExternal() {
			continue
		}
		if pt, ok := p.parts.Get(key(rels.Resolve(source, r.Target))); ok {
			out = append(out, pt)
		}
	}
	return out
}

// RelatedPart returns the first part RelatedParts would return.
func (p *Package) RelatedPart(source, typ string) (*Part, bool) {
	parts := p.RelatedParts(source, typ)
	if len(parts) == 0 {
		return nil, false
	}
	return parts[0], true
}

// AddRelationship adds a relationship of type typ from source and returns
// its ID.  For an internal relationship target is the absolute name of an
// existing part and is stored relative to source; an external target is
// stored as given.
func (p *Package) AddRelationship(source, typ, target string, external bool) (string, error) {
	if err := p.live(); err != nil {
		return "", err
	}
	if source != "/" {
		if _, ok := p.parts.Get(key(source)); !ok {
			return "", fmt.Errorf("opc: no source part %s", source)
		}
	}
	r := Relationship{Type: typ, Target: target}
	if external {
		r.TargetMode = rels.External
	} else {
		pt, ok := p.parts.Get(key(target))
		if !ok {
			e := xlsxerrors.New(xlsxerrors.DanglingRelationship, "target part %s does not exist", target).In(source)
			e.Text = target
			return "", e
		}
		r.Target = rels.Relative(source, pt.Name)
	}
	list := p.rels[source]
	r.ID = list.NextID()
	p.rels[source] = append(list, r)
	delete(p.relsData, source)
	p.touch()
	p.opts.logger.Debug("relationship added",
		zap.String("source", source), zap.String("id", r.ID), zap.String("target", r.Target))
	return r.ID, nil
}

// RemoveRelationship deletes relationship id of source.  The target part is
// kept.
func (p *Package) RemoveRelationship(source, id string) error {
	if err := p.live(); err != nil {
		return err
	}
	list := p.rels[source]
	for i, r := range list {
		if r.ID == id {
			p.rels[source] = append(list[:i:i], list[i+1:]...)
			delete(p.relsData, source)
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("opc: %s has no relationship %q", source, id)
}
