package scene

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/Faultbox/spanbatch/internal/drawable"
	"github.com/Faultbox/spanbatch/internal/export"
)

// Page is a location: one page of an age.
type Page struct {
	Age  string
	Name string
	Seq  int
}

// String returns the scene node name, Age_Page, used as group name prefix.
func (p Page) String() string {
	if p.Age == "" {
		return p.Name
	}
	return p.Age + "_" + p.Name
}

// PageTable assigns objects to pages. It implements
// export.LocationAllocator.
type PageTable struct {
	pages  []Page
	byName map[string]Page
	def    Page
	assign map[*export.Object]Page
}

func newPageTable(age string, defs []PageDef) (*PageTable, error) {
	if len(defs) == 0 {
		return nil, ErrNoPages
	}
	t := &PageTable{
		byName: make(map[string]Page, len(defs)),
		assign: make(map[*export.Object]Page),
	}
	defaults := 0
	for i, d := range defs {
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate page %q", d.Name)
		}
		p := Page{Age: age, Name: d.Name, Seq: d.Seq}
		t.pages = append(t.pages, p)
		t.byName[d.Name] = p
		if i == 0 || d.Default {
			t.def = p
		}
		if d.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("%d pages are marked default", defaults)
	}
	return t, nil
}

// Pages returns the pages in declaration order.
func (t *PageTable) Pages() []Page {
	return t.pages
}

// Default returns the page of objects that name none.
func (t *PageTable) Default() Page {
	return t.def
}

// SetAge renames the age of every page. It must run before objects are
// exported, since group names embed it.
func (t *PageTable) SetAge(age string) {
	rename := func(p Page) Page {
		p.Age = age
		return p
	}
	for i := range t.pages {
		t.pages[i] = rename(t.pages[i])
	}
	for name, p := range t.byName {
		t.byName[name] = rename(p)
	}
	for obj, p := range t.assign {
		t.assign[obj] = rename(p)
	}
	t.def = rename(t.def)
}

func (t *PageTable) bind(obj *export.Object, page string) error {
	if page == "" {
		t.assign[obj] = t.def
		return nil
	}
	p, ok := t.byName[page]
	if !ok {
		return pkgerrors.Wrapf(ErrUnknownPage, "%q", page)
	}
	t.assign[obj] = p
	return nil
}

// LocationOf returns the page obj was placed on.
func (t *PageTable) LocationOf(obj *export.Object) (drawable.Location, error) {
	p, ok := t.assign[obj]
	if !ok {
		return nil, pkgerrors.Wrapf(ErrUnknownPage, "object %q has no page", obj.Name)
	}
	return p, nil
}
