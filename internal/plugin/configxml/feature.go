package configxml

import "github.com/beevik/etree"

// Feature is the record of an installed plugin:
//
//	<feature name="Foo">
//	    <param name="id" value="com.example.foo"/>
//	    <param name="version" value="1.2.0"/>
//	</feature>
type Feature struct {
	Name    string
	ID      string
	Version string
}

// Features returns every <feature> under the root that carries an id param.
func (d *Document) Features() []Feature {
	var out []Feature
	for _, el := range d.doc.Root().SelectElements("feature") {
		f := Feature{Name: el.SelectAttrValue("name", "")}
		for _, p := range el.SelectElements("param") {
			switch p.SelectAttrValue("name", "") {
			case "id":
				f.ID = p.SelectAttrValue("value", "")
			case "version":
				f.Version = p.SelectAttrValue("value", "")
			}
		}
		if f.ID != "" {
			out = append(out, f)
		}
	}
	return out
}

// Record adds the feature record for f.ID, replacing any existing record
// for the same plugin id.
func (d *Document) Record(f Feature) {
	d.Unrecord(f.ID)

	el := d.doc.Root().CreateElement("feature")
	el.CreateAttr("name", f.Name)
	param(el, "id", f.ID)
	if f.Version != "" {
		param(el, "version", f.Version)
	}
}

// Unrecord removes the feature record of plugin id. It reports whether a
// record was removed.
func (d *Document) Unrecord(id string) bool {
	root := d.doc.Root()
	removed := false
	for _, el := range root.SelectElements("feature") {
		for _, p := range el.SelectElements("param") {
			if p.SelectAttrValue("name", "") == "id" && p.SelectAttrValue("value", "") == id {
				root.RemoveChild(el)
				removed = true
				break
			}
		}
	}
	return removed
}

func param(parent *etree.Element, name, value string) {
	p := parent.CreateElement("param")
	p.CreateAttr("name", name)
	p.CreateAttr("value", value)
}
