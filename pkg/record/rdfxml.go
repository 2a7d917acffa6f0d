package record

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRecord marks payloads that are not a usable record.
var ErrInvalidRecord = errors.New("invalid record")

// Deserializer turns a raw payload into a Wrapper.
type Deserializer interface {
	Deserialize(payload []byte) (*Wrapper, error)
}

// prefixes the property keys use.
var namespaces = map[string]string{
	"http://purl.org/dc/elements/1.1/":                      "dc",
	"http://purl.org/dc/terms/":                             "dcterms",
	"http://www.europeana.eu/schemas/edm/":                  "edm",
	"http://www.openarchives.org/ore/terms/":                "ore",
	"http://www.w3.org/2004/02/skos/core#":                  "skos",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#":           "rdf",
	"http://www.ebu.ch/metadata/ontologies/ebucore/ebucore#": "ebucore",
	"http://www.w3.org/2003/01/geo/wgs84_pos#":              "wgs84_pos",
	"http://rdvocab.info/ElementsGr2/":                      "rdaGr2",
	"http://xmlns.com/foaf/0.1/":                            "foaf",
	"http://www.w3.org/2002/07/owl#":                        "owl",
	"http://rdfs.org/sioc/services#":                        "svcs",
	"http://www.w3.org/XML/1998/namespace":                  "xml",
}

const rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func qualified(n xml.Name) string {
	if p, ok := namespaces[n.Space]; ok {
		return p + ":" + n.Local
	}
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func (n node) attr(name string) string {
	for _, a := range n.Attrs {
		if qualified(a.Name) == name || (a.Name.Space == "" && "rdf:"+a.Name.Local == name) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func (n node) value() PropertyValue {
	return PropertyValue{
		Value:    strings.TrimSpace(n.Text),
		Lang:     n.attr("xml:lang"),
		Resource: n.attr("rdf:resource"),
	}
}

func (n node) properties() Properties {
	props := Properties{}
	for _, c := range n.Children {
		key := qualified(c.XMLName)
		props[key] = append(props[key], c.value())
	}
	return props
}

// RDFXML reads EDM records serialized as RDF/XML.
type RDFXML struct{}

// Deserialize implements Deserializer. Structural problems are reported as
// errors wrapping ErrInvalidRecord.
func (RDFXML) Deserialize(payload []byte) (*Wrapper, error) {
	rec, err := ParseRDFXML(payload)
	if err != nil {
		return nil, err
	}
	return Wrap(rec), nil
}

// ParseRDFXML decodes payload into a Record.
func ParseRDFXML(payload []byte) (Record, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return Record{}, fmt.Errorf("%w: empty payload", ErrInvalidRecord)
	}

	var root node
	if err := xml.Unmarshal(payload, &root); err != nil {
		return Record{}, fmt.Errorf("%w: decode rdf/xml: %v", ErrInvalidRecord, err)
	}
	if root.XMLName.Space != rdfNS || root.XMLName.Local != "RDF" {
		return Record{}, fmt.Errorf("%w: root element is %s, want rdf:RDF", ErrInvalidRecord, qualified(root.XMLName))
	}

	var rec Record
	for _, n := range root.Children {
		about := n.attr("rdf:about")
		switch qualified(n.XMLName) {
		case "edm:ProvidedCHO":
			rec.ProvidedCHO = about
		case "ore:Proxy":
			props := n.properties()
			rec.Proxies = append(rec.Proxies, Proxy{
				About:      about,
				Europeana:  isTrue(props, "edm:europeanaProxy"),
				Properties: props,
			})
		case "ore:Aggregation":
			rec.Aggregations = append(rec.Aggregations, parseAggregation(about, n))
		case "edm:EuropeanaAggregation":
			ea := &EuropeanaAggregation{About: about}
			for _, c := range n.Children {
				if qualified(c.XMLName) == "edm:preview" {
					ea.Preview = c.attr("rdf:resource")
				}
			}
			rec.EuropeanaAggregation = ea
		case "edm:WebResource":
			rec.WebResources = append(rec.WebResources, parseWebResource(about, n))
		case "edm:Agent":
			rec.Entities = append(rec.Entities, parseEntity(KindAgent, about, n))
		case "edm:Place":
			rec.Entities = append(rec.Entities, parseEntity(KindPlace, about, n))
		case "edm:TimeSpan":
			rec.Entities = append(rec.Entities, parseEntity(KindTimeSpan, about, n))
		case "skos:Concept":
			rec.Entities = append(rec.Entities, parseEntity(KindConcept, about, n))
		}
	}

	if strings.TrimSpace(rec.ProvidedCHO) == "" {
		return Record{}, fmt.Errorf("%w: no edm:ProvidedCHO", ErrInvalidRecord)
	}
	if len(rec.Proxies) == 0 {
		return Record{}, fmt.Errorf("%w: no ore:Proxy", ErrInvalidRecord)
	}
	return rec, nil
}

func isTrue(props Properties, key string) bool {
	for _, v := range props[key] {
		if strings.EqualFold(v.Value, "true") {
			return true
		}
	}
	return false
}

func parseAggregation(about string, n node) Aggregation {
	agg := Aggregation{About: about}
	for _, c := range n.Children {
		res := c.attr("rdf:resource")
		switch qualified(c.XMLName) {
		case "edm:isShownBy":
			agg.IsShownBy = res
		case "edm:isShownAt":
			agg.IsShownAt = res
		case "edm:object":
			agg.Object = res
		case "edm:hasView":
			if res != "" {
				agg.HasViews = append(agg.HasViews, res)
			}
		case "edm:rights":
			agg.Rights = res
		}
	}
	return agg
}

func parseWebResource(about string, n node) WebResource {
	wr := WebResource{About: about}
	for _, c := range n.Children {
		text := strings.TrimSpace(c.Text)
		switch qualified(c.XMLName) {
		case "ebucore:hasMimeType":
			wr.MimeType = text
		case "ebucore:width":
			wr.Width, _ = strconv.Atoi(text)
		case "ebucore:height":
			wr.Height, _ = strconv.Atoi(text)
		case "ebucore:duration":
			wr.Duration, _ = strconv.ParseInt(text, 10, 64)
		case "edm:rights":
			wr.Rights = c.attr("rdf:resource")
		}
	}
	return wr
}

func parseEntity(kind EntityKind, about string, n node) ContextualEntity {
	e := ContextualEntity{Kind: kind, About: about, Properties: Properties{}}
	for _, c := range n.Children {
		key := qualified(c.XMLName)
		if key == "skos:prefLabel" {
			e.PrefLabels = append(e.PrefLabels, c.value())
			continue
		}
		e.Properties[key] = append(e.Properties[key], c.value())
	}
	return e
}
