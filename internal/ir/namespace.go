package ir

import (
	"sort"
	"strings"
)

// Prefixes maps namespace prefixes to namespace IRIs, e.g. "rdfs" to
// "http://www.w3.org/2000/01/rdf-schema#".
type Prefixes map[string]string

// BuiltinPrefixes returns the namespaces every audit can rely on.
func BuiltinPrefixes() Prefixes {
	return Prefixes{
		"rdf":   RDF,
		"rdfs":  "http://www.w3.org/2000/01/rdf-schema#",
		"owl":   "http://www.w3.org/2002/07/owl#",
		"xsd":   XSD,
		"xml":   "http://www.w3.org/XML/1998/namespace",
		"dc":    "http://purl.org/dc/elements/1.1/",
		"swrl":  "http://www.w3.org/2003/11/swrl#",
		"swrlb": "http://www.w3.org/2003/11/swrlb#",
	}
}

// Merge returns a new map with other's entries layered over p.
func (p Prefixes) Merge(other Prefixes) Prefixes {
	out := make(Prefixes, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Names returns the prefixes in sorted order.
func (p Prefixes) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Expand resolves a qualified name such as "rdfs:label". The second result
// is false when the prefix is unknown or s is not a qualified name.
func (p Prefixes) Expand(s string) (IRI, bool) {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok || strings.HasPrefix(local, "//") {
		return "", false
	}
	ns, ok := p[prefix]
	if !ok {
		return "", false
	}
	return IRI(ns + local), true
}

// Compact abbreviates iri with the longest matching namespace. IRIs with no
// matching namespace are returned unchanged.
func (p Prefixes) Compact(iri string) string {
	best, bestNS := "", ""
	for _, name := range p.Names() {
		ns := p[name]
		if ns != "" && strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = name, ns
		}
	}
	if bestNS == "" {
		return iri
	}
	return best + ":" + strings.TrimPrefix(iri, bestNS)
}

// LocalName returns the part of iri after the last '#' or '/'.
func LocalName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
