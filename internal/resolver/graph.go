package resolver

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/resolvecheck/internal/recipe"
)

// Edge is one resolved requirement relationship.
type Edge struct {
	From      string // depending package name
	To        string // resolved dependency name
	ToVersion recipe.Version
	Test      bool // test_requires edge
}

// Resolution is the resolver's answer: which concrete version was
// selected for each package name, plus the resolved edges. Immutable
// once returned.
type Resolution struct {
	// Versions maps package name to the selected version.
	Versions map[string]recipe.Version

	// Edges holds every requirement relationship in the graph.
	Edges []Edge

	// Duplicates lists package names the resolver assigned more than
	// one version, in the order encountered. A valid resolution has
	// none; the assertion engine reports any as discrepancies.
	Duplicates []string
}

// graphDocument mirrors the JSON emitted by `conan graph info
// --format=json`. Only the fields the harness reads are declared.
type graphDocument struct {
	Graph struct {
		Nodes map[string]graphNode `json:"nodes"`
	} `json:"graph"`
}

type graphNode struct {
	Ref          string               `json:"ref"`
	Name         string               `json:"name"`
	Version      string               `json:"version"`
	Dependencies map[string]graphEdge `json:"dependencies"`
}

type graphEdge struct {
	Ref  string `json:"ref"`
	Test bool   `json:"test"`
}

// ParseGraph decodes a resolver-emitted dependency graph.
//
// Node and edge maps are keyed by numeric node IDs; iteration is
// ordered by ID so repeated parses of the same document are identical.
func ParseGraph(data []byte) (*Resolution, error) {
	var doc graphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dependency graph: %w", err)
	}
	if len(doc.Graph.Nodes) == 0 {
		return nil, fmt.Errorf("parse dependency graph: no nodes")
	}

	res := &Resolution{Versions: make(map[string]recipe.Version)}

	for _, id := range sortedIDs(doc.Graph.Nodes) {
		node := doc.Graph.Nodes[id]
		if node.Name == "" {
			continue
		}
		v, err := recipe.ParseVersion(node.Version)
		if err != nil {
			return nil, fmt.Errorf("node %s (%s): %w", id, node.Name, err)
		}
		if prev, ok := res.Versions[node.Name]; ok {
			if !prev.Equal(v) {
				res.Duplicates = append(res.Duplicates, node.Name)
			}
			continue
		}
		res.Versions[node.Name] = v
	}

	for _, id := range sortedIDs(doc.Graph.Nodes) {
		node := doc.Graph.Nodes[id]
		for _, depID := range sortedIDs(node.Dependencies) {
			dep := node.Dependencies[depID]
			name, version, err := splitRef(dep.Ref)
			if err != nil {
				return nil, fmt.Errorf("node %s (%s): %w", id, node.Name, err)
			}
			res.Edges = append(res.Edges, Edge{
				From:      node.Name,
				To:        name,
				ToVersion: version,
				Test:      dep.Test,
			})
		}
	}

	return res, nil
}

// splitRef splits a resolved reference like "util/1.9" or
// "util/1.9#<revision>" into name and version.
func splitRef(ref string) (string, recipe.Version, error) {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	name, vstr, ok := strings.Cut(ref, "/")
	if !ok || name == "" || vstr == "" {
		return "", recipe.Version{}, fmt.Errorf("malformed reference %q", ref)
	}
	v, err := recipe.ParseVersion(vstr)
	if err != nil {
		return "", recipe.Version{}, fmt.Errorf("reference %q: %w", ref, err)
	}
	return name, v, nil
}

// sortedIDs orders map keys numerically where possible, lexically
// otherwise. Node IDs are small integers rendered as strings.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}
