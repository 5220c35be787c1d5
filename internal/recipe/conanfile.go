package recipe

import (
	"fmt"
	"strings"
)

// Conanfile renders the recipe as a minimal conanfile.py.
//
// The rendered recipe declares only identity and requirements. The
// harness never builds fixture packages, so no settings, sources, or
// build methods are emitted; `conan export` accepts the bare class and
// `conan graph info` resolves from the declarations alone.
func (r Recipe) Conanfile() string {
	var b strings.Builder

	b.WriteString("from conan import ConanFile\n")
	b.WriteString("\n\n")
	b.WriteString("class PackageRecipe(ConanFile):\n")
	fmt.Fprintf(&b, "    name = %q\n", r.Name)
	fmt.Fprintf(&b, "    version = %q\n", r.Version)

	var requires, testRequires []Requirement
	for _, q := range r.Requires {
		if q.Test {
			testRequires = append(testRequires, q)
		} else {
			requires = append(requires, q)
		}
	}

	if len(requires) > 0 {
		b.WriteString("\n    def requirements(self):\n")
		for _, q := range requires {
			fmt.Fprintf(&b, "        self.requires(%q)\n", q.Ref())
		}
	}

	// test_requires live in build_requirements; declaration order is
	// preserved because the resolver walks them in order.
	if len(testRequires) > 0 {
		b.WriteString("\n    def build_requirements(self):\n")
		for _, q := range testRequires {
			fmt.Fprintf(&b, "        self.test_requires(%q)\n", q.Ref())
		}
	}

	return b.String()
}
