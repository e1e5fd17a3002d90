// Package products holds the fixed table of installable IDE products and
// resolves user-supplied names and aliases to a product.
package products

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/3leaps/jbi/internal/model"
)

// Product describes one installable IDE.
type Product struct {
	DisplayName string   // e.g. "CLion", also the .desktop file name
	Code        string   // vendor short code used in metadata queries
	BinaryName  string   // launcher base name under bin/
	Aliases     []string // always ends with Code
}

// Registry is an immutable, case-insensitive name → product lookup.
type Registry struct {
	products []Product
	byName   map[string]*Product
}

var catalog = []Product{
	{DisplayName: "CLion", Code: "CL", BinaryName: "clion"},
	{DisplayName: "IntelliJ-Ultimate", Code: "IIU", BinaryName: "idea", Aliases: []string{"idea", "ideaU"}},
	{DisplayName: "IntelliJ-Community", Code: "IIC", BinaryName: "idea", Aliases: []string{"ideaC"}},
	{DisplayName: "PyCharm-Professional", Code: "PCP", BinaryName: "pycharm", Aliases: []string{"pycharmP"}},
	{DisplayName: "PyCharm-Community", Code: "PCC", BinaryName: "pycharm", Aliases: []string{"pycharmC"}},
	{DisplayName: "WebStorm", Code: "WS", BinaryName: "webstorm"},
	{DisplayName: "DataGrip", Code: "DG", BinaryName: "datagrip"},
	{DisplayName: "PhpStorm", Code: "PS", BinaryName: "phpstorm", Aliases: []string{"PH"}},
	{DisplayName: "GoLand", Code: "GO", BinaryName: "goland"},
	{DisplayName: "RubyMine", Code: "RM", BinaryName: "rubymine"},
	{DisplayName: "Rider", Code: "RD", BinaryName: "rider"},
}

// Default returns a registry over the built-in product table.
func Default() *Registry {
	reg, err := New(catalog)
	if err != nil {
		panic(err)
	}
	return reg
}

// New builds a registry from the given products. The short code of each
// product is appended to its aliases. Two products sharing a short code, or a
// name that maps to two different products, is an error.
func New(list []Product) (*Registry, error) {
	reg := &Registry{
		products: make([]Product, 0, len(list)),
		byName:   make(map[string]*Product),
	}
	for _, p := range list {
		p.Aliases = append(append([]string(nil), p.Aliases...), p.Code)
		reg.products = append(reg.products, p)
	}
	for i := range reg.products {
		p := &reg.products[i]
		names := append([]string{p.DisplayName}, p.Aliases...)
		for _, name := range names {
			key := strings.ToLower(name)
			if other, ok := reg.byName[key]; ok && other != p {
				return nil, errors.Newf("name %q maps to both %s and %s", name, other.DisplayName, p.DisplayName)
			}
			reg.byName[key] = p
		}
	}
	return reg, nil
}

// Resolve finds a product by display name or alias, ignoring case.
func (r *Registry) Resolve(name string) (Product, error) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Product{}, model.Markf(model.ErrUnknownProduct, "unknown product: %s", name)
	}
	return *p, nil
}

// Products returns the products in table order.
func (r *Registry) Products() []Product {
	return append([]Product(nil), r.products...)
}

// Epilog renders the "Available products" block printed with usage text.
func (r *Registry) Epilog() string {
	var b strings.Builder
	b.WriteString("Available products:")
	for _, p := range r.products {
		fmt.Fprintf(&b, "\n  %-25s aliases: %s", p.DisplayName, strings.Join(p.Aliases, " "))
	}
	return b.String()
}
