package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/3leaps/jbi/internal/products"
)

// DesktopEntry renders the launcher file for product installed at activeDir.
// The referenced script and icon are not checked for existence.
func DesktopEntry(product products.Product, activeDir string) string {
	bin := filepath.Join(activeDir, "bin")
	return fmt.Sprintf(`[Desktop Entry]
Name=%s
Exec=%s
StartupNotify=true
Terminal=false
Type=Application
Categories=Development;IDE;
Icon=%s
`,
		product.DisplayName,
		filepath.Join(bin, product.BinaryName+".sh"),
		filepath.Join(bin, product.BinaryName+".png"))
}

// DesktopFileName is the launcher file name for product.
func DesktopFileName(product products.Product) string {
	return product.DisplayName + ".desktop"
}

// WriteDesktopEntry creates appDir if needed and writes the launcher file,
// replacing any previous one. It returns the file path.
func WriteDesktopEntry(appDir string, product products.Product, activeDir string) (string, error) {
	// #nosec G301 -- user launcher directory
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "mkdir %s", appDir)
	}
	p := filepath.Join(appDir, DesktopFileName(product))
	// #nosec G306 -- launcher files are world-readable
	if err := os.WriteFile(p, []byte(DesktopEntry(product, activeDir)), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", p)
	}
	return p, nil
}
