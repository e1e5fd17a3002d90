package install

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/3leaps/jbi/internal/model"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
)

type tarFile struct {
	*tar.Reader
	closers []io.Closer
}

func (t *tarFile) Close() error {
	var err error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if cerr := t.closers[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openTar opens a tar archive, transparently decompressing gzip or bzip2
// streams recognised by their magic bytes.
func openTar(archivePath string) (*tarFile, error) {
	// #nosec G304 -- archivePath is the file jbi downloaded
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", archivePath)
	}
	tf := &tarFile{closers: []io.Closer{f}}

	br := bufio.NewReader(f)
	head, _ := br.Peek(3)
	var r io.Reader = br
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			_ = tf.Close()
			return nil, model.Mark(err, model.ErrArchiveCorrupt, "open gzip stream %s", archivePath)
		}
		tf.closers = append(tf.closers, gz)
		r = gz
	case bytes.HasPrefix(head, bzip2Magic):
		r = bzip2.NewReader(br)
	}
	tf.Reader = tar.NewReader(r)
	return tf, nil
}

// RootDir reduces an archive entry path to its top-level segment:
// "foo-1.2/bin/x" and "foo-1.2" both yield "foo-1.2".
func RootDir(entryName string) string {
	name := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(entryName)), "/")
	for {
		parent := path.Dir(name)
		if parent == "." || parent == "/" {
			return name
		}
		name = parent
	}
}

// ArchiveRoot reads the first entry of the archive and returns its top-level
// directory name.
func ArchiveRoot(archivePath string) (string, error) {
	tf, err := openTar(archivePath)
	if err != nil {
		return "", err
	}
	defer tf.Close()

	hdr, err := tf.Next()
	if err == io.EOF {
		return "", model.Markf(model.ErrArchiveCorrupt, "%s: archive is empty", archivePath)
	}
	if err != nil {
		return "", model.Mark(err, model.ErrArchiveCorrupt, "%s: read first entry", archivePath)
	}
	root := RootDir(hdr.Name)
	if root == "" || root == "." || root == ".." {
		return "", model.Markf(model.ErrArchiveCorrupt, "%s: first entry %q has no top-level directory", archivePath, hdr.Name)
	}
	return root, nil
}

// Extract writes every entry of the archive below destDir, keeping the
// archive's relative layout. Entries resolving outside destDir are rejected.
func Extract(archivePath, destDir string) error {
	tf, err := openTar(archivePath)
	if err != nil {
		return err
	}
	defer tf.Close()

	// Links are created after all regular content exists, so no file is ever
	// written through a link from the same archive.
	type link struct {
		hdr    *tar.Header
		target string
	}
	var links []link

	base := filepath.Clean(destDir)
	for {
		hdr, err := tf.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Mark(err, model.ErrArchiveCorrupt, "read %s", archivePath)
		}

		// #nosec G305 -- checked against base below
		target := filepath.Join(base, hdr.Name)
		if !withinDir(base, target) {
			return model.Markf(model.ErrArchiveCorrupt, "invalid file path in archive: %s", hdr.Name)
		}

		mode := hdr.FileInfo().Mode().Perm()
		switch hdr.Typeflag {
		case tar.TypeDir:
			// #nosec G301 -- mode comes from the archive
			if err := os.MkdirAll(target, mode|0o700); err != nil {
				return errors.Wrapf(err, "mkdir %s", target)
			}
		case tar.TypeReg:
			if err := writeFile(target, tf.Reader, mode); err != nil {
				return err
			}
		case tar.TypeSymlink, tar.TypeLink:
			links = append(links, link{hdr: hdr, target: target})
		default:
			// devices, fifos and pax metadata are not part of IDE archives
		}
	}

	for _, l := range links {
		// #nosec G301 -- parent of an in-prefix entry
		if err := os.MkdirAll(filepath.Dir(l.target), 0o755); err != nil {
			return errors.Wrapf(err, "mkdir %s", filepath.Dir(l.target))
		}
		_ = os.Remove(l.target)
		if l.hdr.Typeflag == tar.TypeSymlink {
			if err := os.Symlink(l.hdr.Linkname, l.target); err != nil {
				return errors.Wrapf(err, "symlink %s -> %s", l.target, l.hdr.Linkname)
			}
			continue
		}
		src := filepath.Join(base, l.hdr.Linkname)
		if src == base || !withinDir(base, src) {
			return model.Markf(model.ErrArchiveCorrupt, "invalid hard link in archive: %s -> %s", l.hdr.Name, l.hdr.Linkname)
		}
		if err := os.Link(src, l.target); err != nil {
			return errors.Wrapf(err, "link %s -> %s", l.target, src)
		}
	}
	return nil
}

// withinDir reports whether p is base or lies below it. Both are clean paths.
func withinDir(base, p string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	// #nosec G301 -- parent of an in-prefix entry
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(target))
	}
	// #nosec G304 -- target is checked to be below the prefix
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrapf(err, "create %s", target)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return model.Mark(err, model.ErrArchiveCorrupt, "truncated entry %s", target)
		}
		return errors.Wrapf(err, "write %s", target)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close %s", target)
	}
	return nil
}
