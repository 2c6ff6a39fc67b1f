// loader.go - Load descriptors from JSON, YAML or .posterkit (ZIP) bundles.
//
// A .posterkit bundle holds descriptor.json (or descriptor.yaml) next to the
// images it references by relative path.

package poster

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BundleExt is the file extension of descriptor bundles.
const BundleExt = ".posterkit"

var bundleDescriptors = []string{"descriptor.json", "descriptor.yaml", "descriptor.yml"}

// LoadDescriptor reads a descriptor file or bundle. Relative image paths are
// made absolute against the file's directory (or the extracted bundle). The
// returned cleanup function removes any temp directory.
func LoadDescriptor(path string) (Descriptor, func(), error) {
	noop := func() {}
	if strings.EqualFold(filepath.Ext(path), BundleExt) {
		return loadBundle(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, noop, fmt.Errorf("read descriptor: %w", err)
	}
	desc, err := ParseDescriptor(data, filepath.Ext(path))
	if err != nil {
		return Descriptor{}, noop, fmt.Errorf("parse %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Descriptor{}, noop, fmt.Errorf("resolve %s: %w", path, err)
	}
	resolveAssetPaths(&desc, abs)
	return desc, noop, nil
}

// ParseDescriptor decodes a descriptor. format is a file extension or name
// ("json", ".yaml"); an empty format sniffs JSON by its leading brace.
func ParseDescriptor(data []byte, format string) (Descriptor, error) {
	var desc Descriptor
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return Descriptor{}, fmt.Errorf("parse descriptor YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &desc); err != nil {
			return Descriptor{}, fmt.Errorf("parse descriptor JSON: %w", err)
		}
	case "":
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			return ParseDescriptor(data, "json")
		}
		return ParseDescriptor(data, "yaml")
	default:
		return Descriptor{}, fmt.Errorf("unsupported descriptor format %q: use .json, .yaml or %s", format, BundleExt)
	}
	return desc, nil
}

// LoadOverrides reads a partial descriptor to merge over a base one.
// Malformed files are reported as warnings and yield an empty override.
func LoadOverrides(path string) (Descriptor, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, nil, fmt.Errorf("read overrides: %w", err)
	}
	desc, err := ParseDescriptor(data, filepath.Ext(path))
	if err != nil {
		return Descriptor{}, []string{fmt.Sprintf("malformed %s: %v; using base descriptor only", filepath.Base(path), err)}, nil
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		resolveAssetPaths(&desc, abs)
	}
	return desc, nil, nil
}

func loadBundle(path string) (Descriptor, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return Descriptor{}, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "posterkit-*")
	if err != nil {
		return Descriptor{}, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(&r.Reader, tmpDir); err != nil {
		cleanup()
		return Descriptor{}, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	for _, name := range bundleDescriptors {
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			continue
		}
		desc, err := ParseDescriptor(data, filepath.Ext(name))
		if err != nil {
			cleanup()
			return Descriptor{}, noop, fmt.Errorf("parse %s: %w", name, err)
		}
		resolveAssetPaths(&desc, tmpDir)
		return desc, cleanup, nil
	}

	cleanup()
	return Descriptor{}, noop, fmt.Errorf("%s contains no descriptor.json or descriptor.yaml", path)
}

// resolveAssetPaths makes relative image paths absolute using baseDir.
// URLs with a scheme are left alone.
func resolveAssetPaths(desc *Descriptor, baseDir string) {
	resolve := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" || filepath.IsAbs(p) || hasScheme(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	desc.Event.LogoURL = resolve(desc.Event.LogoURL)
	desc.Event.HeroURL = resolve(desc.Event.HeroURL)
	desc.User.PhotoURL = resolve(desc.User.PhotoURL)
}

func hasScheme(p string) bool {
	return strings.Contains(p, "://") || strings.HasPrefix(p, "data:")
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// WriteBundle packs a descriptor and the local images it references into a
// .posterkit archive. Local image paths are rewritten relative to the bundle.
func WriteBundle(w io.Writer, desc Descriptor) error {
	zw := zip.NewWriter(w)

	add := func(ref *string, name string) error {
		p := *ref
		if p == "" || hasScheme(p) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		entry := "images/" + name + strings.ToLower(filepath.Ext(p))
		fw, err := zw.Create(entry)
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
		*ref = entry
		return nil
	}
	for _, a := range []struct {
		ref  *string
		name string
	}{
		{&desc.Event.LogoURL, "logo"},
		{&desc.Event.HeroURL, "hero"},
		{&desc.User.PhotoURL, "photo"},
	} {
		if err := add(a.ref, a.name); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	fw, err := zw.Create("descriptor.json")
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}
