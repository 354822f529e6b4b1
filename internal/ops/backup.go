package ops

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// manifestName is the first entry of every archive. It describes the archive
// and is never extracted into the target directory.
const manifestName = "reps-manifest.json"

// Manifest records what a backup archive holds, so a restore can be checked
// against what was archived.
type Manifest struct {
	CreatedAt string `json:"createdAt"`
	Tasks     int    `json:"tasks"`
	HasPrefs  bool   `json:"hasPrefs"`
}

// BackupDataDir archives a data directory into a tar.gz at archivePath. The
// source is verified before anything is written: corrupt task state never
// makes it into a backup. The manifest goes in first, then every regular
// file under srcDir.
func BackupDataDir(srcDir, archivePath string) error {
	srcDir = filepath.Clean(strings.TrimSpace(srcDir))
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if srcDir == "" || archivePath == "" {
		return fmt.Errorf("srcDir and archivePath are required")
	}
	info, err := os.Stat(srcDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("source is not a directory: %s", srcDir)
	}

	rep, err := VerifyDataDir(srcDir)
	if err != nil {
		return fmt.Errorf("refusing to back up %s: %w", srcDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	man := Manifest{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Tasks:     rep.Tasks,
		HasPrefs:  rep.HasPrefs,
	}
	if err := writeManifest(tw, man); err != nil {
		return err
	}

	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == srcDir {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == manifestName {
			return fmt.Errorf("data dir contains reserved file %s", manifestName)
		}

		if d.Type()&os.ModeSymlink != 0 {
			// Skip symlinks for predictable backup/restore.
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if info.IsDir() && !strings.HasSuffix(hdr.Name, "/") {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		if _, err := io.Copy(tw, src); err != nil {
			return err
		}
		return nil
	})
}

func writeManifest(tw *tar.Writer, man Manifest) error {
	b, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:     manifestName,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(b)),
		ModTime:  time.Now().UTC(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = tw.Write(b)
	return err
}

// RestoreDataDir unpacks a backup archive into targetDir and returns the
// archive's manifest. The manifest entry itself is read, not extracted.
// After extraction the target is verified and, when the archive carried a
// manifest, cross-checked against it. Archives produced by other tools may
// lack a manifest; those restore with a zero Manifest.
func RestoreDataDir(archivePath, targetDir string) (Manifest, error) {
	var man Manifest
	haveManifest := false

	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	targetDir = filepath.Clean(strings.TrimSpace(targetDir))
	if archivePath == "" || targetDir == "" {
		return man, fmt.Errorf("archivePath and targetDir are required")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return man, err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return man, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return man, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return man, err
		}

		rel, err := sanitizeArchiveRelPath(hdr.Name)
		if err != nil {
			return man, err
		}
		if rel == manifestName {
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, tr); err != nil {
				return man, err
			}
			if err := json.Unmarshal(buf.Bytes(), &man); err != nil {
				return man, fmt.Errorf("%s: %w", manifestName, err)
			}
			haveManifest = true
			continue
		}
		outPath := filepath.Join(targetDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(outPath, os.FileMode(hdr.Mode)); err != nil {
				return man, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return man, err
			}
			dst, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
			if err != nil {
				return man, err
			}
			if _, err := io.Copy(dst, tr); err != nil {
				_ = dst.Close()
				return man, err
			}
			if err := dst.Close(); err != nil {
				return man, err
			}
		default:
			// Ignore unsupported entry types.
		}
	}

	if haveManifest {
		rep, err := VerifyDataDir(targetDir)
		if err != nil {
			return man, fmt.Errorf("restored data failed verification: %w", err)
		}
		if rep.Tasks != man.Tasks {
			return man, fmt.Errorf("restored %d tasks, manifest says %d", rep.Tasks, man.Tasks)
		}
	}

	return man, nil
}

func sanitizeArchiveRelPath(name string) (string, error) {
	name = filepath.Clean(strings.TrimSpace(name))
	if name == "." || name == "" {
		return "", fmt.Errorf("invalid archive entry path")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid absolute archive entry path: %s", name)
	}
	if strings.HasPrefix(name, ".."+string(filepath.Separator)) || name == ".." {
		return "", fmt.Errorf("invalid archive entry path traversal: %s", name)
	}
	return name, nil
}
