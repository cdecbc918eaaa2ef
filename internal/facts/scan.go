package facts

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"shamash/internal/pathutil"
	"shamash/internal/policy"
)

// Origin is one discovered, not-yet-read class input.
type Origin struct {
	Location SourceLocation
	Open     func() ([]byte, error)
}

// externalBucketPrefix tags synthesized origin paths for archives admitted
// only under project-with-external-buckets scope (spec.md §4.4).
const externalBucketPrefix = "__external__:"

// Discover walks project.BytecodeRoots (directory class files) and, per
// scope, project.ArchiveGlobs (jar entries), returning one Origin per class
// found. Discovery order is deterministic: roots in configured order, then
// lexical directory-walk order within each root.
func Discover(ctx context.Context, project policy.ProjectConfig) ([]Origin, error) {
	var origins []Origin

	for _, root := range project.BytecodeRoots {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		found, err := discoverDirectory(ctx, root, project)
		if err != nil {
			return nil, err
		}
		origins = append(origins, found...)
	}

	if project.ScanScope == policy.ScopeProjectOnly {
		return origins, nil
	}

	for _, glob := range project.ArchiveGlobs {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		matches, err := archiveMatches(project, glob)
		if err != nil {
			return nil, err
		}
		for _, archivePath := range matches {
			if max := project.Limits.MaxArchiveBytes; max > 0 {
				if info, statErr := os.Stat(archivePath); statErr == nil && info.Size() > max {
					return nil, LimitError{Limit: "maxArchiveBytes", Value: info.Size(), Maximum: max}
				}
			}
			found, err := discoverArchive(archivePath)
			if err != nil {
				return nil, fmt.Errorf("scan archive %s: %w", archivePath, err)
			}
			origins = append(origins, found...)
		}
	}
	return origins, nil
}

func discoverDirectory(ctx context.Context, root string, project policy.ProjectConfig) ([]Origin, error) {
	var origins []Origin
	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !project.FollowSymlinks && isSymlink(d) {
			return nil
		}
		rel := pathutil.Relativize(root, path)
		if !admits(project, rel) {
			return nil
		}
		p := path
		origins = append(origins, Origin{
			Location: SourceLocation{
				OriginKind: OriginDirectoryClass,
				OriginPath: pathutil.Normalize(p),
			},
			Open: func() ([]byte, error) { return os.ReadFile(p) },
		})
		return nil
	}
	if err := filepath.WalkDir(root, walkFn); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("scan directory %s: %w", root, err)
	}
	return origins, nil
}

func admits(project policy.ProjectConfig, rel string) bool {
	includes := project.IncludeGlobs
	if len(includes) == 0 {
		includes = []string{"**/*.class"}
	}
	if !pathutil.MatchAny(includes, rel) {
		return false
	}
	if pathutil.MatchAny(project.ExcludeGlobs, rel) {
		return false
	}
	return true
}

func archiveMatches(project policy.ProjectConfig, glob string) ([]string, error) {
	for _, root := range project.BytecodeRoots {
		candidates, err := filepath.Glob(filepath.Join(root, glob))
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return filepath.Glob(glob)
}

// discoverArchive opens a jar/zip and yields one Origin per *.class entry.
// Entries are bucketed under the external-bucket identity regardless of
// scope, since the caller only invokes this for archives admitted beyond
// project-only scope (spec.md §4.4).
func discoverArchive(archivePath string) ([]Origin, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var origins []Origin
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || filepath.Ext(f.Name) != ".class" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		origins = append(origins, Origin{
			Location: SourceLocation{
				OriginKind:    OriginArchiveEntry,
				OriginPath:    externalBucketPrefix + pathutil.Normalize(archivePath),
				ContainerPath: pathutil.Normalize(archivePath),
				EntryPath:     pathutil.Normalize(f.Name),
			},
			Open: func() ([]byte, error) { return data, nil },
		})
	}
	return origins, nil
}

func isSymlink(d os.DirEntry) bool {
	return d.Type()&os.ModeSymlink != 0
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
