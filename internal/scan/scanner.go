// Package scan walks an input directory and produces the ordered list of
// files the pipeline works through.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"cinematch/internal/logging"
)

// FileRecord describes one file found under the scan root.
type FileRecord struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Dir     string `json:"dir"`
	Size    int64  `json:"size"`
	Ext     string `json:"ext"`
	IsVideo bool   `json:"is_video"`
}

// Options controls which files the scanner reports.
type Options struct {
	VideoExtensions    []string
	SubtitleExtensions []string
	IgnorePatterns     []string
	MinVideoSize       int64
	MaxDepth           int
}

// Result holds a completed scan. Files are sorted by path.
type Result struct {
	Root    string
	Files   []FileRecord
	Ignored []string
	Errors  []string
}

// Videos returns only the video records, preserving order.
func (r *Result) Videos() []FileRecord {
	if r == nil {
		return nil
	}
	out := make([]FileRecord, 0, len(r.Files))
	for _, f := range r.Files {
		if f.IsVideo {
			out = append(out, f)
		}
	}
	return out
}

// Scanner walks a filesystem. The zero filesystem is the host OS.
type Scanner struct {
	fs     afero.Fs
	opts   Options
	logger *slog.Logger
}

// New constructs a Scanner.
func New(fsys afero.Fs, opts Options, logger *slog.Logger) *Scanner {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Scanner{
		fs:     fsys,
		opts:   normalizeOptions(opts),
		logger: logging.NewComponentLogger(logger, "scan"),
	}
}

// Scan walks root. An unreadable or missing root is an error; problems below
// the root are recorded in Result.Errors and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	root = filepath.Clean(strings.TrimSpace(root))
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", root)
	}

	result := &Result{Root: root}
	walkErr := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		name := info.Name()
		if info.IsDir() {
			if isHidden(name) || s.depth(root, path) > s.opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(name) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		video := slices.Contains(s.opts.VideoExtensions, ext)
		subtitle := slices.Contains(s.opts.SubtitleExtensions, ext)
		if !video && !subtitle {
			return nil
		}
		if reason := s.ignoreReason(name, info.Size(), video); reason != "" {
			s.logger.Debug("ignoring file",
				logging.String("path", path),
				logging.String("reason", reason),
			)
			result.Ignored = append(result.Ignored, path)
			return nil
		}
		result.Files = append(result.Files, FileRecord{
			Path:    path,
			Name:    name,
			Dir:     filepath.Base(filepath.Dir(path)),
			Size:    info.Size(),
			Ext:     ext,
			IsVideo: video,
		})
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, fs.SkipDir) {
		return nil, fmt.Errorf("scan %s: %w", root, walkErr)
	}

	slices.SortFunc(result.Files, func(a, b FileRecord) int { return strings.Compare(a.Path, b.Path) })
	for _, msg := range result.Errors {
		logging.WarnWithContext(s.logger, "scan entry unreadable", "scan_entry_error",
			logging.String("detail", msg),
			logging.String(logging.FieldErrorHint, "check directory permissions"),
			logging.String(logging.FieldImpact, "entry skipped"),
		)
	}
	s.logger.Info("scan completed",
		logging.String("root", root),
		logging.Int("video_files", len(result.Videos())),
		logging.Int("files", len(result.Files)),
		logging.Int("ignored", len(result.Ignored)),
	)
	return result, nil
}

func (s *Scanner) ignoreReason(name string, size int64, video bool) string {
	lower := strings.ToLower(name)
	for _, pattern := range s.opts.IgnorePatterns {
		if strings.Contains(lower, pattern) {
			return "pattern " + pattern
		}
	}
	if video && size < s.opts.MinVideoSize {
		return "below minimum size"
	}
	return ""
}

func (s *Scanner) depth(root, dir string) int {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func normalizeOptions(opts Options) Options {
	opts.VideoExtensions = normalizeExtensions(opts.VideoExtensions)
	opts.SubtitleExtensions = normalizeExtensions(opts.SubtitleExtensions)
	patterns := make([]string, 0, len(opts.IgnorePatterns))
	for _, p := range opts.IgnorePatterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			patterns = append(patterns, p)
		}
	}
	opts.IgnorePatterns = patterns
	if opts.MinVideoSize < 0 {
		opts.MinVideoSize = 0
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	return opts
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
