// Package visual captures page screenshots and compares them with stored
// baseline images using a per-pixel tolerance and a mismatch budget.
package visual

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/pinchtab/translatecheck/internal/config"
)

// Shooter is the capture half of page.Page.
type Shooter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// CompareOptions are caller-supplied per comparison; animated regions need
// looser settings than static ones.
type CompareOptions struct {
	MismatchThreshold int
	ToleranceSlack    int
}

// Record describes one comparison.
type Record struct {
	Name             string `json:"name" yaml:"name"`
	BaselinePath     string `json:"baselinePath" yaml:"baselinePath"`
	CurrentPath      string `json:"currentPath" yaml:"currentPath"`
	DiffPath         string `json:"diffPath,omitempty" yaml:"diffPath,omitempty"`
	MismatchedPixels int    `json:"mismatchedPixels" yaml:"mismatchedPixels"`
	Threshold        int    `json:"threshold" yaml:"threshold"`
	Slack            int    `json:"slack" yaml:"slack"`
	Passed           bool   `json:"passed" yaml:"passed"`
}

// BaselineMissingError means no reference image exists yet. It usually calls
// for generating a baseline, not for a rendering fix.
type BaselineMissingError struct {
	Name string
	Path string
}

func (e *BaselineMissingError) Error() string {
	return fmt.Sprintf("baseline %q not found at %s", e.Name, e.Path)
}

// DimensionMismatchError means the viewport was not pinned to the size the
// baseline was captured at.
type DimensionMismatchError struct {
	Name     string
	Baseline image.Point
	Current  image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("screenshot %q is %dx%d but baseline is %dx%d",
		e.Name, e.Current.X, e.Current.Y, e.Baseline.X, e.Baseline.Y)
}

// stampLayout sorts lexically in time order.
const stampLayout = "20060102-150405.000"

// Store maps capture names to baseline and current files.
type Store struct {
	BaselineDir string
	CurrentDir  string
	Ext         string
	KeepPassing bool
	Log         *slog.Logger
	// Stamp keeps one run's captures apart from earlier runs in the same
	// CurrentDir. It is set from the clock on first capture when empty.
	Stamp string

	mu      sync.Mutex
	counter int
	latest  map[string]string
}

func NewStore(cfg *config.RuntimeConfig, log *slog.Logger) *Store {
	return &Store{
		BaselineDir: cfg.BaselineDir(),
		CurrentDir:  cfg.CurrentDir(),
		Ext:         cfg.ScreenshotExt,
		KeepPassing: cfg.KeepPassing,
		Log:         log,
		Stamp:       time.Now().UTC().Format(stampLayout),
	}
}

func (s *Store) ext() string {
	if s.Ext == "" {
		return "png"
	}
	return strings.TrimPrefix(s.Ext, ".")
}

func (s *Store) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Store) BaselinePath(name string) string {
	return filepath.Join(s.BaselineDir, name+"."+s.ext())
}

// Capture writes the current viewport to CurrentDir/{name}-{stamp}-{NNN}.{ext}.
func (s *Store) Capture(ctx context.Context, shooter Shooter, name string) (string, error) {
	if err := s.checkName(name); err != nil {
		return "", err
	}
	buf, err := shooter.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("screenshot %s: %w", name, err)
	}
	if err := os.MkdirAll(s.CurrentDir, 0750); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	s.mu.Lock()
	if s.Stamp == "" {
		s.Stamp = time.Now().UTC().Format(stampLayout)
	}
	s.counter++
	path := filepath.Join(s.CurrentDir, fmt.Sprintf("%s-%s-%03d.%s", name, s.Stamp, s.counter, s.ext()))
	if s.latest == nil {
		s.latest = make(map[string]string)
	}
	s.latest[name] = path
	s.mu.Unlock()

	if err := os.WriteFile(path, buf, 0600); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	s.logger().Debug("captured", "name", name, "path", path, "bytes", len(buf))
	return path, nil
}

// Compare diffs currentPath against the baseline for baselineName. A
// *BaselineMissingError or *DimensionMismatchError is returned instead of a
// pixel count when the comparison cannot be made. Failing captures are kept
// together with a diff overlay; passing ones are removed unless KeepPassing.
func (s *Store) Compare(currentPath, baselineName string, opts CompareOptions) (Record, error) {
	rec := Record{
		Name:         baselineName,
		BaselinePath: s.BaselinePath(baselineName),
		CurrentPath:  currentPath,
		Threshold:    opts.MismatchThreshold,
		Slack:        opts.ToleranceSlack,
	}

	base, err := decodeFile(rec.BaselinePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, &BaselineMissingError{Name: baselineName, Path: rec.BaselinePath}
		}
		return rec, fmt.Errorf("load baseline: %w", err)
	}
	cur, err := decodeFile(currentPath)
	if err != nil {
		return rec, fmt.Errorf("load current: %w", err)
	}

	mismatched, mask, err := Diff(base, cur, opts.ToleranceSlack)
	if err != nil {
		var dm *DimensionMismatchError
		if errors.As(err, &dm) {
			dm.Name = baselineName
		}
		return rec, err
	}
	rec.MismatchedPixels = mismatched
	rec.Passed = mismatched <= opts.MismatchThreshold

	if rec.Passed {
		if !s.KeepPassing {
			if err := os.Remove(currentPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.logger().Warn("remove passing capture", "path", currentPath, "err", err)
			}
		}
		return rec, nil
	}

	rec.DiffPath = strings.TrimSuffix(currentPath, filepath.Ext(currentPath)) + "-diff.png"
	if err := writePNG(rec.DiffPath, Overlay(base, mask)); err != nil {
		s.logger().Warn("write diff overlay", "path", rec.DiffPath, "err", err)
		rec.DiffPath = ""
	}
	s.logger().Warn("screenshot mismatch", "name", baselineName, "pixels", mismatched, "threshold", opts.MismatchThreshold, "current", currentPath, "diff", rec.DiffPath)
	return rec, nil
}

// Approve copies the newest capture for name over its baseline. It is an
// explicit operator action and never runs as part of a comparison.
func (s *Store) Approve(name string) (string, error) {
	if err := s.checkName(name); err != nil {
		return "", err
	}
	src := s.latestCapture(name)
	if src == "" {
		return "", fmt.Errorf("no capture for %q in %s", name, s.CurrentDir)
	}
	mt, err := mimetype.DetectFile(src)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("capture %s is %s, not an image", src, mt.String())
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.BaselineDir, 0755); err != nil {
		return "", fmt.Errorf("create baseline dir: %w", err)
	}
	dst := s.BaselinePath(name)
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("write baseline: %w", err)
	}
	return dst, nil
}

// latestCapture returns the capture this store wrote last for name or, in a
// fresh process, the newest one on disk ordered by stamp then counter. Diff
// overlays and other names sharing the prefix are skipped.
func (s *Store) latestCapture(name string) string {
	s.mu.Lock()
	p := s.latest[name]
	s.mu.Unlock()
	if p != "" {
		return p
	}

	re := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `-(?:(\d{8}-\d{6}\.\d{3})-)?(\d{3,})\.` + regexp.QuoteMeta(s.ext()) + `$`)
	entries, err := os.ReadDir(s.CurrentDir)
	if err != nil {
		return ""
	}
	var (
		best       string
		bestStamp  string
		bestSerial int
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		serial, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if best == "" || m[1] > bestStamp || (m[1] == bestStamp && serial > bestSerial) {
			best, bestStamp, bestSerial = e.Name(), m[1], serial
		}
	}
	if best == "" {
		return ""
	}
	return filepath.Join(s.CurrentDir, best)
}

// Diff counts pixels whose largest per-channel difference exceeds slack and
// returns a mask of them. Bounds must match in size.
func Diff(base, cur image.Image, slack int) (int, *image.Alpha, error) {
	bb, cb := base.Bounds(), cur.Bounds()
	if bb.Size() != cb.Size() {
		return 0, nil, &DimensionMismatchError{Baseline: bb.Size(), Current: cb.Size()}
	}

	mask := image.NewAlpha(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	count := 0
	for y := 0; y < bb.Dy(); y++ {
		for x := 0; x < bb.Dx(); x++ {
			d := Distance(base.At(bb.Min.X+x, bb.Min.Y+y), cur.At(cb.Min.X+x, cb.Min.Y+y))
			if d > slack {
				count++
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return count, mask, nil
}

// Distance is the maximum absolute difference across 8-bit RGBA channels.
func Distance(a, b color.Color) int {
	ac := color.NRGBAModel.Convert(a).(color.NRGBA)
	bc := color.NRGBAModel.Convert(b).(color.NRGBA)
	return max(absDiff(ac.R, bc.R), absDiff(ac.G, bc.G), absDiff(ac.B, bc.B), absDiff(ac.A, bc.A))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Overlay renders base dimmed to a third of its brightness with mismatched
// pixels painted red.
func Overlay(base image.Image, mask *image.Alpha) *image.NRGBA {
	b := base.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] /= 3
		out.Pix[i+1] /= 3
		out.Pix[i+2] /= 3
	}
	red := &image.Uniform{C: color.NRGBA{R: 0xff, A: 0xff}}
	draw.DrawMask(out, out.Bounds(), red, image.Point{}, mask, image.Point{}, draw.Over)
	return out
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
