package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/jamcut/jamcut/internal/config"
	"github.com/jamcut/jamcut/pkg/jamcut"
	"github.com/jamcut/jamcut/pkg/jamcut/audio"
	"github.com/jamcut/jamcut/pkg/jamcut/match"
	"github.com/jamcut/jamcut/pkg/logger"
)

var version = "0.2.0"

type cli struct {
	Version kong.VersionFlag `short:"v" help:"Show version information."`

	Split splitCmd `cmd:"" help:"Split a recording into one file per non-silent segment."`
	Trim  trimCmd  `cmd:"" help:"Remove silent stretches, producing one trimmed file."`
	Find  findCmd  `cmd:"" help:"Locate reference songs inside a long recording."`
	Batch batchCmd `cmd:"" help:"Process every audio file in a folder."`
}

// silenceFlags are shared by the segmentation commands.
type silenceFlags struct {
	Output       string   `short:"o" help:"Output directory (defaults to the input's directory)." type:"path"`
	Thresh       *float64 `help:"Silence threshold in dBFS (auto-estimated when omitted)."`
	MinSilence   int      `help:"Minimum silence length in ms." default:"-1"`
	KeepSilence  int      `help:"Silence padding to keep around segments, in ms." default:"-1"`
	Auto         bool     `help:"Accept the recommended threshold without prompting."`
}

type splitCmd struct {
	silenceFlags
	Input string `arg:"" help:"Input audio file." type:"existingfile"`
}

type trimCmd struct {
	silenceFlags
	Input string `arg:"" help:"Input audio file." type:"existingfile"`
}

type findCmd struct {
	Input         string  `arg:"" help:"Recording to search." type:"existingfile"`
	Songs         string  `help:"Folder of reference songs." default:"./songs" type:"existingdir"`
	Output        string  `short:"o" help:"Output directory for the CSV report." default:"."`
	MinConfidence float64 `help:"Minimum match confidence in [0,1]." default:"-1"`
	MinSegment    int     `help:"Skip segments shorter than this many ms." default:"30000"`
}

type batchCmd struct {
	silenceFlags
	Folder string `arg:"" help:"Folder of recordings." type:"existingdir"`
	Mode   string `help:"Processing mode." enum:"split,trim" default:"trim"`
}

// app carries the resolved configuration into command Run methods.
type app struct {
	ctx context.Context
	cfg *config.Config
	log *logger.Logger
}

func main() {
	log := logger.GetLogger()

	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("%v", err)
	}
	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(lvl)
	}

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("jamcut"),
		kong.Description("Rehearsal audio processor: silence-aware split/trim and reference song location."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := kctx.Run(&app{ctx: context.Background(), cfg: cfg, log: log}); err != nil {
		log.Fatalf("%v", err)
	}
}

func (a *app) newService(minSilence, keepSilence int, minConfidence float64) *jamcut.Service {
	if minSilence < 0 {
		minSilence = a.cfg.MinSilenceLenMs
	}
	if keepSilence < 0 {
		keepSilence = a.cfg.KeepSilenceMs
	}
	if minConfidence < 0 {
		minConfidence = a.cfg.MinConfidence
	}
	return jamcut.NewService(
		jamcut.WithSampleRate(a.cfg.SampleRate),
		jamcut.WithTempDir(a.cfg.TempDir),
		jamcut.WithFrameMs(a.cfg.FrameMs),
		jamcut.WithSilenceParams(minSilence, keepSilence),
		jamcut.WithMatchConfig(match.Config{MinConfidence: minConfidence}),
		jamcut.WithLogger(a.log),
	)
}

func (c *splitCmd) Run(a *app) error {
	svc := a.newService(c.MinSilence, c.KeepSilence, -1)
	return processFile(a, svc, c.Input, jamcut.ModeSplit, c.silenceFlags)
}

func (c *trimCmd) Run(a *app) error {
	svc := a.newService(c.MinSilence, c.KeepSilence, -1)
	return processFile(a, svc, c.Input, jamcut.ModeTrim, c.silenceFlags)
}

func processFile(a *app, svc *jamcut.Service, input string, mode jamcut.Mode, flags silenceFlags) error {
	a.log.Infof("Processing file: %s", input)
	if info, err := os.Stat(input); err == nil {
		a.log.Infof("File size: %s", humanize.Bytes(uint64(info.Size())))
	}

	buf, err := svc.Decode(a.ctx, input)
	if err != nil {
		return err
	}
	a.log.Infof("Duration: %.2fs | Channels: %d | Sample rate: %d Hz",
		float64(buf.DurationMs())/1000, buf.Channels, buf.SampleRate)

	threshold := flags.Thresh
	if threshold == nil && !flags.Auto {
		est, err := svc.RecommendThreshold(buf)
		if err != nil {
			return err
		}
		v := promptThreshold(a, est.Threshold)
		threshold = &v
	}

	res, err := svc.Process(a.ctx, buf, mode, threshold)
	if err != nil {
		return err
	}
	if len(res.Segments) == 0 {
		a.log.Warnf("No non-silent segments found. Skipping file.")
		return nil
	}

	outDir := flags.Output
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	switch mode {
	case jamcut.ModeSplit:
		for i, out := range res.Outputs {
			path := filepath.Join(outDir, fmt.Sprintf("%s_segment_%d.wav", base, i+1))
			if err := audio.WriteWAV(path, out); err != nil {
				return err
			}
			a.log.Infof("Exported: %s | Duration: %.2fs", path, float64(out.DurationMs())/1000)
		}
	case jamcut.ModeTrim:
		path := filepath.Join(outDir, base+"_trimmed.wav")
		if err := audio.WriteWAV(path, res.Outputs[0]); err != nil {
			return err
		}
		a.log.Infof("Exported trimmed file: %s", path)
	}
	return nil
}

// promptThreshold shows the recommendation and lets the user type an
// override. Purely a CLI concern; the engine only sees the final value.
func promptThreshold(a *app, recommended float64) float64 {
	fmt.Printf("Use recommended threshold (%.1f dBFS)? [Enter=yes / or type manual dBFS]: ", recommended)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return recommended
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return recommended
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		a.log.Warnf("Ignoring invalid threshold %q", line)
		return recommended
	}
	return v
}

func (c *findCmd) Run(a *app) error {
	svc := a.newService(-1, -1, c.MinConfidence)

	refs := findAudioFiles(c.Songs)
	if len(refs) == 0 {
		return fmt.Errorf("no reference songs found in %s", c.Songs)
	}
	for _, ref := range refs {
		title := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
		if _, err := svc.AddReference(a.ctx, ref, title, ""); err != nil {
			a.log.Warnf("Failed to add reference %s: %v", ref, err)
		}
	}
	if svc.Library().Len() == 0 {
		return fmt.Errorf("no usable reference songs in %s", c.Songs)
	}

	buf, err := svc.Decode(a.ctx, c.Input)
	if err != nil {
		return err
	}

	res, err := svc.Process(a.ctx, buf, jamcut.ModeSplit, nil)
	if err != nil {
		return err
	}
	if len(res.Segments) == 0 {
		a.log.Warnf("No non-silent segments found in %s", c.Input)
		return nil
	}

	type row struct {
		segment   int
		timestamp int
		cand      match.Candidate
	}
	var rows []row

	for i, seg := range res.Segments {
		if seg.DurationMs() < c.MinSegment {
			continue
		}
		a.log.Infof("Analyzing segment %d: %s (%.1fs)", i+1, msTimestamp(seg.StartMs), float64(seg.DurationMs())/1000)

		candidates, err := svc.FindSongs(a.ctx, res.Outputs[i])
		if err != nil {
			return err
		}
		for _, cand := range candidates {
			rows = append(rows, row{
				segment:   i + 1,
				timestamp: seg.StartMs + cand.TimestampMs,
				cand:      cand,
			})
			a.log.Infof("  %s: %s - %s (%.2f)", msTimestamp(seg.StartMs+cand.TimestampMs), cand.Title, cand.Artist, cand.Confidence)
		}
	}

	if len(rows) == 0 {
		a.log.Warnf("No matches found in %s", c.Input)
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].timestamp < rows[j].timestamp })

	if err := os.MkdirAll(c.Output, 0o755); err != nil {
		return err
	}
	outPath := filepath.Join(c.Output, "song_detection_results.csv")
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"file", "segment", "time_code", "song", "artist", "confidence"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			filepath.Base(c.Input),
			strconv.Itoa(r.segment),
			msTimestamp(r.timestamp),
			r.cand.Title,
			r.cand.Artist,
			fmt.Sprintf("%.2f", r.cand.Confidence),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	a.log.Infof("Found %d matches. Results saved to: %s", len(rows), outPath)
	return nil
}

func (c *batchCmd) Run(a *app) error {
	mode, err := jamcut.ParseMode(c.Mode)
	if err != nil {
		return err
	}

	files := findAudioFiles(c.Folder)
	if len(files) == 0 {
		return fmt.Errorf("no audio files found in %s", c.Folder)
	}
	a.log.Infof("Found %d audio files", len(files))

	// Files are independent units: each worker owns one buffer and its
	// derived structures exclusively; failures never abort the batch.
	jobs := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < a.cfg.BatchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				svc := a.newService(c.MinSilence, c.KeepSilence, -1)
				flags := c.silenceFlags
				flags.Auto = true
				if err := processFile(a, svc, path, mode, flags); err != nil {
					a.log.Errorf("Failed to process %s: %v", path, err)
				}
			}
		}()
	}
	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	return nil
}

// findAudioFiles lists supported audio files in a folder, sorted.
func findAudioFiles(folder string) []string {
	var out []string
	for _, ext := range []string{"*.wav", "*.mp3", "*.flac", "*.m4a"} {
		for _, pattern := range []string{ext, strings.ToUpper(ext)} {
			matches, _ := filepath.Glob(filepath.Join(folder, pattern))
			out = append(out, matches...)
		}
	}
	sort.Strings(out)
	return out
}

// msTimestamp formats milliseconds as MM:SS.
func msTimestamp(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
