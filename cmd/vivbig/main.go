/*
vivbig reads and writes VIV/BIG archives, the container format used by
Electronic Arts "Need for Speed" era titles.

Usage:

	vivbig d [OPTIONS] <archive> [<out_dir>]       decode
	vivbig e [OPTIONS] <archive> <file> [<file>...] encode
	vivbig <archive>                                 short-form: info
	vivbig <file> [<file>...]                        short-form: encode to ./<basename>.viv

d extracts files only when -fn or -id selects an entry. Without either,
d prints the directory summary (and writes the -cpio export if one is
requested) and extracts no files.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogier/pflag"

	"github.com/bfut/vivbig/bigfmt"
	"github.com/bfut/vivbig/internal/arpeek"
	"github.com/bfut/vivbig/internal/cpiodump"
	"github.com/bfut/vivbig/internal/dump"
	"github.com/bfut/vivbig/internal/manifest"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return
	}

	switch args[0] {
	case "d":
		runDecode(args[1:])
	case "e":
		runEncode(args[1:])
	default:
		runShortForm(args)
	}
}

func runShortForm(args []string) {
	if len(args) == 1 {
		if _, ok := isRegularFile(args[0]); ok {
			if err := doInfo(args[0], false, false, false); err != nil {
				showError(err)
				os.Exit(1)
			}
			return
		}
	}
	if _, err := doEncode(encodeArgs{
		format:    bigfmt.BigF,
		output:    defaultOutputName(args[0]),
		files:     args,
		overwrite: true,
	}); err != nil {
		showError(err)
		os.Exit(1)
	}
}

func defaultOutputName(firstInput string) string {
	base := filepath.Base(firstInput)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	return "./" + base + ".viv"
}

func isRegularFile(path string) (os.FileInfo, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	return fi, fi.Mode().IsRegular()
}

type decodeFlags struct {
	verbose   bool
	veryVerbose bool
	dryRun    bool
	name      string
	index     int
	hexEscape bool
	stride    int
	overwrite bool
	cpioPath  string
}

func runDecode(args []string) {
	fs := pflag.NewFlagSet("d", pflag.ExitOnError)
	f := decodeFlags{}
	fs.BoolVarP(&f.verbose, "v", "v", false, "verbose pretty-print of directory")
	fs.BoolVarP(&f.veryVerbose, "vv", "", false, "verbose pretty-print plus CRC32 per entry")
	fs.BoolVarP(&f.dryRun, "p", "p", false, "dry-run (plan only, no writes)")
	fs.StringVarP(&f.name, "fn", "", "", "extract by name")
	fs.IntVarP(&f.index, "id", "", 0, "extract by 1-based index")
	fs.BoolVarP(&f.hexEscape, "we", "", false, "hex-escape non-printable filenames")
	fs.IntVarP(&f.stride, "dnl", "", 0, "fixed entry stride")
	fs.BoolVarP(&f.overwrite, "ovr", "", true, "overwrite policy")
	fs.StringVarP(&f.cpioPath, "cpio", "", "", "write all valid entries to a cpio archive (only without -fn/-id)")
	if err := fs.Parse(args); err != nil {
		showError(err)
		os.Exit(1)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		showError(fmt.Errorf("decode requires an archive path"))
		os.Exit(1)
	}
	archivePath := rest[0]
	outDir := "."
	if len(rest) > 1 {
		outDir = rest[1]
	}

	if f.name != "" || f.index > 0 {
		if err := doExtract(archivePath, outDir, f); err != nil {
			showError(err)
			os.Exit(1)
		}
		return
	}

	if err := doInfo(archivePath, f.verbose, f.veryVerbose, f.hexEscape); err != nil {
		showError(err)
		os.Exit(1)
	}

	if f.cpioPath != "" {
		if err := doCpioExport(archivePath, outDir, f.cpioPath); err != nil {
			showError(err)
			os.Exit(1)
		}
	}
}

func doInfo(archivePath string, verbose, veryVerbose, hexEscape bool) error {
	summary, err := bigfmt.GetInfo(archivePath, bigfmt.InspectOptions{})
	if err != nil {
		if be, ok := err.(*bigfmt.Error); ok && be.Kind == bigfmt.InvalidMagic {
			if head, rerr := peekHead(archivePath); rerr == nil && arpeek.Looks(head) {
				ShowWarning(fmt.Sprintf("%s is not a VIV/BIG archive; it looks like an ar(1) archive instead", archivePath))
				if af, aerr := os.Open(archivePath); aerr == nil {
					summary, derr := arpeek.Describe(af)
					af.Close()
					if derr == nil {
						fmt.Print(summary)
					}
				}
			}
		}
		return err
	}

	fmt.Printf("%s: %s, %d bytes, state=%s, entries=%d (%d valid)\n",
		summary.Path, summary.Format, summary.FileSize, summary.State, summary.EntryCount, summary.ValidCount)

	if verbose || veryVerbose {
		fmt.Println(renderDirectory(archivePath, summary, veryVerbose, hexEscape))
	}
	return nil
}

func peekHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, 8)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

func renderDirectory(archivePath string, summary *bigfmt.DirectorySummary, withChecksums, hexEscape bool) string {
	var f *os.File
	if withChecksums {
		var err error
		f, err = os.Open(archivePath)
		if err == nil {
			defer f.Close()
		}
	}

	var entries []dump.Entry
	for i, e := range summary.Directory.Entries {
		entries = append(entries, dump.Entry{
			Index:    i,
			Name:     string(e.Name),
			HexName:  e.HexName,
			Offset:   e.Offset,
			Size:     e.Size,
			Validity: e.Validity.String(),
			Class:    e.Class.String(),
		})
	}

	buf := make([]byte, 64*1024)
	return dump.Walk(fmt.Sprintf("%s directory", summary.Format), entries, func(e dump.Entry) string {
		displayName := e.Name
		if hexEscape {
			displayName = e.HexName
		}
		line := fmt.Sprintf(">> [%d] %s offset=%d size=%d validity=%s class=%s",
			e.Index, displayName, e.Offset, e.Size, e.Validity, e.Class)
		if withChecksums && f != nil && e.Validity == bigfmt.Valid.String() {
			sr := sectionReaderFor(f, int64(e.Offset), int64(e.Size))
			if crc, err := dump.CRC32(sr, buf); err == nil {
				line += fmt.Sprintf(" crc32=%08x", crc)
			}
		}
		return line
	})
}

func doExtract(archivePath, outDir string, f decodeFlags) error {
	summary, err := bigfmt.GetInfo(archivePath, bigfmt.InspectOptions{FixedEntryStride: f.stride})
	if err != nil {
		return err
	}
	src, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer src.Close()

	sel := bigfmt.Selector{}
	if f.name != "" {
		sel.Name = []byte(f.name)
	} else {
		sel.Index = f.index - 1
	}

	result, err := bigfmt.Extract(src, summary.Directory, outDir, sel, bigfmt.ExtractOptions{Overwrite: f.overwrite, DryRun: f.dryRun})
	if err != nil {
		return err
	}
	if result.NotFound {
		ShowWarning("selector matched no entry; zero extracted")
		return nil
	}
	for _, extractErr := range result.Errors {
		ShowWarning(extractErr.Error())
	}
	for _, skipped := range result.Skipped {
		ShowWarning(fmt.Sprintf("skipped invalid or pre-existing entry %d", skipped))
	}
	verb := "extracted"
	if f.dryRun {
		verb = "would extract"
	}
	for _, file := range result.Files {
		fmt.Printf("%s %s (%d bytes)\n", verb, file.Name, file.Size)
	}
	return nil
}

func doCpioExport(archivePath, outDir, cpioPath string) error {
	summary, err := bigfmt.GetInfo(archivePath, bigfmt.InspectOptions{})
	if err != nil {
		return err
	}
	src, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(cpioPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var entries []cpiodump.Entry
	for _, e := range summary.Directory.Entries {
		if e.Validity != bigfmt.Valid {
			continue
		}
		entries = append(entries, cpiodump.Entry{
			Name:    e.OutputName(),
			Size:    int64(e.Size),
			Payload: sectionReaderFor(src, int64(e.Offset), int64(e.Size)),
		})
	}
	return cpiodump.WriteAll(out, entries)
}

type encodeFlags struct {
	verbose     bool
	veryVerbose bool
	dryRun      bool
	stride      int
	format      string
	alignment   int
	overwrite   bool
	manifest    string
}

func runEncode(args []string) {
	fs := pflag.NewFlagSet("e", pflag.ExitOnError)
	f := encodeFlags{}
	fs.BoolVarP(&f.verbose, "v", "v", false, "verbose pretty-print of directory")
	fs.BoolVarP(&f.veryVerbose, "vv", "", false, "verbose pretty-print plus CRC32 per entry")
	fs.BoolVarP(&f.dryRun, "p", "p", false, "dry-run (plan only, no writes)")
	fs.IntVarP(&f.stride, "dnl", "", 0, "fixed entry stride")
	fs.StringVarP(&f.format, "fmt", "", "BIGF", "BIGF/BIGH/BIG4")
	fs.IntVarP(&f.alignment, "aofs", "", 0, "payload alignment")
	fs.BoolVarP(&f.overwrite, "ovr", "", true, "overwrite policy")
	fs.StringVarP(&f.manifest, "manifest", "", "", "load file list and options from a TOML manifest")
	if err := fs.Parse(args); err != nil {
		showError(err)
		os.Exit(1)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		showError(fmt.Errorf("encode requires an archive path"))
		os.Exit(1)
	}
	archivePath := rest[0]
	files := rest[1:]

	if f.manifest != "" && len(files) > 0 {
		showError(fmt.Errorf("-manifest and positional file arguments are mutually exclusive"))
		os.Exit(1)
	}

	format := bigfmt.BigF
	stride := f.stride
	alignment := f.alignment

	if f.manifest != "" {
		def, err := manifest.Load(f.manifest)
		if err != nil {
			showError(err)
			os.Exit(1)
		}
		if def.Archive.Format != "" {
			if parsed, ok := bigfmt.ParseFormat(def.Archive.Format); ok {
				format = parsed
			}
		}
		stride = def.Archive.FixedEntryStride
		alignment = def.Archive.PayloadAlignment
		files = def.Archive.Files
	} else if parsed, ok := bigfmt.ParseFormat(f.format); ok {
		format = parsed
	}

	result, err := doEncode(encodeArgs{
		format:    format,
		output:    archivePath,
		files:     files,
		stride:    stride,
		alignment: alignment,
		dryRun:    f.dryRun,
		overwrite: f.overwrite,
	})
	if err != nil {
		showError(err)
		os.Exit(1)
	}

	for _, w := range result.Warnings {
		ShowWarning(w)
	}
	if f.verbose || f.veryVerbose {
		var entries []dump.Entry
		for i, name := range result.Names {
			entries = append(entries, dump.Entry{Index: i, Name: name, Offset: uint32(result.Offsets[i])})
		}
		fmt.Println(dump.Walk(fmt.Sprintf("%s directory", format), entries, func(e dump.Entry) string {
			return fmt.Sprintf(">> [%d] %s offset=%d", e.Index, e.Name, e.Offset)
		}))
	}
}

type encodeArgs struct {
	format    bigfmt.ArchiveFormat
	output    string
	files     []string
	stride    int
	alignment int
	dryRun    bool
	overwrite bool
}

func doEncode(a encodeArgs) (*bigfmt.EncodeResult, error) {
	if !a.overwrite {
		if _, err := os.Stat(a.output); err == nil {
			return nil, fmt.Errorf("refusing to overwrite existing %s", a.output)
		}
	}

	opts := bigfmt.EncodeOptions{
		Format:           a.format,
		FixedEntryStride: a.stride,
		PayloadAlignment: a.alignment,
		DryRun:           a.dryRun,
	}

	if a.dryRun {
		return bigfmt.Encode(discardWriter{}, a.files, opts)
	}

	out, err := os.Create(a.output)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	return bigfmt.Encode(out, a.files, opts)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func printHelp() {
	program := filepath.Base(os.Args[0])
	fmt.Printf("Usage: %s d [OPTIONS] <archive> [<out_dir>]\n", program)
	fmt.Printf("       %s e [OPTIONS] <archive> <file> [<file>...]\n", program)
	fmt.Printf("       %s <archive>                 (short-form: info)\n", program)
	fmt.Printf("       %s <file> [<file>...]         (short-form: encode to ./<basename>.viv)\n\n", program)
	fmt.Println("Options:")
	fmt.Println("  -v            verbose pretty-print of directory")
	fmt.Println("  -vv           verbose pretty-print plus CRC32 per entry")
	fmt.Println("  -p            dry-run (plan only, no writes)")
	fmt.Println("  -fn NAME      extract by name (decode)")
	fmt.Println("  -id N         extract by 1-based index (decode)")
	fmt.Println("  -we           hex-escape non-printable filenames (decode)")
	fmt.Println("  -dnl N        fixed entry stride")
	fmt.Println("  -fmt FMT      BIGF/BIGH/BIG4 (encode)")
	fmt.Println("  -aofs N       payload alignment (encode)")
	fmt.Println("  -ovr BOOL     overwrite policy")
	fmt.Println("  -manifest PATH  load file list and options from a TOML manifest (encode)")
	fmt.Println("  -cpio PATH    write all valid entries to a cpio archive (decode, only without -fn/-id)")
}

// ShowWarning prints a non-fatal diagnostic line to stderr.
func ShowWarning(msg string) {
	fmt.Fprintf(os.Stderr, "\x1b[33m\x1b[1m>>\x1b[0m %s\n", msg)
}

func showError(err error) {
	fmt.Fprintf(os.Stderr, "\x1b[31m\x1b[1m!!\x1b[0m %s\n", err.Error())
}

func sectionReaderFor(f *os.File, offset, size int64) *io.SectionReader {
	return io.NewSectionReader(f, offset, size)
}
