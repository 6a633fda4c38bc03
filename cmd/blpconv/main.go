// Package main provides a command-line tool for converting BLP textures.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/goopsie/blpconv/pkg/blp"
	"github.com/goopsie/blpconv/pkg/convert"
	"github.com/goopsie/blpconv/pkg/store"
	"github.com/goopsie/blpconv/pkg/texture"
)

var (
	mode           string
	inputPath      string
	outputPath     string
	sourcePath     string
	listFilePath   string
	packageName    string
	formatName     string
	rawFormatName  string
	width          int
	height         int
	layers         int
	workers        int
	generateMips   bool
	uncompressed   bool
	opaqueBC1Black bool
	legacyHeader   bool
)

func init() {
	flag.StringVar(&mode, "mode", "", "Operation mode: info, convert, png, raw, extract, pack")
	flag.StringVar(&inputPath, "input", "", "Input file (info, convert, png, raw) or directory (pack)")
	flag.StringVar(&outputPath, "output", "", "Output file (convert, png, raw) or directory (extract, pack)")
	flag.StringVar(&sourcePath, "source", "", "Source directory or pack directory for extract mode")
	flag.StringVar(&listFilePath, "listfile", "", "List file of id;path lines (extract, pack)")
	flag.StringVar(&packageName, "package", "", "Pack name; extract reads a pack when set")
	flag.StringVar(&formatName, "format", "", "Output format: rgb, rgba, bc1, bc1a, bc2, bc3 (default: chosen from input)")
	flag.StringVar(&rawFormatName, "raw-format", "bgra8", "Raw input layout: bgra8, rgba32f, r32f")
	flag.IntVar(&width, "width", 0, "Raw input width")
	flag.IntVar(&height, "height", 0, "Raw input height")
	flag.IntVar(&layers, "layers", 1, "Raw input layers; more than one writes a volume texture")
	flag.IntVar(&workers, "workers", 0, "Concurrent conversions in extract mode (default: number of CPUs)")
	flag.BoolVar(&generateMips, "mips", false, "Generate a full mip chain")
	flag.BoolVar(&uncompressed, "uncompressed", false, "Write uncompressed RGBA instead of block compression")
	flag.BoolVar(&legacyHeader, "legacy-header", false, "Write DXT1/DXT3/DXT5 FourCC headers instead of the DX10 extension")
	flag.BoolVar(&opaqueBC1Black, "opaque-bc1-black", false, "Decode the fourth BC1 color as opaque black")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := validateFlags(); err != nil {
		flag.Usage()
		return err
	}

	switch mode {
	case "info":
		return runInfo()
	case "convert":
		return runConvert()
	case "png":
		return runPNG()
	case "raw":
		return runRaw()
	case "extract":
		return runExtract()
	case "pack":
		return runPack()
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

func validateFlags() error {
	if mode == "" {
		return fmt.Errorf("mode is required")
	}

	switch mode {
	case "info":
		if inputPath == "" {
			return fmt.Errorf("info mode requires -input")
		}
	case "convert", "png":
		if inputPath == "" || outputPath == "" {
			return fmt.Errorf("%s mode requires -input and -output", mode)
		}
	case "raw":
		if inputPath == "" || outputPath == "" {
			return fmt.Errorf("raw mode requires -input and -output")
		}
		if width <= 0 || height <= 0 || layers <= 0 {
			return fmt.Errorf("raw mode requires positive -width, -height and -layers")
		}
		if formatName == "" {
			return fmt.Errorf("raw mode requires -format")
		}
	case "extract":
		if sourcePath == "" || listFilePath == "" || outputPath == "" {
			return fmt.Errorf("extract mode requires -source, -listfile and -output")
		}
	case "pack":
		if inputPath == "" || listFilePath == "" || outputPath == "" {
			return fmt.Errorf("pack mode requires -input, -listfile and -output")
		}
		if packageName == "" {
			packageName = "textures"
		}
	default:
		return fmt.Errorf("mode must be one of info, convert, png, raw, extract, pack")
	}

	return nil
}

func runInfo() error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if bytes.HasPrefix(data, []byte("DDS ")) {
		info, err := texture.ParseDDSHeader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parse dds: %w", err)
		}
		fmt.Println(info)
		return nil
	}

	h, err := blp.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("parse blp: %w", err)
	}

	fmt.Printf("File: %s\n", inputPath)
	fmt.Printf("Dimensions: %dx%d\n", h.Width, h.Height)
	fmt.Printf("Compression: %d\n", h.Compression)
	fmt.Printf("Alpha depth: %d\n", h.AlphaDepth)
	fmt.Printf("Alpha compression: %d\n", h.AlphaCompression)
	fmt.Printf("Mip levels: %d\n", h.MipLevels)
	fmt.Printf("Mip 0: offset %d, size %d\n", h.Offsets[0], h.Sizes[0])
	fmt.Printf("Format: %s\n", blp.Classify(h))
	fmt.Printf("DDS output: %s\n", convert.SelectFormat(h))
	return nil
}

func convertOptions() ([]convert.ConvertOption, error) {
	opts := []convert.ConvertOption{
		convert.WithMipmaps(generateMips),
		convert.WithCompression(!uncompressed),
		convert.WithPremultipliedAlpha(!opaqueBC1Black),
		convert.WithLegacyHeader(legacyHeader),
	}
	if formatName != "" {
		format, err := texture.ParseFormat(formatName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, convert.WithFormat(format))
	}
	return opts, nil
}

func runConvert() error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if bytes.HasPrefix(data, blp.Magic[:]) {
		opts, err := convertOptions()
		if err != nil {
			return err
		}
		if err := convert.ConvertBLP(data, outputPath, opts...); err != nil {
			return err
		}
		fmt.Printf("Converted %s -> %s\n", inputPath, outputPath)
		return nil
	}

	// Any other image format registered with the image package.
	img, kind, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	surface := texture.NewSurface(img)
	format := texture.DetectFormat(surface.Layers[0])
	switch {
	case formatName != "":
		if format, err = texture.ParseFormat(formatName); err != nil {
			return err
		}
	case uncompressed:
		format = texture.FormatRGBA
	}

	if err := texture.WriteFile(outputPath, surface, format,
		texture.WithMipmaps(generateMips), texture.WithLegacyHeader(legacyHeader)); err != nil {
		return fmt.Errorf("write dds: %w", err)
	}

	fmt.Printf("Converted %s (%s, %dx%d) -> %s [%s]\n", inputPath, kind, surface.Width, surface.Height, outputPath, format)
	return nil
}

func runPNG() error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	img, err := blp.Decode(data, blp.WithPremultipliedAlpha(!opaqueBC1Black))
	if err != nil {
		return fmt.Errorf("decode blp: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img.NRGBA()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	fmt.Printf("Decoded %s (%s, %dx%d) -> %s\n", inputPath, img.Format, img.Width, img.Height, outputPath)
	return f.Close()
}

func parseRawFormat(name string) (texture.InputFormat, error) {
	switch strings.ToLower(name) {
	case "bgra8":
		return texture.InputBGRA8, nil
	case "rgba32f":
		return texture.InputRGBA32F, nil
	case "r32f":
		return texture.InputR32F, nil
	default:
		return 0, fmt.Errorf("unknown raw format %q", name)
	}
}

func runRaw() error {
	in, err := parseRawFormat(rawFormatName)
	if err != nil {
		return err
	}
	out, err := texture.ParseFormat(formatName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if err := convert.ConvertRaw(width, height, layers, data, in, out, outputPath,
		convert.WithMipmaps(generateMips), convert.WithLegacyHeader(legacyHeader)); err != nil {
		return err
	}

	fmt.Printf("Converted %s (%s %dx%dx%d) -> %s [%s]\n", inputPath, in, width, height, layers, outputPath, out)
	return nil
}

func openSource(lf *store.ListFile) (store.Source, func() error, error) {
	if packageName != "" {
		pack, err := store.OpenPack(sourcePath, packageName)
		if err != nil {
			return nil, nil, fmt.Errorf("open pack: %w", err)
		}
		fmt.Printf("Pack loaded: %d files in %d packages\n", pack.Catalog().FileCount(), pack.Catalog().PackageCount())
		return pack, pack.Close, nil
	}

	dir, err := store.NewDirSource(sourcePath, lf)
	if err != nil {
		return nil, nil, err
	}
	return dir, func() error { return nil }, nil
}

func runExtract() error {
	lf, err := store.ReadListFile(listFilePath)
	if err != nil {
		return err
	}
	fmt.Printf("List file loaded: %d entries, %d textures\n", lf.Len(), len(lf.BLPFileIDs()))

	source, closeSource, err := openSource(lf)
	if err != nil {
		return err
	}
	defer closeSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	extractor := convert.NewExtractor(source, lf, outputPath, convert.WithWorkers(workers))
	summary, err := extractor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted")
	} else if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	fmt.Printf("Extraction complete in %s: %s\n", time.Since(start).Round(time.Millisecond), summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d textures failed to convert", summary.Failed)
	}
	return err
}

func runPack() error {
	lf, err := store.ReadListFile(listFilePath)
	if err != nil {
		return err
	}

	fmt.Println("Scanning input directory...")
	files, err := store.ScanFiles(inputPath, lf)
	if err != nil {
		return fmt.Errorf("scan files: %w", err)
	}
	fmt.Printf("Found %d listed files\n", len(files))

	fmt.Println("Building pack...")
	catalog, err := store.NewBuilder(outputPath, packageName).Build(files)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	fmt.Printf("Build complete: %d files in %d frames, %d packages. Catalog written to %s\n",
		catalog.FileCount(), len(catalog.Frames), catalog.PackageCount(),
		filepath.Clean(store.CatalogPath(outputPath, packageName)))
	return nil
}
