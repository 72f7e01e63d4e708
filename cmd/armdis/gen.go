package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/apparentlymart/arm-meta/gen"
)

func runGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	var c common
	c.register(fs)
	dir := fs.String("o", "generated", "output `directory`")
	pkg := fs.String("package", "", "name of the generated package")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}

	src, err := gen.Generate(e.dec, gen.Options{Package: *pkg})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*dir, os.ModePerm); err != nil {
		return err
	}
	path := filepath.Join(*dir, gen.FileName(e.dec.Table()))
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return err
	}
	e.log.Info().Str("path", path).Int("bytes", len(src)).Msg("generated dispatch code")
	return nil
}
