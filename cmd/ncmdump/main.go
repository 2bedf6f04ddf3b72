package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/zing22845/go-ncm/internal/version"
	"github.com/zing22845/go-ncm/pkg/dump"
)

// cli holds the parser and the values it fills
type cli struct {
	parser   *argparse.Parser
	logLevel *string

	versionCmd *argparse.Command

	// unboxing takes only its two positionals
	unboxCmd    *argparse.Command
	unboxInput  *string
	unboxOutput *string

	infoCmd   *argparse.Command
	infoInput *string

	batchCmd         *argparse.Command
	batchConfig      *string
	batchInput       *string
	batchOutput      *string
	batchConcurrency *int
	batchLimitRate   *int
	batchCatalog     *string
	batchNoTags      *bool
}

func newCLI() *cli {
	c := &cli{}
	c.parser = argparse.NewParser(version.AppName, "Decrypt NCM containers into tagged audio files")
	c.logLevel = c.parser.Selector("l", "log-level",
		[]string{"trace", "debug", "info", "warn", "error"},
		&argparse.Options{Help: "Log level, batch defaults to the config file value"})

	c.versionCmd = c.parser.NewCommand("version", "display version information")

	c.unboxCmd = c.parser.NewCommand("unboxing", "decrypt one container")
	c.unboxInput = c.unboxCmd.StringPositional(&argparse.Options{Help: "Input .ncm file"})
	c.unboxOutput = c.unboxCmd.StringPositional(&argparse.Options{
		Help: "Output directory (defaults to the directory of the input)",
	})

	c.infoCmd = c.parser.NewCommand("info", "print the metadata of a container as JSON")
	c.infoInput = c.infoCmd.StringPositional(&argparse.Options{Help: "Input .ncm file"})

	c.batchCmd = c.parser.NewCommand("batch", "decrypt every container of a directory or bucket")
	c.batchConfig = c.batchCmd.String("c", "config", &argparse.Options{Help: "YAML config file"})
	c.batchInput = c.batchCmd.String("i", "input-dir", &argparse.Options{Help: "Directory scanned for .ncm files"})
	c.batchOutput = c.batchCmd.String("o", "output-dir", &argparse.Options{Help: "Output directory"})
	c.batchConcurrency = c.batchCmd.Int("j", "concurrency", &argparse.Options{
		Default: 0,
		Help:    "Containers decoded in parallel",
	})
	c.batchLimitRate = c.batchCmd.Int("", "limit-rate", &argparse.Options{
		Default: 0,
		Help:    "Write limit in bytes per second for each container",
	})
	c.batchCatalog = c.batchCmd.String("", "catalog", &argparse.Options{Help: "sqlite catalog of decoded containers"})
	c.batchNoTags = c.batchCmd.Flag("", "no-tags", &argparse.Options{Help: "Do not write tags"})
	return c
}

func main() {
	c := newCLI()
	if err := c.parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, c.parser.Usage(err))
		os.Exit(2)
	}
	if *c.logLevel != "" {
		lvl, _ := log.ParseLevel(*c.logLevel)
		log.SetLevel(lvl)
	}

	var err error
	switch {
	case c.versionCmd.Happened():
		fmt.Println(version.GetVersionInfo())
	case c.unboxCmd.Happened():
		err = runUnboxing(*c.unboxInput, *c.unboxOutput)
	case c.infoCmd.Happened():
		err = runInfo(*c.infoInput)
	case c.batchCmd.Happened():
		overrides := batchOverrides(*c.batchInput, *c.batchOutput, *c.batchCatalog, *c.logLevel,
			*c.batchConcurrency, *c.batchLimitRate, *c.batchNoTags)
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		err = runBatch(ctx, *c.batchConfig, overrides)
		stop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runUnboxing(input, output string) error {
	if input == "" {
		return fmt.Errorf("input is required")
	}
	if output == "" {
		output = filepath.Dir(input)
	}
	res, err := dump.Unbox(input, output)
	if err != nil {
		return err
	}
	fmt.Println(res.Output)
	return nil
}

type infoOutput struct {
	Input      string      `json:"input"`
	ValidMagic bool        `json:"validMagic"`
	OutputName string      `json:"outputName"`
	CoverMIME  string      `json:"coverMime"`
	CoverSize  int         `json:"coverSize"`
	Metadata   interface{} `json:"metadata"`
}

func runInfo(input string) error {
	if input == "" {
		return fmt.Errorf("input is required")
	}
	c, err := dump.Inspect(input)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(&infoOutput{
		Input:      input,
		ValidMagic: c.ValidMagic,
		OutputName: dump.OutputName(c.Metadata),
		CoverMIME:  c.CoverMIME(),
		CoverSize:  len(c.Image),
		Metadata:   c.Metadata,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
