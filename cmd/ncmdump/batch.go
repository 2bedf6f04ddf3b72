package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/zing22845/go-ncm/pkg/catalog"
	"github.com/zing22845/go-ncm/pkg/config"
	"github.com/zing22845/go-ncm/pkg/dump"
	"github.com/zing22845/go-ncm/pkg/source"
)

// batchOverrides keeps only the flags that were given
func batchOverrides(
	inputDir, outputDir, catalogPath, logLevel string,
	concurrency, limitRate int,
	noTags bool,
) map[string]interface{} {
	overrides := make(map[string]interface{})
	for k, v := range map[string]string{
		"input_dir":    inputDir,
		"output_dir":   outputDir,
		"catalog_path": catalogPath,
		"log_level":    logLevel,
	} {
		if v != "" {
			overrides[k] = v
		}
	}
	if concurrency > 0 {
		overrides["concurrency"] = concurrency
	}
	if limitRate > 0 {
		overrides["limit_rate"] = limitRate
	}
	if noTags {
		overrides["skip_tags"] = true
	}
	return overrides
}

func listSources(ctx context.Context, cfg *config.Config) ([]dump.Source, error) {
	if !cfg.UseS3() {
		return dump.ScanDir(cfg.InputDir)
	}
	client, err := source.NewS3Client(ctx, &source.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		Prefix:    cfg.S3.Prefix,
	})
	if err != nil {
		return nil, err
	}
	return source.ListS3(ctx, client, cfg.S3.Bucket, cfg.S3.Prefix)
}

func runBatch(ctx context.Context, configPath string, overrides map[string]interface{}) error {
	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		return err
	}
	lvl, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(lvl)

	sources, err := listSources(ctx, cfg)
	if err != nil {
		return err
	}
	log.Infof("found %d containers", len(sources))

	b := &dump.Batch{
		Concurrency: cfg.Concurrency,
		OutputDir:   cfg.OutputDir,
		LimitRate:   cfg.LimitRate,
		SkipTags:    cfg.SkipTags,
	}
	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			return err
		}
		defer cat.Close()
		b.Recorder = cat
	}

	startTime := time.Now()
	results, runErr := b.Run(ctx, sources)
	var (
		done      int
		totalSize int64
	)
	for _, res := range results {
		if res != nil {
			done++
			totalSize += res.AudioSize
		}
	}
	log.WithFields(log.Fields{
		"done":     done,
		"failed":   len(sources) - done,
		"bytes":    totalSize,
		"duration": time.Since(startTime).String(),
	}).Info("batch finished")

	if cat != nil && cfg.MeiliSearch.Host != "" {
		records, err := cat.List()
		if err != nil {
			return err
		}
		indexer := catalog.NewIndexer(cfg.MeiliSearch.Host, cfg.MeiliSearch.APIKey,
			cfg.MeiliSearch.Index, cfg.MeiliSearch.IDPrefix)
		n, err := indexer.Push(records)
		if err != nil {
			return errors.Wrap(err, "push to meilisearch")
		}
		log.Infof("pushed %d documents to meilisearch", n)
	}
	if runErr != nil {
		return errors.Wrapf(runErr, "%d of %d containers failed", len(sources)-done, len(sources))
	}
	return nil
}
