// Command jbsym classifies connected components across a sequence of
// binary page images and writes the coded result: a template stream
// (<out>.templates.pbm) and an instance stream (<out>.instances.txt).
//
// Usage: jbsym [flags] page1.pbm page2.png ...
// or:    jbsym -config run.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"jbsym/internal/binarize"
	"jbsym/internal/bitmap"
	"jbsym/internal/classify"
	"jbsym/internal/config"
	"jbsym/internal/pageio"
	"jbsym/internal/version"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML run configuration (overrides other flags)")
		method     = flag.String("method", "correlation", "matching method: correlation or rankhaus")
		kind       = flag.String("kind", "characters", "component kind: characters or words")
		thresh     = flag.Float64("thresh", 0.80, "correlation threshold")
		weight     = flag.Float64("weight", 0.6, "correlation weighting factor")
		rank       = flag.Float64("rank", 0.97, "hausdorff rank fraction")
		selSize    = flag.Int("sel", 2, "hausdorff structuring element size")
		otsu       = flag.Bool("otsu", false, "binarize grayscale pages with Otsu's method")
		out        = flag.String("out", "jbsym-out", "output path prefix")
		verbose    = flag.Bool("v", false, "debug logging")
		showVer    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("jbsym %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var (
		params classify.Params
		pages  []string
		err    error
	)
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		if cfg.LogLevel != "" {
			lvl, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				log.Fatalf("bad logLevel: %v", err)
			}
			log.SetLevel(lvl)
		}
		params, err = cfg.Params()
		if err != nil {
			log.Fatal(err)
		}
		pages = cfg.Pages
		if cfg.Output != "" {
			*out = cfg.Output
		}
		if cfg.Otsu {
			*otsu = true
		}
	} else {
		params, err = flagParams(*method, *kind, *thresh, *weight, *rank, *selSize)
		if err != nil {
			log.Fatal(err)
		}
		pages = flag.Args()
	}

	if len(pages) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] page1.pbm page2.png ...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	cls, err := classify.New(params)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	for i, path := range pages {
		page, err := loadPage(path, *otsu)
		if err != nil {
			log.Fatalf("page %d (%s): %v", i, path, err)
		}
		if err := cls.AddPage(page); err != nil {
			log.Fatalf("page %d (%s): %v", i, path, err)
		}
		log.WithFields(log.Fields{
			"page":    i,
			"file":    path,
			"classes": cls.NumClasses(),
		}).Info("page classified")
	}

	result := cls.Result()
	tplPath := *out + ".templates.pbm"
	instPath := *out + ".instances.txt"
	if err := result.WriteFiles(tplPath, instPath); err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{
		"pages":     result.Pages,
		"classes":   len(result.Templates),
		"instances": len(result.Records),
	}).Infof("wrote %s and %s", tplPath, instPath)
}

func loadPage(path string, otsu bool) (*bitmap.Bitmap, error) {
	if !otsu {
		return pageio.Load(path)
	}
	img, err := pageio.LoadImage(path)
	if err != nil {
		return nil, err
	}
	return binarize.Otsu(img)
}

func flagParams(method, kind string, thresh, weight, rank float64, selSize int) (classify.Params, error) {
	p := classify.DefaultParams()
	switch kind {
	case "characters":
	case "words":
		p = p.WithKind(classify.KindWords)
	default:
		return p, fmt.Errorf("unknown component kind %q", kind)
	}
	switch method {
	case "correlation":
		p.Method = classify.MethodCorrelation
	case "rankhaus":
		p.Method = classify.MethodRankHaus
	default:
		return p, fmt.Errorf("unknown method %q", method)
	}
	p.Thresh = thresh
	p.WeightFactor = weight
	p.Rank = rank
	p.SelSize = selSize
	return p, nil
}
