// Command classlabel runs OCR over the class templates of a persisted
// classification result and prints a class-to-text table, with per-class
// instance counts. Useful for eyeballing whether classes line up with
// actual glyphs.
//
// Usage: classlabel <output-prefix>
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"jbsym/internal/classify"
	"jbsym/internal/ocr"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <output-prefix>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nReads <prefix>.templates.pbm and <prefix>.instances.txt.\n")
		os.Exit(1)
	}
	prefix := os.Args[1]

	result, err := classify.ReadResult(prefix+".templates.pbm", prefix+".instances.txt")
	if err != nil {
		log.Fatal(err)
	}

	counts := make([]int, len(result.Templates))
	for _, rec := range result.Records {
		counts[rec.Class]++
	}

	labeler, err := ocr.NewLabeler()
	if err != nil {
		log.Fatal(err)
	}
	defer labeler.Close()

	fmt.Printf("%-6s %-9s %-10s %s\n", "class", "size", "instances", "label")
	for i, tpl := range result.Templates {
		label, err := labeler.LabelTemplate(tpl)
		if err != nil {
			log.WithError(err).Warnf("class %d: OCR failed", i)
			label = "?"
		}
		fmt.Printf("%-6d %3dx%-5d %-10d %q\n", i, tpl.Width, tpl.Height, counts[i], label)
	}
}
